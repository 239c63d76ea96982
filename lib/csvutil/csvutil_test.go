package csvutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseColumns(t *testing.T) {
	columns := parseColumns(`
known_name:Player
abbr:Team

exp_goals
  exp_assists : xA
:ignored
`)
	require.Equal(t, []Column{
		{Key: "known_name", Label: "Player"},
		{Key: "abbr", Label: "Team"},
		{Key: "exp_goals", Label: "exp_goals"},
		{Key: "exp_assists", Label: "xA"},
	}, columns)
}

func TestReadColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "columns.txt")
	err := os.WriteFile(path, []byte("known_name:Player\nexp_goals\n"), 0644)
	require.NoError(t, err)

	columns, err := ReadColumns(path)
	require.NoError(t, err)
	require.Equal(t, []string{"known_name", "exp_goals"}, Keys(columns))
}

func TestReadColumnsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "columns.txt")
	err := os.WriteFile(path, []byte("\n\n"), 0644)
	require.NoError(t, err)

	_, err = ReadColumns(path)
	require.Error(t, err)
}

func TestAppendRowOrderAndFormatting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	columns := []Column{
		{Key: "known_name", Label: "Player"},
		{Key: "price", Label: "Price"},
		{Key: "exp_goals", Label: "xG"},
		{Key: "game_started", Label: "Started"},
	}

	err := WriteHeader(path, columns)
	require.NoError(t, err)
	err = AppendRow(path, map[string]any{
		"known_name":   "A. Smith",
		"price":        8.5,
		"game_started": float64(1),
		// exp_goals intentionally missing
	}, Keys(columns))
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "Player,Price,xG,Started\nA. Smith,8.5,,1\n", string(contents))
}

func TestReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	// resetting a file that never existed is fine
	require.NoError(t, Reset(path))

	err := os.WriteFile(path, []byte("stale"), 0644)
	require.NoError(t, err)
	require.NoError(t, Reset(path))

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}
