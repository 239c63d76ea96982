package fff

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestFormatPosition(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"Goalkeeper", "GK"},
		{"Defender", "D"},
		{"Midfielder", "M"},
		{"Forward", "F"},
		{"Wing Back", "Wing Back"},
		{"", ""},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, FormatPosition(test.input))
	}
}

func TestFormatNullValues(t *testing.T) {
	record := Record{
		"int zero":     float64(0),
		"float zero":   0.0,
		"string zero":  "0",
		"non zero":     1.5,
		"name":         "A. Smith",
		"already null": "",
	}
	formatNullValues(record)

	require.Equal(t, "", record["int zero"])
	require.Equal(t, "", record["float zero"])
	require.Equal(t, "", record["string zero"])
	require.Equal(t, 1.5, record["non zero"])
	require.Equal(t, "A. Smith", record["name"])
	require.Equal(t, "", record["already null"])

	// applying the rule twice changes nothing
	before := make(Record, len(record))
	for k, v := range record {
		before[k] = v
	}
	formatNullValues(record)
	require.Empty(t, cmp.Diff(before, record))
}

func playerRecord(stats map[string]any) RawStatRecord {
	return RawStatRecord{
		Player: map[string]any{
			"code":            float64(1),
			"known_name":      "A. Smith",
			"team_short_name": "ARS",
			"position_name":   "Forward",
			"price":           8.5,
		},
		Stats: stats,
	}
}

func TestNormalizePlayer(t *testing.T) {
	normalizer := NewNormalizer([]string{"known_name", "abbr", "exp_goals"}, nil)

	record, identity, err := normalizer.NormalizePlayer(playerRecord(map[string]any{
		"exp_goals":      0.4,
		"exp_assists":    0.1,
		"exp_goals_team": 1.0,
		"game_started":   float64(1),
	}), 1, "home")
	require.NoError(t, err)

	require.Equal(t, Identity{Name: "A. Smith", Team: "ARS"}, identity)
	require.Equal(t, "A. Smith", record["known_name"])
	require.Equal(t, "F", record["position"])
	require.InDelta(t, 0.5, record["expGA"], 1e-9)
	require.Equal(t, 50.0, record["exp_goals_involvement"])
	require.Equal(t, 1, record["gw"])
	require.Equal(t, "home", record["venue"])
	require.Equal(t, float64(1), record["game_started"])
}

func TestNormalizePlayerInvolvementAbsentOnZeroTeamGoals(t *testing.T) {
	normalizer := NewNormalizer(nil, nil)

	record, _, err := normalizer.NormalizePlayer(playerRecord(map[string]any{
		"exp_goals":      0.4,
		"exp_assists":    0.1,
		"exp_goals_team": 0.0,
	}), 1, "home")
	require.NoError(t, err)

	_, present := record["exp_goals_involvement"]
	require.False(t, present)
}

func TestNormalizePlayerInvolvementRounding(t *testing.T) {
	normalizer := NewNormalizer(nil, nil)

	record, _, err := normalizer.NormalizePlayer(playerRecord(map[string]any{
		"exp_goals":      0.1,
		"exp_assists":    0.1,
		"exp_goals_team": 0.3,
	}), 1, "home")
	require.NoError(t, err)

	// (0.1+0.1)/0.3*100 = 66.666... -> 66.67
	require.Equal(t, 66.67, record["exp_goals_involvement"])
}

func TestNormalizePlayerMissingRequiredFields(t *testing.T) {
	requiredFields := []string{"code", "known_name", "team_short_name", "position_name", "price"}

	for _, field := range requiredFields {
		t.Run(field, func(t *testing.T) {
			raw := playerRecord(map[string]any{"exp_goals": 0.4})
			delete(raw.Player, field)

			normalizer := NewNormalizer(nil, nil)
			batch := Batch{}
			normalizer.AddPlayers(context.Background(), batch, []RawStatRecord{raw}, 1, "home")

			require.Len(t, batch, 0)
			require.Equal(t, 1, normalizer.Skipped())
		})
	}
}

func TestNormalizePlayerMetricPruning(t *testing.T) {
	normalizer := NewNormalizer([]string{"exp_goals"}, nil)

	record, _, err := normalizer.NormalizePlayer(playerRecord(map[string]any{
		"exp_goals": 0.4,
		"tackles":   float64(3),
	}), 1, "home")
	require.NoError(t, err)

	require.Equal(t, 0.4, record["exp_goals"])
	_, present := record["tackles"]
	require.False(t, present)
}

func TestNormalizeTeam(t *testing.T) {
	normalizer := NewNormalizer([]string{"goals", "exp_goals"}, nil)

	record, identity, err := normalizer.NormalizeTeam(RawStatRecord{
		Team: map[string]any{"short_name": "ARS"},
		Stats: map[string]any{
			"goals":     float64(2),
			"exp_goals": 0.0,
			"tackles":   float64(9),
		},
	})
	require.NoError(t, err)

	require.Equal(t, Identity{Name: "ARS"}, identity)
	require.Equal(t, "ARS", record["short_name"])
	require.Equal(t, float64(2), record["goals"])
	require.Equal(t, "", record["exp_goals"])
	_, present := record["tackles"]
	require.False(t, present)
}

func TestNormalizeTeamMissingShortName(t *testing.T) {
	normalizer := NewNormalizer(nil, nil)
	_, _, err := normalizer.NormalizeTeam(RawStatRecord{
		Team:  map[string]any{},
		Stats: map[string]any{"goals": float64(2)},
	})
	require.ErrorIs(t, err, ErrMissingRequiredField)
}

func TestBatchLastWriteWins(t *testing.T) {
	normalizer := NewNormalizer(nil, nil)
	batch := Batch{}

	gw1 := playerRecord(map[string]any{"exp_goals": 0.4})
	gw2 := playerRecord(map[string]any{"exp_goals": 0.9})

	normalizer.AddPlayers(context.Background(), batch, []RawStatRecord{gw1}, 1, "home")
	normalizer.AddPlayers(context.Background(), batch, []RawStatRecord{gw2}, 2, "home")

	require.Len(t, batch, 1)
	record := batch[Identity{Name: "A. Smith", Team: "ARS"}]
	require.Equal(t, 2, record["gw"])
}

func TestTeamAbbreviationTable(t *testing.T) {
	normalizer := NewNormalizer(nil, nil)

	raw := playerRecord(nil)
	raw.Player["team_short_name"] = "Nott'm Forest"
	_, identity, err := normalizer.NormalizePlayer(raw, 1, "home")
	require.NoError(t, err)
	require.Equal(t, "NFO", identity.Team)

	// unknown names pass through verbatim
	raw.Player["team_short_name"] = "Atletico"
	_, identity, err = normalizer.NormalizePlayer(raw, 1, "home")
	require.NoError(t, err)
	require.Equal(t, "Atletico", identity.Team)
}
