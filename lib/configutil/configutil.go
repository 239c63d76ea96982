package configutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// local override files sit next to the base config with ".local"
// spliced in before the extension: config.json5 -> config.local.json5
func localPath(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(filepath.Dir(path), fmt.Sprintf("%s.local%s", stem, ext))
}

func readInto[T any](path string, out *T) (bool, error) {
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(contents) == 0 {
		return false, nil
	}
	err = json5.Unmarshal(contents, out)
	if err != nil {
		return false, fmt.Errorf("parsing %s: %w", path, err)
	}
	return true, nil
}

// ReadConfig loads a json5 config file and, when present, merges its
// ".local" sibling over it field by field. The local file wins, which
// keeps credentials and machine specifics out of the shared file.
// When neither file exists the error is os.ErrNotExist.
func ReadConfig[T any](path string) (T, error) {
	var config T

	foundBase, err := readInto(path, &config)
	if err != nil {
		return config, err
	}

	local := localPath(path)
	var override T
	foundLocal, err := readInto(local, &override)
	if err != nil {
		return config, err
	}
	if foundLocal {
		err = mergo.Merge(&config, override, mergo.WithOverride)
		if err != nil {
			return config, err
		}
		slog.Info("applied local config overrides", "path", local)
	}

	if !foundBase && !foundLocal {
		return config, os.ErrNotExist
	}
	return config, nil
}

// ReadRecursively walks from the working directory up towards the
// filesystem root and loads the first matching config file it finds.
func ReadRecursively[T any](name string) (T, error) {
	var zero T

	dir, err := os.Getwd()
	if err != nil {
		return zero, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(dir, name))
		if err == nil {
			return config, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return zero, err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return zero, os.ErrNotExist
		}
		dir = parent
	}
}
