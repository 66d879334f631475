package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvFiles are loaded in order. godotenv never overrides a variable that is
// already set, so the first file to define a key wins.
var EnvFiles = []string{".env.local", ".env.development", ".env.production", ".env"}

// LoadEnvFiles loads EnvFiles from dir, skipping any that do not exist. It
// returns the files that were loaded.
func LoadEnvFiles(dir string) ([]string, error) {
	var loaded []string
	for _, name := range EnvFiles {
		path := filepath.Join(dir, name)
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("load %s: %w", path, err)
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}
