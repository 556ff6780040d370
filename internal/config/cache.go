package config

import (
	"errors"
	"os"
	"path/filepath"
)

// CachePath is where the last interactive setup is remembered.
func CachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		return filepath.Join(os.TempDir(), "theclicker", "last-run.json")
	}
	return filepath.Join(dir, "theclicker", "last-run.json")
}

// LoadCache returns the cached run, or nil when nothing is cached.
func LoadCache(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func ClearCache(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
