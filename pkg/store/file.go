package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/umputun/postscope/pkg/domain"
)

// LoadFile reads a persisted collection, a missing file is an empty collection
func LoadFile(path string) ([]domain.Post, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from config
	if errors.Is(err, os.ErrNotExist) {
		return []domain.Post{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read posts file: %w", err)
	}
	posts, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return posts, nil
}

// SaveFile writes posts with dense keys in slice order. The file is replaced atomically.
func SaveFile(path string, posts []domain.Post) error {
	data, err := Encode(posts)
	if err != nil {
		return fmt.Errorf("encode posts: %w", err)
	}

	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

// Backup saves posts to dir as posts_backup_YYYYMMDD_HHMMSS.json and returns the file path
func Backup(dir string, posts []domain.Post, now time.Time) (string, error) {
	path := filepath.Join(dir, "posts_backup_"+now.Format("20060102_150405")+".json")
	if err := SaveFile(path, posts); err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}
	return path, nil
}
