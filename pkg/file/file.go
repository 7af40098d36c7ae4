package file

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
)

// Object describes a stored object.
type Object struct {
	Key         string
	Size        int64
	ContentType string
	ModifiedAt  time.Time
}

// Storage resolves references to objects written by the upload service.
type Storage interface {
	// Stat returns object metadata or ErrFileNotFound.
	Stat(ctx context.Context, key string) (*Object, error)
	// URL returns the public address of key, or "" for an invalid key.
	URL(key string) string
}

// Exists reports whether key is present. Backend errors other than not-found are returned.
func Exists(ctx context.Context, s Storage, key string) (bool, error) {
	_, err := s.Stat(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

// cleanKey rejects keys that try to escape their root.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(key, "\\", "/")), "/")
	if key == "" || key == "." {
		return "", fmt.Errorf("%w: empty key", ErrInvalidPath)
	}
	return key, nil
}
