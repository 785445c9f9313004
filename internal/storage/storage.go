package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrInvalidKey is returned for empty keys or keys escaping the storage root.
var ErrInvalidKey = errors.New("invalid storage key")

// Object describes a file to store.
type Object struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
}

// Service stores media files (user avatars) and resolves their public URLs.
type Service interface {
	Put(ctx context.Context, obj Object) error
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string) (string, error)
}

// CleanKey normalizes a slash separated key and rejects traversal.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrInvalidKey
	}
	clean := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." || clean != strings.Trim(key, "/") {
		return "", ErrInvalidKey
	}
	return clean, nil
}

func joinURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + key
}
