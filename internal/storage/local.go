package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalService keeps media on the local filesystem under root and serves
// them below baseURL.
type LocalService struct {
	root    string
	baseURL string
}

func NewLocalService(root, baseURL string) (*LocalService, error) {
	if root == "" {
		return nil, fmt.Errorf("media root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &LocalService{root: filepath.Clean(root), baseURL: baseURL}, nil
}

// Root returns the directory files are written to.
func (s *LocalService) Root() string {
	return s.root
}

// BaseURL returns the URL prefix media are served under.
func (s *LocalService) BaseURL() string {
	return s.baseURL
}

// Path returns the filesystem path for key.
func (s *LocalService) Path(key string) (string, error) {
	clean, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// Put writes to a temp file next to the target, syncs it and renames it in
// place so readers never observe a partial file.
func (s *LocalService) Put(ctx context.Context, obj Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.Path(obj.Key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := io.Copy(tmp, obj.Body); err != nil {
		cleanup()
		return fmt.Errorf("write %s: %w", obj.Key, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync %s: %w", obj.Key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", obj.Key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("move %s into place: %w", obj.Key, err)
	}
	return nil
}

func (s *LocalService) Delete(ctx context.Context, key string) error {
	target, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (s *LocalService) URL(_ context.Context, key string) (string, error) {
	clean, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return joinURL(s.baseURL, clean), nil
}

var _ Service = (*LocalService)(nil)
