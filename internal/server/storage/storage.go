// Package storage keeps uploaded avatars. A file first lands in the temp
// directory; an AvatarStore then moves it to permanent storage and later
// removes it.
package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/dmitrijs2005/accountkeeper/internal/filex"
)

// AvatarStore moves uploads to permanent storage.
type AvatarStore interface {
	// Save moves the file at tempPath into storage under fileName and
	// returns the path to record on the user row.
	Save(ctx context.Context, tempPath, fileName string) (string, error)
	// Remove deletes a stored file. Removing a missing file is not an error.
	Remove(ctx context.Context, storedPath string) error
}

// LocalStore keeps avatars under <root>/<uploadDir>. Stored paths are
// relative to root, e.g. "uploads/<name>.png".
type LocalStore struct {
	root      string
	uploadDir string
}

func NewLocalStore(root, uploadDir string) (*LocalStore, error) {
	abs, err := filex.EnsureDir(filepath.Join(root, uploadDir))
	if err != nil {
		return nil, err
	}
	return &LocalStore{root: filepath.Dir(abs), uploadDir: filepath.Base(abs)}, nil
}

func (s *LocalStore) Save(ctx context.Context, tempPath, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := filepath.Base(fileName)
	dst := filepath.Join(s.root, s.uploadDir, name)
	if err := filex.MoveFile(tempPath, dst); err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}

	return path.Join(s.uploadDir, name), nil
}

func (s *LocalStore) Remove(_ context.Context, storedPath string) error {
	if storedPath == "" {
		return nil
	}
	full := filepath.Join(s.root, s.uploadDir, filepath.Base(filepath.FromSlash(storedPath)))
	return filex.RemoveIfExists(full)
}
