package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/exterafans/efans-avatars/internal/core/domain/avatar"
	"github.com/exterafans/efans-avatars/internal/core/ports"
	"github.com/spf13/afero"
)

const defaultDirPerm fs.FileMode = 0o755

// FileSlot stores the slot value as <dir>/<name>.json on an afero filesystem.
// Writes go through a temp file and a rename so readers never see a partial blob.
type FileSlot struct {
	fs   afero.Fs
	dir  string
	name string
}

// NewFileSlot creates dir if needed.
func NewFileSlot(fsys afero.Fs, dir, name string) (*FileSlot, error) {
	if name == "" {
		return nil, errors.New("file slot name is required")
	}
	if err := fsys.MkdirAll(dir, defaultDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create slot directory %q: %w", dir, err)
	}
	return &FileSlot{fs: fsys, dir: dir, name: name}, nil
}

func (s *FileSlot) Name() string { return s.name }

// Path is where the slot value lives.
func (s *FileSlot) Path() string {
	return filepath.Join(s.dir, s.name+".json")
}

func (s *FileSlot) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, avatar.ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot file: %w", err)
	}
	return data, nil
}

func (s *FileSlot) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := afero.TempFile(s.fs, s.dir, s.name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp slot file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write slot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to close slot file: %w", err)
	}
	if err := s.fs.Rename(tmpName, s.Path()); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to replace slot file: %w", err)
	}
	return nil
}

func (s *FileSlot) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fs.Remove(s.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove slot file: %w", err)
	}
	return nil
}

var _ ports.Slot = (*FileSlot)(nil)
