package share

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ShareFunc is an optional hook invoked to hand a located file to an
// external share channel (a share sheet, a sync folder, a mail script).
type ShareFunc func(uri string, meta Metadata) error

// FSSink implements Sink over two local directories. Share is unavailable
// unless a hook is supplied, which is the common case on a plain
// filesystem.
type FSSink struct {
	cacheDir    string
	downloadDir string
	shareHook   ShareFunc
}

// NewFSSink returns a filesystem sink. Either directory may be created
// lazily on first write.
func NewFSSink(cacheDir, downloadDir string, hook ShareFunc) *FSSink {
	return &FSSink{cacheDir: cacheDir, downloadDir: downloadDir, shareHook: hook}
}

func (s *FSSink) dirFor(loc Location) (string, error) {
	switch loc {
	case LocationCache:
		return s.cacheDir, nil
	case LocationDownloads:
		return s.downloadDir, nil
	default:
		return "", fmt.Errorf("share: unknown location %q", loc)
	}
}

func (s *FSSink) Write(_ context.Context, path string, data []byte, loc Location) (Handle, error) {
	dir, err := s.dirFor(loc)
	if err != nil {
		return Handle{}, err
	}
	if dir == "" {
		return Handle{}, fmt.Errorf("share: location %q not configured", loc)
	}
	full := filepath.Join(dir, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return Handle{}, fmt.Errorf("create export dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o640); err != nil {
		return Handle{}, fmt.Errorf("write export: %w", err)
	}
	return Handle{Path: path, Location: loc}, nil
}

func (s *FSSink) Locate(_ context.Context, h Handle) (string, error) {
	dir, err := s.dirFor(h.Location)
	if err != nil {
		return "", err
	}
	full := filepath.Join(dir, h.Path)
	if _, err := os.Stat(full); errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	} else if err != nil {
		return "", fmt.Errorf("stat export: %w", err)
	}
	abs, err := filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("resolve export path: %w", err)
	}
	return "file://" + abs, nil
}

func (s *FSSink) Share(_ context.Context, uri string, meta Metadata) error {
	if s.shareHook == nil {
		return ErrShareUnavailable
	}
	return s.shareHook(uri, meta)
}
