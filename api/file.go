// Package api holds the versioned document types and the file helpers they
// share.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/openltablets/dtinfer/pkg/yaml"
)

// AppName names the per-user configuration directory.
const AppName = "dtinfer"

var (
	// ErrIsDirectory is returned when a file path names a directory.
	ErrIsDirectory = errors.New("path is a directory")
	// ErrIrregularFile is returned for sockets, devices and other non-regular files.
	ErrIrregularFile = errors.New("not a regular file")
)

// GetConfigPath returns the path of filename in the user configuration
// directory. $XDG_CONFIG_HOME wins over ~/.config; the temp directory is
// used when neither can be determined.
func GetConfigPath(filename string) string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName, filename)
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".config", AppName, filename)
	}

	path := filepath.Join(os.TempDir(), AppName, filename)
	slog.Warn("no user config directory, using temp path",
		slog.String("path", path),
		slog.Any("error", err),
	)

	return path
}

// regularFile reports whether path exists as a regular file.
func regularFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat file: %w", err)
	case info.IsDir():
		return false, fmt.Errorf("%s: %w", path, ErrIsDirectory)
	case !info.Mode().IsRegular():
		return false, fmt.Errorf("%s: %w", path, ErrIrregularFile)
	}

	return true, nil
}

// ReadFile reads a regular file.
func ReadFile(path string) ([]byte, error) {
	ok, err := regularFile(path)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: reading user-supplied documents is the point.
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// MarshalYAML encodes obj as YAML.
func MarshalYAML(obj any) ([]byte, error) {
	b := &bytes.Buffer{}

	enc := yaml.NewEncoder(b)
	if err := enc.Encode(obj); err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close yaml encoder: %w", err)
	}

	return b.Bytes(), nil
}

// WriteDefaultFile writes data to path unless a file is already there.
// With force, an existing file is renamed to a timestamped backup first.
func WriteDefaultFile(path string, data []byte, force bool, kind string) error {
	exists, err := regularFile(path)
	if err != nil {
		return err
	}

	if exists && !force {
		slog.Debug("keep existing file", slog.String("type", kind), slog.String("path", path))

		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	if exists {
		backup := fmt.Sprintf("%s.%d.old", path, time.Now().UnixNano())
		slog.Info("back up existing file", slog.String("type", kind), slog.String("path", backup))

		if err := os.Rename(path, backup); err != nil {
			return fmt.Errorf("back up %s file: %w", kind, err)
		}
	}

	slog.Info("write default file", slog.String("type", kind), slog.String("path", path))

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s file: %w", kind, err)
	}

	return nil
}

// FindFile looks for any of names in dir and its parents, returning the
// first match or "" when the filesystem root is reached.
func FindFile(dir string, names ...string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("get absolute path: %w", err)
	}

	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	for {
		for _, name := range names {
			candidate := filepath.Join(abs, name)
			if ok, _ := regularFile(candidate); ok {
				return candidate, nil
			}
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", nil
		}

		abs = parent
	}
}
