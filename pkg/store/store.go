// Package store persists state between runs: the per-package image cache,
// the exclusion set and the user configuration, all as JSON files in the
// application data directory.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/agentstation/epubalt/pkg/constants"
	"github.com/agentstation/epubalt/pkg/errors"
	"github.com/agentstation/epubalt/pkg/images"
)

// Store reads and writes files below one data directory.
type Store struct {
	dir string
}

// DefaultDir returns the per-user data directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.WrapIO("locate", "user config dir", err)
	}
	return filepath.Join(base, constants.AppName), nil
}

// New returns a Store rooted at dir, creating it. An empty dir selects DefaultDir.
func New(dir string) (*Store, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

var epubSuffix = regexp.MustCompile(`(?i)\.epub$`)

// CachePath returns the cache file for the package at pkgPath: the package
// base name plus a stable hash of its absolute path.
func (s *Store) CachePath(pkgPath string) (string, error) {
	abs, err := filepath.Abs(pkgPath)
	if err != nil {
		return "", errors.WrapIO("resolve", pkgPath, err)
	}
	hash := uuid.NewSHA1(uuid.NameSpaceURL, []byte(filepath.ToSlash(abs))).String()[:8]
	base := epubSuffix.ReplaceAllString(filepath.Base(abs), "")
	return filepath.Join(s.dir, base+"_"+hash+".json"), nil
}

// LoadCache reads the cache at path. A missing file yields an empty index;
// a malformed one is an error.
func (s *Store) LoadCache(path string) (*images.Index, error) {
	idx := images.NewIndex()
	found, err := readJSON(path, idx)
	if err != nil {
		return nil, err
	}
	if !found {
		return images.NewIndex(), nil
	}
	return idx, nil
}

// SaveCache writes idx to path atomically.
func (s *Store) SaveCache(path string, idx *images.Index) error {
	return writeJSON(path, idx)
}

// ExclusionsPath returns the exclusion set file.
func (s *Store) ExclusionsPath() string {
	return filepath.Join(s.dir, constants.ExclusionsFile)
}

// LoadExclusions reads the exclusion set; a missing file yields an empty set.
func (s *Store) LoadExclusions() (*images.Exclusions, error) {
	ex := images.NewExclusions()
	if _, err := readJSON(s.ExclusionsPath(), ex); err != nil {
		return nil, err
	}
	return ex, nil
}

// SaveExclusions writes the exclusion set atomically.
func (s *Store) SaveExclusions(ex *images.Exclusions) error {
	return writeJSON(s.ExclusionsPath(), ex)
}

func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.WrapIO("read", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, errors.NewParseError("json", path, "malformed file", err)
	}
	return true, nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.WrapParse("json", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(path), err)
	}
	if err := atomicWriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// Lock is an exclusive lock on one package's cache.
type Lock struct {
	lock *flock.Flock
}

// Lock acquires the lock guarding the cache at cachePath. It fails with
// ErrLocked when another run holds it.
func (s *Store) Lock(cachePath string) (*Lock, error) {
	fl := flock.New(cachePath + ".lock")
	ok, err := fl.TryLock()
	if err != nil {
		return nil, errors.WrapIO("lock", cachePath, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrLocked, filepath.Base(cachePath))
	}
	return &Lock{lock: fl}, nil
}

// Unlock releases the lock.
func (l *Lock) Unlock() error {
	return l.lock.Unlock()
}

// WriteOutput writes data to path. If the first attempt fails on an
// existing file, the file is made writable and the write is tried once more.
func WriteOutput(path string, data []byte) error {
	err := os.WriteFile(path, data, constants.FilePermissions)
	if err == nil {
		return nil
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return errors.WrapIO("write", path, err)
	}
	if chErr := os.Chmod(path, constants.WritablePermissions); chErr != nil {
		return errors.WrapIO("write", path, err)
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
