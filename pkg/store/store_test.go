package store

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/epubalt/pkg/errors"
	"github.com/agentstation/epubalt/pkg/images"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	return s
}

func TestCachePath(t *testing.T) {
	s := newStore(t)

	a, err := s.CachePath("/books/My Book.EPUB")
	require.NoError(t, err)
	b, err := s.CachePath("/books/My Book.EPUB")
	require.NoError(t, err)
	c, err := s.CachePath("/other/My Book.EPUB")
	require.NoError(t, err)

	assert.Equal(t, a, b, "path hash is stable")
	assert.NotEqual(t, a, c)
	assert.Equal(t, s.Dir(), filepath.Dir(a))

	name := filepath.Base(a)
	assert.True(t, strings.HasPrefix(name, "My Book_"), name)
	assert.True(t, strings.HasSuffix(name, ".json"), name)
	assert.Len(t, strings.TrimSuffix(strings.TrimPrefix(name, "My Book_"), ".json"), 8)
}

func TestCacheRoundTrip(t *testing.T) {
	s := newStore(t)
	path, err := s.CachePath("book.epub")
	require.NoError(t, err)

	idx, err := s.LoadCache(path)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len(), "missing cache is empty")

	alt := "Cover"
	idx.Set("cover.jpg", images.Record{Document: "ch1.xhtml", Alt: &alt, NewAlt: "New", Manual: true})
	require.NoError(t, s.SaveCache(path, idx))

	back, err := s.LoadCache(path)
	require.NoError(t, err)
	assert.True(t, idx.Equal(back))
}

func TestLoadCacheMalformed(t *testing.T) {
	s := newStore(t)
	path := filepath.Join(s.Dir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := s.LoadCache(path)
	require.Error(t, err)
	var perr *errors.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "json", perr.Format)
	assert.Equal(t, path, perr.File)
	assert.Equal(t, "malformed file", perr.Message)
	assert.NotNil(t, perr.Unwrap())
}

func TestExclusions(t *testing.T) {
	s := newStore(t)

	ex, err := s.LoadExclusions()
	require.NoError(t, err)
	assert.Equal(t, 0, ex.Len())

	ex.Toggle("Image")
	require.NoError(t, s.SaveExclusions(ex))

	raw, err := os.ReadFile(s.ExclusionsPath())
	require.NoError(t, err)
	assert.JSONEq(t, `{"Image":true}`, string(raw))

	back, err := s.LoadExclusions()
	require.NoError(t, err)
	assert.True(t, back.Contains("Image"))
}

func TestUserConfig(t *testing.T) {
	s := newStore(t)

	_, found, err := s.LoadUserConfig()
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, os.WriteFile(s.ConfigPath(), []byte(`{"email":"a@example.com"}`), 0o644))
	cfg, found, err := s.LoadUserConfig()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "a@example.com", cfg.Email)
	assert.Equal(t, ProviderAPI, cfg.Provider)
	assert.False(t, cfg.IsLocal())

	cfg.Provider = ProviderLocal
	require.NoError(t, s.SaveUserConfig(cfg))
	raw, err := os.ReadFile(s.ConfigPath())
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"a@example.com","AIChoice":"Local"}`, string(raw))
}

func TestLock(t *testing.T) {
	s := newStore(t)
	path, err := s.CachePath("book.epub")
	require.NoError(t, err)

	first, err := s.Lock(path)
	require.NoError(t, err)

	_, err = s.Lock(path)
	require.Error(t, err)
	assert.True(t, errors.IsLocked(err))

	require.NoError(t, first.Unlock())
	again, err := s.Lock(path)
	require.NoError(t, err)
	require.NoError(t, again.Unlock())
}

func TestWriteOutputRetriesReadOnly(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	path := filepath.Join(t.TempDir(), "out.epub")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o444))

	require.NoError(t, WriteOutput(path, []byte("new")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestWriteOutputMissingDir(t *testing.T) {
	err := WriteOutput(filepath.Join(t.TempDir(), "nope", "out.epub"), []byte("x"))
	assert.Error(t, err)
}
