package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "store"))
	require.NoError(t, err)

	require.NoError(t, s.Set(KeyCart, []byte(`[{"product_id":"p1"}]`)))

	got, err := s.Get(KeyCart)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"product_id":"p1"}]`, string(got))

	// Token files must not be world-readable.
	info, err := os.Stat(s.Path(KeyCart))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStoreMissingKey(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get(KeyAccessToken)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFileStoreDeleteIsIdempotent(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Set(KeyAccessToken, []byte("tok")))
	require.NoError(t, s.Delete(KeyAccessToken))
	require.NoError(t, s.Delete(KeyAccessToken))

	_, err = s.Get(KeyAccessToken)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFileStoreClear(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Set(KeyAccessToken, []byte("a")))
	require.NoError(t, s.Set(KeyRefreshToken, []byte("r")))
	require.NoError(t, s.Set(KeyCart, []byte("[]")))

	require.NoError(t, s.Clear())

	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyCart} {
		_, err := s.Get(key)
		assert.True(t, errors.Is(err, ErrNotFound), "key %s survived Clear", key)
	}
}

func TestMemStore(t *testing.T) {
	s := NewMemStore()

	_, err := s.Get(KeyCart)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Set(KeyCart, []byte("[]")))
	got, err := s.Get(KeyCart)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	// Mutating the returned slice must not corrupt the stored value.
	got[0] = 'x'
	again, err := s.Get(KeyCart)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(again))

	require.NoError(t, s.Clear())
	_, err = s.Get(KeyCart)
	assert.True(t, errors.Is(err, ErrNotFound))
}
