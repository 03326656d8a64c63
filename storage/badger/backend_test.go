package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docindex/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := t.TempDir()
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(tmpFile, []byte("x"), 0644))

	backend, err := OpenBackend(tmpFile, false)
	require.Error(t, err)
	assert.Nil(t, backend)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)

	assert.False(t, backend.IsClosed())

	err = backend.Close()
	require.NoError(t, err)

	assert.True(t, backend.IsClosed())
}

func TestBackend_UpdateAndView(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	err = backend.Update(ctx, func(tx *badger.Txn) error {
		return tx.Set([]byte("k"), []byte("v"))
	})
	require.NoError(t, err)

	var got []byte
	err = backend.View(ctx, func(tx *badger.Txn) error {
		item, err := tx.Get([]byte("k"))
		if err != nil {
			return err
		}
		got, err = item.ValueCopy(nil)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestBackend_UpdateRollsBackOnError(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	boom := assert.AnError
	err = backend.Update(ctx, func(tx *badger.Txn) error {
		if err := tx.Set([]byte("k"), []byte("v")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = backend.View(ctx, func(tx *badger.Txn) error {
		_, err := tx.Get([]byte("k"))
		return err
	})
	assert.ErrorIs(t, err, badger.ErrKeyNotFound)
}

func TestBackend_ClosedAndCancelled(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = backend.View(ctx, func(tx *badger.Txn) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, backend.Close())
	err = backend.Update(context.Background(), func(tx *badger.Txn) error { return nil })
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
