package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndRead(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rel, err := store.Save("batch-1/scores.xlsx", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, "batch-1/scores.xlsx", rel)

	data, err := store.Read(rel)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../outside.xlsx", "/etc/passwd", "", "a/../../b"} {
		_, err := store.Save(name, []byte("x"))
		assert.Error(t, err, name)
	}
}

func TestNewLocalStorageRequiresDirectory(t *testing.T) {
	_, err := NewLocalStorage("")
	assert.Error(t, err)
}
