package trie

import (
	"testing"

	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabasePutGetHas(t *testing.T) {
	db := NewMemoryDatabase()

	key, value := []byte("key"), []byte("value")
	ok, err := db.Has(key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.Put(key, value))

	ok, err = db.Has(key)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := db.Get(key)
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

func TestDatabaseCachesReads(t *testing.T) {
	db := NewDatabase(memorydb.New(), Config{CleanCacheSize: 1024})

	key, value := []byte("cached"), []byte("payload")
	require.NoError(t, db.Put(key, value))

	// First read populates nothing new (Put already warmed the cache);
	// a second read must still return the identical bytes.
	got1, err := db.Get(key)
	require.NoError(t, err)
	got2, err := db.Get(key)
	require.NoError(t, err)
	assert.Equal(t, got1, got2)
	assert.Equal(t, value, got1)
}

func TestDatabaseWriteReadRoot(t *testing.T) {
	db := NewMemoryDatabase()

	got, err := db.ReadRoot("head")
	require.NoError(t, err)
	assert.Nil(t, got)

	root := []byte{1, 2, 3, 4}
	require.NoError(t, db.WriteRoot("head", root))

	got, err = db.ReadRoot("head")
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestDatabaseWriteRootNamesAreIndependent(t *testing.T) {
	db := NewMemoryDatabase()

	require.NoError(t, db.WriteRoot("a", []byte{0xaa}))
	require.NoError(t, db.WriteRoot("b", []byte{0xbb}))

	gotA, err := db.ReadRoot("a")
	require.NoError(t, err)
	gotB, err := db.ReadRoot("b")
	require.NoError(t, err)

	assert.Equal(t, []byte{0xaa}, gotA)
	assert.Equal(t, []byte{0xbb}, gotB)
}

