package trie

import (
	"fmt"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/log"
)

// Store is the narrow blob-store interface the trie core depends on
// (spec component F / §6's "Store interface"). Keys are 32-byte
// Keccak-256 digests; values are node serializations.
type Store interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Has(key []byte) (bool, error)
}

// rootPrefix namespaces named root pointers away from node blobs in
// the same key-value space, mirroring go-ethereum's rawdb convention
// of reserved-prefix singleton keys.
var rootPrefix = []byte("mpt-root-")

// Config tunes the ambient concerns of Database. The zero value is a
// valid, if cacheless, configuration.
type Config struct {
	// CleanCacheSize is the size, in bytes, of the read-through cache
	// of raw node blobs. Zero disables caching.
	CleanCacheSize int
}

// DefaultConfig matches the modest defaults a single trie instance
// needs; callers embedding many tries should size this down.
var DefaultConfig = Config{CleanCacheSize: 16 * 1024 * 1024}

// Database is the default Store implementation (spec component F),
// wrapping any ethdb.KeyValueStore - go-ethereum's own storage
// interface - with a fastcache-backed read-through cache (component
// H), mirroring real go-ethereum's triedb clean-node cache.
type Database struct {
	diskdb ethdb.KeyValueStore
	clean  *fastcache.Cache
}

// NewDatabase wraps an existing ethdb.KeyValueStore. Passing a nil or
// zero Config disables the read-through cache.
func NewDatabase(diskdb ethdb.KeyValueStore, cfg Config) *Database {
	db := &Database{diskdb: diskdb}
	if cfg.CleanCacheSize > 0 {
		db.clean = fastcache.New(cfg.CleanCacheSize)
	}
	return db
}

// NewMemoryDatabase returns a Database backed by an in-memory
// ethdb.KeyValueStore, handy for tests and ephemeral tries.
func NewMemoryDatabase() *Database {
	return NewDatabase(memorydb.New(), DefaultConfig)
}

// Get implements Store.
func (db *Database) Get(key []byte) ([]byte, error) {
	if db.clean != nil {
		if blob, ok := db.clean.HasGet(nil, key); ok {
			return blob, nil
		}
	}
	blob, err := db.diskdb.Get(key)
	if err != nil {
		return nil, err
	}
	if db.clean != nil {
		db.clean.Set(key, blob)
	}
	return blob, nil
}

// Put implements Store. Writes are idempotent: content-addressed keys
// never legitimately change value, so a second write of the same key
// is a harmless no-op overwrite.
func (db *Database) Put(key, value []byte) error {
	if db.clean != nil {
		db.clean.Set(key, value)
	}
	if err := db.diskdb.Put(key, value); err != nil {
		log.Debug("trie: failed to persist node", "key", fmt.Sprintf("%x", key), "err", err)
		return err
	}
	return nil
}

// Has implements Store.
func (db *Database) Has(key []byte) (bool, error) {
	if db.clean != nil {
		if _, ok := db.clean.HasGet(nil, key); ok {
			return true, nil
		}
	}
	return db.diskdb.Has(key)
}

// WriteRoot persists a named root reference (spec component F's
// "single root_hash handle pointing at the current top node") under a
// reserved key, so a later process can recover a trie's head without
// an out-of-band channel.
func (db *Database) WriteRoot(name string, root []byte) error {
	return db.diskdb.Put(append(append([]byte{}, rootPrefix...), name...), root)
}

// ReadRoot recovers a root reference previously persisted by
// WriteRoot. It returns a nil slice, not an error, when no such name
// has ever been written - an absent named root is a normal "not set
// yet" state, not a data-integrity problem.
func (db *Database) ReadRoot(name string) ([]byte, error) {
	key := append(append([]byte{}, rootPrefix...), name...)
	ok, err := db.diskdb.Has(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return db.diskdb.Get(key)
}

// Close releases the underlying disk store.
func (db *Database) Close() error {
	return db.diskdb.Close()
}
