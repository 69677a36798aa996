// Package cache stores compile results keyed by IR content and options.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/tamaranga/zephir/compiler"
)

var log = commonlog.GetLogger("zephir.cache")

// cborEncMode encodes canonically so equal inputs hash to equal keys.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cache: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// keyInput is what a cache key is computed over.
type keyInput struct {
	Source  []byte           `cbor:"1,keyasint"`
	Options compiler.Options `cbor:"2,keyasint"`
}

// Key returns the cache key of compiling source with opts.
func Key(source []byte, opts compiler.Options) (string, error) {
	data, err := cborEncMode.Marshal(keyInput{Source: source, Options: opts})
	if err != nil {
		return "", fmt.Errorf("cache: encode key: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Cache is a SQLite-backed store of compile results.
type Cache struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Open opens (creating if needed) the cache database at dbPath.
func Open(dbPath string) (*Cache, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS results (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Cache{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Get returns the results stored under key. The boolean is false on a miss.
func (c *Cache) Get(key string) ([]*compiler.Result, bool, error) {
	var data []byte
	err := c.db.QueryRow("SELECT data FROM results WHERE key = ?", key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("querying result: %w", err)
	}

	var results []*compiler.Result
	if err := cbor.Unmarshal(data, &results); err != nil {
		return nil, false, fmt.Errorf("cache: unmarshal result: %w", err)
	}
	log.Debugf("hit %s", key)
	return results, true, nil
}

// Put stores results under key, replacing any previous entry.
func (c *Cache) Put(key string, results []*compiler.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := cborEncMode.Marshal(results)
	if err != nil {
		return fmt.Errorf("cache: marshal result: %w", err)
	}
	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO results (key, data, created_at) VALUES (?, ?, ?)",
		key, data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving result: %w", err)
	}
	return nil
}

// Len returns the number of stored entries.
func (c *Cache) Len() (int, error) {
	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM results").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting results: %w", err)
	}
	return n, nil
}
