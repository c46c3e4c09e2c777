package table

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/dasdy/turismo/model"
)

type cacheEntry struct {
	table  *model.Table
	loaded time.Time
}

// Cache memoizes loaded tables by the content of the uploaded file.
type Cache struct {
	tables map[string]cacheEntry
	lock   sync.RWMutex
	now    func() time.Time
}

func NewCache() *Cache {
	return &Cache{tables: make(map[string]cacheEntry), now: time.Now}
}

// Key identifies a file by the SHA-256 of its content.
func Key(data []byte) string {
	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}

// Load parses data unless a file with the same content was loaded before. Either way the
// table counts as loaded now for Retain.
func (c *Cache) Load(data []byte) (string, *model.Table, error) {
	key := Key(data)

	if t, ok := c.touch(key); ok {
		slog.Debug("Table cache hit", "key", key)

		return key, t, nil
	}

	t, err := Load(bytes.NewReader(data))
	if err != nil {
		return "", nil, err
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	// another upload of the same file may have won the race
	if existing, ok := c.tables[key]; ok {
		return key, existing.table, nil
	}

	c.tables[key] = cacheEntry{table: t, loaded: c.now()}
	slog.Info("Loaded table", "key", key, "rows", len(t.Rows), "columns", len(t.Columns))

	return key, t, nil
}

func (c *Cache) touch(key string) (*model.Table, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	e, ok := c.tables[key]
	if !ok {
		return nil, false
	}

	e.loaded = c.now()
	c.tables[key] = e

	return e.table, true
}

func (c *Cache) Get(key string) (*model.Table, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	e, ok := c.tables[key]

	return e.table, ok
}

// Retain evicts the tables loaded before the cutoff that none of keys refers to. Tables
// loaded after the cutoff may belong to an upload that is not attached yet and are kept.
func (c *Cache) Retain(keys []string, before time.Time) int {
	referenced := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		referenced[k] = struct{}{}
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	evicted := 0

	for key, e := range c.tables {
		if _, ok := referenced[key]; ok || !e.loaded.Before(before) {
			continue
		}

		delete(c.tables, key)
		evicted++
	}

	if evicted > 0 {
		slog.Info("Evicted tables", "count", evicted, "remaining", len(c.tables))
	}

	return evicted
}

func (c *Cache) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return len(c.tables)
}
