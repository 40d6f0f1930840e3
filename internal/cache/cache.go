// Package cache provides the content-addressed store for generated card
// rewrites. Keys are deterministic hashes of the generation parameters, so
// repeating an identical rewrite request is a lookup instead of a model
// call.
//
// The cache is a plain lookup table: Get and Put are point operations with
// no transactional guarantee across concurrent writers. If two callers race
// to compute the same key, both may call the generator and the last Put
// wins; callers needing at-most-once compute must serialize per key
// themselves.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Key derives the deterministic cache key for one generation request. Any
// single field changing changes the key.
func Key(task, modelID, templateID, fillHash string, seed int) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%s|%s|%s|%d", task, modelID, templateID, fillHash, seed)))
	return hex.EncodeToString(sum[:])
}

// FillHash hashes the filled card text plus its descriptive tags into the
// fill-hash component of a cache key.
func FillHash(text string, tags []string) string {
	h := sha1.New()
	h.Write([]byte(text))
	for _, tag := range tags {
		h.Write([]byte{'|'})
		h.Write([]byte(tag))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Store is the persisted key/value backing for generated text.
type Store interface {
	// Get returns the text stored under key, and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Put stores text under key, overwriting any prior value.
	Put(ctx context.Context, key, text string) error
}

// entry is one cached rewrite.
type entry struct {
	text      string
	createdAt time.Time
}

// MemoryStore is an in-process Store. It backs tests and cache-disabled
// sessions.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e.text, ok, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, key, text string) error {
	s.mu.Lock()
	s.entries[key] = entry{text: text, createdAt: time.Now()}
	s.mu.Unlock()
	return nil
}

// Len returns the number of cached entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
