package ledger

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// MemoryLedger is an in-process ledger used when no remote endpoint is
// configured, and throughout the tests.
type MemoryLedger struct {
	mu      sync.RWMutex
	records []Record

	// Signer is the fallback holder for submissions whose context
	// carries no submitter identity.
	Signer string
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) Count(ctx context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records), nil
}

func (l *MemoryLedger) RecordAt(ctx context.Context, index int) (Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 1 || index > len(l.records) {
		return Record{}, fmt.Errorf("ledger index %d out of range 1..%d", index, len(l.records))
	}
	return l.records[index-1], nil
}

func (l *MemoryLedger) Submit(ctx context.Context, name, description, contentRef string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	holder := submitter(ctx)
	if holder == "" {
		holder = l.Signer
	}
	rec := Record{
		ID:          strconv.Itoa(len(l.records) + 1),
		Name:        name,
		Description: description,
		ContentRef:  contentRef,
		Holder:      holder,
		Timestamp:   time.Now().UTC(),
	}
	l.records = append(l.records, rec)

	ref := make([]byte, 16)
	if _, err := rand.Read(ref); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(ref), nil
}

// Seed appends a record directly, bypassing Submit. Test helper.
func (l *MemoryLedger) Seed(rec Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if rec.ID == "" {
		rec.ID = strconv.Itoa(len(l.records) + 1)
	}
	l.records = append(l.records, rec)
}

// MemoryContentStore addresses content by its SHA-256, the way a
// content-addressable store would.
type MemoryContentStore struct {
	mu      sync.RWMutex
	content map[string][]byte
}

func NewMemoryContentStore() *MemoryContentStore {
	return &MemoryContentStore{content: make(map[string][]byte)}
}

func (s *MemoryContentStore) Put(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty content")
	}
	sum := sha256.Sum256(data)
	ref := "cas-" + hex.EncodeToString(sum[:])
	s.mu.Lock()
	s.content[ref] = append([]byte(nil), data...)
	s.mu.Unlock()
	return ref, nil
}

// Get returns stored content by reference. Test helper.
func (s *MemoryContentStore) Get(ref string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.content[ref]
	return data, ok
}
