package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Fixed keys of the two persisted streams.
const (
	EventsKey   = "tracked_events"
	UserLogsKey = "user_logs"
)

// DefaultCapacity is the number of records kept per persisted stream.
const DefaultCapacity = 100

// Store persists the tracker streams as capped, append-only lists of JSON records.
type Store interface {
	// Append adds record to the list under key, keeping only the last limit records.
	// A limit <= 0 keeps everything.
	Append(ctx context.Context, key string, record []byte, limit int) error
	// Load returns the list under key, oldest first. A missing key is an empty list.
	Load(ctx context.Context, key string) ([]json.RawMessage, error)
	Remove(ctx context.Context, keys ...string) error
}

// KeyValue is a plain string key-value surface such as browser local storage.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

// KVStore keeps each stream as one JSON array value inside a KeyValue.
//
// Appends are a whole-value read-modify-write. They are serialized inside one
// process, but two processes sharing the same KeyValue can lose writes.
type KVStore struct {
	mu sync.Mutex
	kv KeyValue
}

// NewKVStore wraps a KeyValue surface.
func NewKVStore(kv KeyValue) *KVStore {
	return &KVStore{kv: kv}
}

func (s *KVStore) Append(ctx context.Context, key string, record []byte, limit int) error {
	if !json.Valid(record) {
		return fmt.Errorf("append %s: record is not valid json", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx, key)
	if err != nil {
		// a corrupt value is replaced rather than blocking every later append
		records = nil
	}

	records = append(records, json.RawMessage(record))
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}

	encoded, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	return s.kv.Set(ctx, key, string(encoded))
}

func (s *KVStore) Load(ctx context.Context, key string) ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx, key)
}

func (s *KVStore) Remove(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.kv.Remove(ctx, keys...)
}

func (s *KVStore) load(ctx context.Context, key string) ([]json.RawMessage, error) {
	value, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok || value == "" {
		return []json.RawMessage{}, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal([]byte(value), &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if records == nil {
		records = []json.RawMessage{}
	}

	return records, nil
}

// MemoryKV is an in-process KeyValue.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKV creates an empty in-process KeyValue.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	return value, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

func (m *MemoryKV) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}
