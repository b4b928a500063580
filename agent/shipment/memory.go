package shipment

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	index   map[string]int
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		index: make(map[string]int, 16),
		now:   nowUTC,
	}
}

func (s *MemoryStore) Create(ctx context.Context, in NewRecord) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// identity is assigned under the lock so slice order matches creation time
	rec, err := in.build(s.now())
	if err != nil {
		return Record{}, fmt.Errorf("%w: assign id: %v", ErrStoreWrite, err)
	}
	s.index[rec.ID] = len(s.records)
	s.records = append(s.records, rec)
	return rec, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreRead, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for i := len(s.records) - 1; i >= 0; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, status string) (Record, error) {
	id, status, err := validateStatus(id, status)
	if err != nil {
		return Record{}, err
	}
	if err := ctx.Err(); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.index[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: id=%s", ErrRecordNotFound, id)
	}
	s.records[idx].Status = status
	return s.records[idx], nil
}

func (s *MemoryStore) Close() error {
	return nil
}
