package shipment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// RedisStore keeps each record as a JSON value plus a sorted-set index scored by creation time.
type RedisStore struct {
	client    *backend.Client
	keyPrefix string
	now       func() time.Time
}

var _ Store = (*RedisStore)(nil)

const maxUpdateAttempts = 100

type RedisOption func(*RedisStore)

func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if trimmed := strings.TrimSpace(prefix); trimmed != "" {
			s.keyPrefix = trimmed
		}
	}
}

func NewRedisStore(addr, password string, db int, opts ...RedisOption) (*RedisStore, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("redis address is required")
	}
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreFromClient(client, opts...), nil
}

func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	store := &RedisStore{
		client:    client,
		keyPrefix: defaultKeyPrefix,
		now:       nowUTC,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

func (s *RedisStore) key(id string) string {
	return s.keyPrefix + id
}

func (s *RedisStore) indexKey() string {
	return s.keyPrefix + "index"
}

func (s *RedisStore) Create(ctx context.Context, in NewRecord) (Record, error) {
	rec, err := in.build(s.now())
	if err != nil {
		return Record{}, fmt.Errorf("%w: assign id: %v", ErrStoreWrite, err)
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("%w: marshal: %v", ErrStoreWrite, err)
	}

	// MULTI/EXEC keeps the body and its index entry together.
	_, err = s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Set(ctx, s.key(rec.ID), payload, 0)
		pipe.ZAdd(ctx, s.indexKey(), backend.Z{
			Score:  float64(rec.CreatedAt.UnixNano()),
			Member: rec.ID,
		})
		return nil
	})
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	return rec, nil
}

func (s *RedisStore) List(ctx context.Context) ([]Record, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: read index: %v", ErrStoreRead, err)
	}
	if len(ids) == 0 {
		return []Record{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.key(id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: read records: %v", ErrStoreRead, err)
	}

	out := make([]Record, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: record id=%s missing from index", ErrStoreRead, ids[i])
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("%w: decode id=%s: %v", ErrStoreRead, ids[i], err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RedisStore) UpdateStatus(ctx context.Context, id string, status string) (Record, error) {
	id, status, err := validateStatus(id, status)
	if err != nil {
		return Record{}, err
	}

	key := s.key(id)
	var updated Record
	update := func(tx *backend.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if errors.Is(err, backend.Nil) {
			return fmt.Errorf("%w: id=%s", ErrRecordNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("%w: get: %v", ErrStoreRead, err)
		}
		if err := json.Unmarshal([]byte(raw), &updated); err != nil {
			return fmt.Errorf("%w: decode id=%s: %v", ErrStoreRead, id, err)
		}
		updated.Status = status

		payload, err := json.Marshal(updated)
		if err != nil {
			return fmt.Errorf("%w: marshal: %v", ErrStoreWrite, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		if errors.Is(err, backend.TxFailedErr) {
			return err
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreWrite, err)
		}
		return nil
	}

	// A concurrent writer on the same key aborts the transaction; retry with a fresh read.
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err = s.client.Watch(ctx, update, key)
		if !errors.Is(err, backend.TxFailedErr) {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Record{}, fmt.Errorf("%w: %v", ErrStoreWrite, ctxErr)
		}
	}
	if errors.Is(err, backend.TxFailedErr) {
		return Record{}, fmt.Errorf("%w: id=%s: %v", ErrStoreWrite, id, err)
	}
	if err != nil {
		return Record{}, err
	}
	return updated, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
