package shipment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseSizeBytes = 2 << 20

// UpstashStore keeps the RedisStore layout but talks to Upstash Redis over its REST API.
type UpstashStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
	keyPrefix  string
	now        func() time.Time
}

var _ Store = (*UpstashStore)(nil)

type UpstashOption func(*UpstashStore)

func WithUpstashKeyPrefix(prefix string) UpstashOption {
	return func(s *UpstashStore) {
		if trimmed := strings.TrimSpace(prefix); trimmed != "" {
			s.keyPrefix = trimmed
		}
	}
}

func WithHTTPClient(client *http.Client) UpstashOption {
	return func(s *UpstashStore) {
		if client != nil {
			s.httpClient = client
		}
	}
}

type upstashResult struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

func NewUpstashStore(baseURL, token string, timeout time.Duration, opts ...UpstashOption) (*UpstashStore, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	store := &UpstashStore{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		keyPrefix:  defaultKeyPrefix,
		now:        nowUTC,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

func (s *UpstashStore) key(id string) string {
	return s.keyPrefix + id
}

func (s *UpstashStore) indexKey() string {
	return s.keyPrefix + "index"
}

func (s *UpstashStore) Create(ctx context.Context, in NewRecord) (Record, error) {
	rec, err := in.build(s.now())
	if err != nil {
		return Record{}, fmt.Errorf("%w: assign id: %v", ErrStoreWrite, err)
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("%w: marshal: %v", ErrStoreWrite, err)
	}

	// multi-exec runs both commands as one transaction.
	_, err = s.transaction(ctx,
		[]any{"SET", s.key(rec.ID), string(payload)},
		[]any{"ZADD", s.indexKey(), rec.CreatedAt.UnixNano(), rec.ID},
	)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	return rec, nil
}

func (s *UpstashStore) List(ctx context.Context) ([]Record, error) {
	resp, err := s.exec(ctx, []any{"ZREVRANGE", s.indexKey(), 0, -1})
	if err != nil {
		return nil, fmt.Errorf("%w: read index: %v", ErrStoreRead, err)
	}
	var ids []string
	if err := decodeResult(resp.Result, &ids); err != nil {
		return nil, fmt.Errorf("%w: decode index: %v", ErrStoreRead, err)
	}
	if len(ids) == 0 {
		return []Record{}, nil
	}

	cmd := make([]any, 0, len(ids)+1)
	cmd = append(cmd, "MGET")
	for _, id := range ids {
		cmd = append(cmd, s.key(id))
	}
	resp, err = s.exec(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("%w: read records: %v", ErrStoreRead, err)
	}
	var values []*string
	if err := decodeResult(resp.Result, &values); err != nil {
		return nil, fmt.Errorf("%w: decode records: %v", ErrStoreRead, err)
	}

	out := make([]Record, 0, len(values))
	for i, v := range values {
		if v == nil {
			return nil, fmt.Errorf("%w: record id=%s missing from index", ErrStoreRead, ids[i])
		}
		var rec Record
		if err := json.Unmarshal([]byte(*v), &rec); err != nil {
			return nil, fmt.Errorf("%w: decode id=%s: %v", ErrStoreRead, ids[i], err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// UpdateStatus rewrites the whole record with SET XX. Only the status field ever changes,
// so concurrent updates resolve to one of the written statuses.
func (s *UpstashStore) UpdateStatus(ctx context.Context, id string, status string) (Record, error) {
	id, status, err := validateStatus(id, status)
	if err != nil {
		return Record{}, err
	}

	key := s.key(id)
	resp, err := s.exec(ctx, []any{"GET", key})
	if err != nil {
		return Record{}, fmt.Errorf("%w: get: %v", ErrStoreRead, err)
	}
	var raw *string
	if err := decodeResult(resp.Result, &raw); err != nil {
		return Record{}, fmt.Errorf("%w: decode id=%s: %v", ErrStoreRead, id, err)
	}
	if raw == nil {
		return Record{}, fmt.Errorf("%w: id=%s", ErrRecordNotFound, id)
	}

	var updated Record
	if err := json.Unmarshal([]byte(*raw), &updated); err != nil {
		return Record{}, fmt.Errorf("%w: decode id=%s: %v", ErrStoreRead, id, err)
	}
	updated.Status = status
	payload, err := json.Marshal(updated)
	if err != nil {
		return Record{}, fmt.Errorf("%w: marshal: %v", ErrStoreWrite, err)
	}

	resp, err = s.exec(ctx, []any{"SET", key, string(payload), "XX"})
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	if isNull(resp.Result) {
		return Record{}, fmt.Errorf("%w: id=%s", ErrRecordNotFound, id)
	}
	return updated, nil
}

func (s *UpstashStore) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

func (s *UpstashStore) exec(ctx context.Context, command []any) (*upstashResult, error) {
	if len(command) == 0 {
		return nil, errors.New("empty redis command")
	}
	var parsed upstashResult
	if err := s.post(ctx, s.baseURL, command, &parsed); err != nil {
		return nil, err
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}

func (s *UpstashStore) transaction(ctx context.Context, commands ...[]any) ([]upstashResult, error) {
	var parsed []upstashResult
	if err := s.post(ctx, s.baseURL+"/multi-exec", commands, &parsed); err != nil {
		return nil, err
	}
	if len(parsed) != len(commands) {
		return nil, fmt.Errorf("redis transaction returned %d results for %d commands", len(parsed), len(commands))
	}
	for i, r := range parsed {
		if r.Error != "" {
			return nil, fmt.Errorf("redis transaction command %d: %s", i, r.Error)
		}
	}
	return parsed, nil
}

func (s *UpstashStore) post(ctx context.Context, endpoint string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return fmt.Errorf("read redis response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode redis response: %w", err)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeResult(raw json.RawMessage, out any) error {
	if isNull(raw) {
		return nil
	}
	return json.Unmarshal(raw, out)
}
