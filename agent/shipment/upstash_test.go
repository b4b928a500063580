package shipment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newUpstashREST serves the Upstash REST protocol on top of miniredis.
func newUpstashREST(t *testing.T, token string) *httptest.Server {
	t.Helper()

	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	run := func(ctx context.Context, command []any) map[string]any {
		result, err := client.Do(ctx, command...).Result()
		if errors.Is(err, backend.Nil) {
			return map[string]any{"result": nil}
		}
		if err != nil {
			return map[string]any{"error": err.Error()}
		}
		return map[string]any{"result": result}
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/multi-exec":
			var commands [][]any
			if err := dec.Decode(&commands); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			out := make([]map[string]any, 0, len(commands))
			for _, c := range commands {
				out = append(out, run(r.Context(), numbersAsStrings(c)))
			}
			_ = json.NewEncoder(w).Encode(out)
		default:
			var command []any
			if err := dec.Decode(&command); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(run(r.Context(), numbersAsStrings(command)))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func numbersAsStrings(command []any) []any {
	out := make([]any, len(command))
	for i, v := range command {
		if n, ok := v.(json.Number); ok {
			out[i] = n.String()
			continue
		}
		out[i] = v
	}
	return out
}

func TestUpstashStoreContract(t *testing.T) {
	t.Parallel()

	runStoreContract(t, func(t *testing.T) Store {
		server := newUpstashREST(t, "token")
		store, err := NewUpstashStore(server.URL, "token", 0,
			WithHTTPClient(server.Client()),
			WithUpstashKeyPrefix("test:shipment:"),
		)
		require.NoError(t, err)
		return store
	})
}

func TestNewUpstashStoreValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := NewUpstashStore("  ", "token", 0)
	assert.Error(t, err)
	_, err = NewUpstashStore("://bad", "token", 0)
	assert.Error(t, err)
	_, err = NewUpstashStore("https://example.upstash.io", " ", 0)
	assert.Error(t, err)
}

func TestUpstashStoreRejectedToken(t *testing.T) {
	t.Parallel()

	server := newUpstashREST(t, "token")
	store, err := NewUpstashStore(server.URL, "wrong", 0, WithHTTPClient(server.Client()))
	require.NoError(t, err)

	_, err = store.List(context.Background())
	assert.True(t, errors.Is(err, ErrStoreRead), "got %v", err)
	_, err = store.Create(context.Background(), NewRecord{Origin: "A", Destination: "B", Weight: "1kg", Item: "x"})
	assert.True(t, errors.Is(err, ErrStoreWrite), "got %v", err)
}

func TestUpstashStoreCreateUsesTransaction(t *testing.T) {
	t.Parallel()

	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`[{"result":"OK"},{"result":1}]`))
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashStore(server.URL, "token", 0, WithHTTPClient(server.Client()))
	require.NoError(t, err)

	rec, err := store.Create(context.Background(), NewRecord{Origin: "A", Destination: "B", Weight: "1kg", Item: "x"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, []string{"/multi-exec"}, paths)
}
