package netqueue

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpopescu/autochecks/internal/client/store"
	"github.com/mpopescu/autochecks/internal/logging"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	return NewQueue(newTestDB(t), logging.NewText(io.Discard))
}

func TestQueue_EnqueueAndCount(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	n, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, q.Enqueue(ctx, http.MethodPut, "http://example.com/a", nil, []byte(`{}`)))
	require.NoError(t, q.Enqueue(ctx, http.MethodPut, "http://example.com/b",
		map[string]string{"Authorization": "Bearer t"}, []byte(`{}`)))

	n, err = q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestQueue_FlushDeliversInOrder(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	var mu sync.Mutex
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = append(got, r.URL.Path)
		mu.Unlock()
		assert.Equal(t, "Bearer t", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	hdr := map[string]string{"Authorization": "Bearer t"}
	require.NoError(t, q.Enqueue(ctx, http.MethodPut, srv.URL+"/first", hdr, []byte(`{}`)))
	time.Sleep(2 * time.Millisecond) // distinct created_at ordering
	require.NoError(t, q.Enqueue(ctx, http.MethodPut, srv.URL+"/second", hdr, []byte(`{}`)))

	delivered, err := q.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, delivered)
	assert.Equal(t, []string{"/first", "/second"}, got)

	n, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "delivered requests leave the queue")
}

func TestQueue_RejectedRequestIsDropped(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, q.Enqueue(ctx, http.MethodPut, srv.URL+"/bad", nil, []byte(`{}`)))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, q.Enqueue(ctx, http.MethodPut, srv.URL+"/good", nil, []byte(`{}`)))

	_, err := q.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "a 4xx must not be retried and must not block the rest")

	n, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "rejected requests are dropped, not wedged")
}

func TestQueue_NetworkFailureStopsFlush(t *testing.T) {
	q := newTestQueue(t)

	// A server that is already gone: connection refused on every attempt.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := srv.URL
	srv.Close()

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, http.MethodPut, deadURL+"/a", nil, []byte(`{}`)))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, q.Enqueue(ctx, http.MethodPut, deadURL+"/b", nil, []byte(`{}`)))

	// Bound the backoff so the test does not sit through the full schedule.
	flushCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()

	delivered, err := q.Flush(flushCtx)
	require.Error(t, err)
	assert.Zero(t, delivered)

	n, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "undelivered requests stay queued for the next flush")
}

func TestQueue_ServerErrorIsRetried(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, q.Enqueue(ctx, http.MethodPut, srv.URL+"/a", nil, []byte(`{}`)))

	delivered, err := q.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 2, calls, "a 5xx is retried")
}
