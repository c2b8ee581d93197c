// Package netqueue persists HTTP requests that could not be delivered while
// the device was offline and replays them once connectivity returns. The
// queue survives restarts: rows live in the client database next to the
// collections they describe.
package netqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/mpopescu/autochecks/internal/dbx"
	"github.com/mpopescu/autochecks/internal/logging"
)

// Request is one queued HTTP call.
type Request struct {
	ID        string
	Method    string
	URL       string
	Headers   map[string]string
	Body      []byte
	CreatedAt int64
}

// Queue stores and replays requests in arrival order.
type Queue struct {
	db     dbx.DBTX
	httpc  *http.Client
	logger logging.Logger
}

func NewQueue(db dbx.DBTX, logger logging.Logger) *Queue {
	return &Queue{
		db:     db,
		httpc:  &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

// Enqueue stores a request for later delivery.
func (q *Queue) Enqueue(ctx context.Context, method, url string, headers map[string]string, body []byte) error {
	if headers == nil {
		headers = map[string]string{}
	}
	hdr, err := json.Marshal(headers)
	if err != nil {
		return fmt.Errorf("error encoding headers: %w", err)
	}

	query := `INSERT INTO queued_requests (id, method, url, headers, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?);`
	_, err = q.db.ExecContext(ctx, query,
		uuid.NewString(), method, url, string(hdr), body, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("error enqueueing request: %w", err)
	}
	return nil
}

// Count returns the number of requests waiting for delivery.
func (q *Queue) Count(ctx context.Context) (int, error) {
	var n int
	row := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM queued_requests;")
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (q *Queue) pending(ctx context.Context) ([]Request, error) {
	query := `SELECT id, method, url, headers, body, created_at
		FROM queued_requests ORDER BY created_at, id;`
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Request
	for rows.Next() {
		var r Request
		var hdr string
		if err := rows.Scan(&r.ID, &r.Method, &r.URL, &hdr, &r.Body, &r.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(hdr), &r.Headers); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (q *Queue) delete(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM queued_requests WHERE id = ?;", id)
	return err
}

// Flush replays queued requests in order. Each request is retried with
// exponential backoff; a request the server rejects outright is dropped so it
// cannot wedge the queue, while a network failure stops the flush and leaves
// the remainder queued for the next attempt. Returns the number delivered.
func (q *Queue) Flush(ctx context.Context) (int, error) {
	reqs, err := q.pending(ctx)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, r := range reqs {
		if err := q.send(ctx, r); err != nil {
			q.logger.Warn(ctx, "queue flush stopped", "id", r.ID, "error", err)
			return delivered, err
		}
		if err := q.delete(ctx, r.ID); err != nil {
			return delivered, err
		}
		delivered++
	}
	return delivered, nil
}

func (q *Queue) send(ctx context.Context, r Request) error {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, bytes.NewReader(r.Body))
		if err != nil {
			return err
		}
		for k, v := range r.Headers {
			req.Header.Set(k, v)
		}

		resp, err := q.httpc.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("server returned %d", resp.StatusCode))
		default:
			// The server refused the request; retrying cannot help, drop it.
			q.logger.Warn(ctx, "dropping rejected queued request",
				"id", r.ID, "status", resp.StatusCode)
			return nil
		}
	})
}
