// Package netx provides connectivity probing for the sync engine. The mutation
// watcher consults a Prober before scheduling a push so that edits made while
// offline park in the offline-pending state instead of failing a network call.
package netx

import (
	"context"
	"net/http"
	"time"
)

// Prober reports whether the remote backend is currently reachable.
type Prober interface {
	Online(ctx context.Context) bool
}

// HTTPProber probes a ping endpoint with a short GET request.
type HTTPProber struct {
	pingURL string
	client  *http.Client
}

// NewHTTPProber returns a prober for the given ping URL. A zero timeout
// defaults to 3 seconds.
func NewHTTPProber(pingURL string, timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPProber{
		pingURL: pingURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProber) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.pingURL, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ProberFunc adapts a function to the Prober interface. Handy in tests and for
// wiring a static "always online" probe.
type ProberFunc func(ctx context.Context) bool

func (f ProberFunc) Online(ctx context.Context) bool { return f(ctx) }
