package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/mpopescu/autochecks/internal/client/models"
	"github.com/mpopescu/autochecks/internal/common"
)

// HTTPClient talks to the backend's JSON API. It holds the access/refresh
// token pair and transparently refreshes once when the server reports an
// expired access token, mirroring the behavior users expect from a
// long-running device session.
type HTTPClient struct {
	baseURL string
	httpc   *http.Client

	mu      sync.Mutex
	session Session
}

// NewHTTPClient returns a client for the backend at baseURL
// (e.g. "http://127.0.0.1:8080").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// apiError is the JSON error body returned by the backend.
type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	AccountID    string `json:"account_id"`
	Email        string `json:"email"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type accountResponse struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
}

type uploadRequest struct {
	Payload json.RawMessage `json:"payload"`
}

type uploadResponse struct {
	UpdatedAt time.Time `json:"updated_at"`
}

// Session returns a copy of the current session.
func (c *HTTPClient) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// SetSession installs a session, e.g. one restored from settings.
func (c *HTTPClient) SetSession(s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

func (c *HTTPClient) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = Session{}
}

func (c *HTTPClient) Register(ctx context.Context, email, password string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/register", credentialsRequest{Email: email, Password: password}, nil, false)
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", credentialsRequest{Email: email, Password: password}, &resp, false); err != nil {
		return nil, err
	}
	s := Session{
		AccountID:    resp.AccountID,
		Email:        resp.Email,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}
	c.SetSession(s)
	return &s, nil
}

func (c *HTTPClient) CurrentAccountID(ctx context.Context) (string, error) {
	if c.Session().AccessToken == "" {
		return "", fmt.Errorf("%w: not signed in", ErrUnauthorized)
	}
	var resp accountResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, &resp, true); err != nil {
		return "", err
	}
	return resp.AccountID, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/v1/ping", nil, nil, false)
}

func (c *HTTPClient) FetchSnapshot(ctx context.Context) (*models.SnapshotRow, error) {
	var row models.SnapshotRow
	err := c.do(ctx, http.MethodGet, "/api/v1/snapshot", nil, &row, true)
	if errors.Is(err, errSnapshotNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (c *HTTPClient) UploadSnapshot(ctx context.Context, payload json.RawMessage) (time.Time, error) {
	var resp uploadResponse
	if err := c.do(ctx, http.MethodPut, "/api/v1/snapshot", uploadRequest{Payload: payload}, &resp, true); err != nil {
		return time.Time{}, err
	}
	return resp.UpdatedAt, nil
}

// refresh exchanges the refresh token for a new token pair. Caller must not
// hold c.mu.
func (c *HTTPClient) refresh(ctx context.Context) error {
	s := c.Session()
	if s.RefreshToken == "" {
		return fmt.Errorf("%w: no refresh token", ErrUnauthorized)
	}
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/refresh", refreshRequest{RefreshToken: s.RefreshToken}, &resp, false); err != nil {
		return err
	}
	s.AccessToken = resp.AccessToken
	s.RefreshToken = resp.RefreshToken
	c.SetSession(s)
	return nil
}

// do performs one request, refreshing the access token once when the server
// reports it expired.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any, auth bool) error {
	status, code, err := c.doOnce(ctx, method, path, body, out, auth)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized && code == common.CodeTokenExpired && auth {
		if err := c.refresh(ctx); err != nil {
			return err
		}
		status, code, err = c.doOnce(ctx, method, path, body, out, auth)
		if err != nil {
			return err
		}
	}
	return c.mapStatus(status, code)
}

// doOnce issues the request and decodes either the success body into out or
// the error body into (status, code). Transport-level failures map to
// ErrOffline here, in one place.
func (c *HTTPClient) doOnce(ctx context.Context, method, path string, body, out any, auth bool) (int, string, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, "", fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+c.Session().AccessToken)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrOffline, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return 0, "", fmt.Errorf("%w: %v", ErrMalformedData, err)
			}
		}
		return resp.StatusCode, "", nil
	}

	var apiErr apiError
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)
	return resp.StatusCode, apiErr.Code, nil
}

// errSnapshotNotFound marks a 404 so FetchSnapshot can turn it into a nil row.
var errSnapshotNotFound = errors.New("snapshot not found")

// mapStatus converts a non-2xx response into a sentinel error.
func (c *HTTPClient) mapStatus(status int, code string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return errSnapshotNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w (%s)", ErrUnauthorized, codeOr(code, "no session"))
	case status == http.StatusBadRequest && code == common.CodeMalformedPayload:
		return fmt.Errorf("%w: rejected by server", ErrMalformedData)
	default:
		return fmt.Errorf("%w: status %d (%s)", ErrRemote, status, codeOr(code, "unknown"))
	}
}

func codeOr(code, fallback string) string {
	if code != "" {
		return code
	}
	return fallback
}
