// Package remote implements the remote replica adapter: an HTTP/JSON client
// for the per-user cloud document store, plus the auth calls around it.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
	"github.com/dmitrijs2005/bizkeeper/internal/common"
	"github.com/sethvargo/go-retry"
)

// Client talks to the BizKeeper server. It keeps the access/refresh token
// pair and transparently refreshes an expired access token once per request.
type Client struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// NewClient builds a Client for the given base URL, e.g. "http://127.0.0.1:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetTokens installs a token pair, e.g. one restored from the state store.
func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = access
	c.refreshToken = refresh
}

// Tokens returns the current token pair so the caller can persist it.
func (c *Client) Tokens() (access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// --- auth ---

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Register creates a new account on the server.
func (c *Client) Register(ctx context.Context, username, password string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/users/register",
		registerRequest{Username: username, Password: password}, nil)
}

// Login authenticates and returns the remote principal id. The token pair is
// stored on the client.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp loginResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/users/login",
		registerRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return "", err
	}
	c.SetTokens(resp.AccessToken, resp.RefreshToken)
	return resp.UserID, nil
}

// Ping checks server liveness.
func (c *Client) Ping(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/ping", nil, &resp); err != nil {
		return err
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (c *Client) refresh(ctx context.Context) error {
	c.mu.Lock()
	token := c.refreshToken
	c.mu.Unlock()
	if token == "" {
		return ErrUnauthorized
	}

	var resp loginResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/users/refresh",
		map[string]string{"refresh_token": token}, &resp)
	if err != nil {
		return err
	}
	c.SetTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

// --- replica adapter ---

type uploadRequest struct {
	Payload json.RawMessage `json:"payload"`
	Deleted bool            `json:"deleted"`
}

type uploadResponse struct {
	ServerTimestamp time.Time `json:"server_timestamp"`
}

type listResponse struct {
	Records []*models.RemoteRecord `json:"records"`
}

// Upload merge-upserts one record and returns the server-assigned write
// timestamp. Transient failures are retried with exponential backoff before
// being reported to the caller.
func (c *Client) Upload(ctx context.Context, collection models.Collection, rec *models.Record) (time.Time, error) {
	path := fmt.Sprintf("/api/collections/%s/records/%s",
		url.PathEscape(string(collection)), url.PathEscape(rec.ID))
	return c.upload(ctx, path, rec)
}

// UploadDocument is the fixed-key variant of Upload for singleton collections.
func (c *Client) UploadDocument(ctx context.Context, collection models.Collection, rec *models.Record) (time.Time, error) {
	path := fmt.Sprintf("/api/docs/%s", url.PathEscape(string(collection)))
	return c.upload(ctx, path, rec)
}

func (c *Client) upload(ctx context.Context, path string, rec *models.Record) (time.Time, error) {
	var resp uploadResponse
	err := c.withRetry(ctx, func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodPut, path,
			uploadRequest{Payload: rec.Payload, Deleted: rec.Deleted}, &resp)
	})
	if err != nil {
		return time.Time{}, err
	}
	return resp.ServerTimestamp, nil
}

// ListAll returns every remote record of the collection for the
// authenticated user.
func (c *Client) ListAll(ctx context.Context, collection models.Collection) ([]*models.RemoteRecord, error) {
	path := fmt.Sprintf("/api/collections/%s/records", url.PathEscape(string(collection)))

	var resp listResponse
	err := c.withRetry(ctx, func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodGet, path, nil, &resp)
	})
	if err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// GetDocument returns the singleton document or common.ErrorNotFound.
func (c *Client) GetDocument(ctx context.Context, collection models.Collection) (*models.RemoteRecord, error) {
	path := fmt.Sprintf("/api/docs/%s", url.PathEscape(string(collection)))

	var rec models.RemoteRecord
	err := c.withRetry(ctx, func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodGet, path, nil, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// --- attachments ---

type presignResponse struct {
	Key string `json:"key,omitempty"`
	URL string `json:"url"`
}

// PresignPut asks the server for a presigned PUT URL for a new attachment.
func (c *Client) PresignPut(ctx context.Context) (key, putURL string, err error) {
	var resp presignResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/attachments/presign-put", nil, &resp); err != nil {
		return "", "", err
	}
	return resp.Key, resp.URL, nil
}

// PresignGet asks the server for a presigned GET URL for an existing attachment.
func (c *Client) PresignGet(ctx context.Context, key string) (string, error) {
	path := "/api/attachments/presign-get?key=" + url.QueryEscape(key)

	var resp presignResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// --- plumbing ---

// withRetry retries transient (ErrUnavailable) failures a couple of times
// with exponential backoff; everything else fails through immediately.
func (c *Client) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if errors.Is(err, ErrUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// doJSON performs one request with the access token attached. On a
// token-expired response it refreshes once and replays the request, the same
// way the old interceptor-based client did.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	err := c.doJSONOnce(ctx, method, path, body, out)
	if !errors.Is(err, common.ErrTokenExpired) {
		return err
	}

	if err := c.refresh(ctx); err != nil {
		return ErrUnauthorized
	}
	return c.doJSONOnce(ctx, method, path, body, out)
}

func (c *Client) doJSONOnce(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.Lock()
	token := c.accessToken
	c.mu.Unlock()
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := c.mapStatus(resp); err != nil {
		return err
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) mapStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return common.ErrorNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Error == common.ErrTokenExpired.Error() {
			return common.ErrTokenExpired
		}
		return ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed: %s; body: %s", resp.Status, string(b))
	}
}
