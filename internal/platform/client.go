package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNotFound marks a named remote series or file that does not exist.
	// Expected and frequent: an unmapped plant-name join between the two
	// data sources surfaces as this error.
	ErrNotFound = errors.New("platform: not found")
	// ErrAggregation marks a rejected aggregation request (e.g. malformed
	// payload). Callers catch it narrowly and treat the combination as
	// missing data.
	ErrAggregation = errors.New("platform: aggregation rejected")
)

// Client is a minimal REST client for the external data platform. It owns
// a long-lived session token and re-authenticates when the token is close
// to expiry. Safe for concurrent use.
type Client struct {
	baseURL  string
	username string
	password string
	client   *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewClient constructs a platform client. Login is deferred until the
// first call (or an explicit Login).
func NewClient(baseURL, username, password string) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("platform: empty base url")
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		client:   &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Points is a raw point series: parallel timestamp/value slices as
// returned by the platform. Timestamp scale (seconds vs milliseconds)
// depends on the series family and is not interpreted here.
type Points struct {
	Timestamps []int64   `json:"timestamps"`
	Values     []float64 `json:"values"`
}

// SeriesHandle references a remote series by id.
type SeriesHandle struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Login authenticates and stores the session token. Losing the platform
// entirely is unrecoverable for a run; callers abort with a clear message.
func (c *Client) Login(ctx context.Context) error {
	body := map[string]string{"username": c.username, "password": c.password}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &resp, false); err != nil {
		return fmt.Errorf("platform: login: %w", err)
	}
	if resp.Token == "" {
		return errors.New("platform: login returned empty token")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = resp.Token
	c.expiry = tokenExpiry(resp.Token)
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// platform signed the token, the client only schedules re-login from it.
func tokenExpiry(token string) time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func (c *Client) ensureSession(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	expiry := c.expiry
	c.mu.Unlock()
	if token != "" && (expiry.IsZero() || time.Until(expiry) > time.Minute) {
		return nil
	}
	return c.Login(ctx)
}

// FindSeries resolves a series handle by exact name. A missing series is
// ErrNotFound, never a transport error.
func (c *Client) FindSeries(ctx context.Context, name string) (SeriesHandle, error) {
	if name == "" {
		return SeriesHandle{}, errors.New("platform: empty series name")
	}
	if err := c.ensureSession(ctx); err != nil {
		return SeriesHandle{}, err
	}
	var resp []SeriesHandle
	path := "/api/timeseries?name=" + url.QueryEscape(name)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
		return SeriesHandle{}, err
	}
	if len(resp) == 0 {
		return SeriesHandle{}, ErrNotFound
	}
	return resp[0], nil
}

// GetPoints fetches raw points for a series id over a time window.
func (c *Client) GetPoints(ctx context.Context, id string, start, end time.Time, typeHint string) (Points, error) {
	if id == "" {
		return Points{}, errors.New("platform: empty series id")
	}
	if err := c.ensureSession(ctx); err != nil {
		return Points{}, err
	}
	q := url.Values{}
	q.Set("start", start.Format(time.RFC3339))
	q.Set("end", end.Format(time.RFC3339))
	if typeHint != "" {
		q.Set("tstype", typeHint)
	}
	var resp Points
	path := fmt.Sprintf("/api/timeseries/%s/points?%s", url.PathEscape(id), q.Encode())
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
		return Points{}, err
	}
	return resp, nil
}

// AggregateSum asks the platform to sum a group of series over a window,
// returning the summed series. A rejected request (HTTP 422) surfaces as
// ErrAggregation with the platform's message attached.
func (c *Client) AggregateSum(ctx context.Context, names []string, start, end time.Time) (Points, error) {
	if len(names) == 0 {
		return Points{}, errors.New("platform: empty aggregation group")
	}
	if err := c.ensureSession(ctx); err != nil {
		return Points{}, err
	}
	body := map[string]any{
		"timeseries": names,
		"start":      start.Format(time.RFC3339),
		"end":        end.Format(time.RFC3339),
	}
	var resp struct {
		Sum Points `json:"timeseries_sum"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/timeseries/aggregate/sum", body, &resp, true); err != nil {
		return Points{}, err
	}
	if len(resp.Sum.Timestamps) == 0 {
		return Points{}, ErrNotFound
	}
	return resp.Sum, nil
}

// DownloadFile fetches a platform file into destDir, returning the local
// path. An already-downloaded file is reused without a content request.
func (c *Client) DownloadFile(ctx context.Context, fileID, destDir string) (string, error) {
	if fileID == "" {
		return "", errors.New("platform: empty file id")
	}
	if err := c.ensureSession(ctx); err != nil {
		return "", err
	}
	var meta struct {
		Name string `json:"name"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/files/"+url.PathEscape(fileID), nil, &meta, true); err != nil {
		return "", err
	}
	if meta.Name == "" {
		return "", fmt.Errorf("platform: file %s has no name", fileID)
	}
	dest := filepath.Join(destDir, meta.Name)
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/api/files/"+url.PathEscape(fileID)+"/content", nil, true)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("platform: http %d downloading %s", resp.StatusCode, fileID)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", err
	}
	return dest, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte, authed bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		c.mu.Lock()
		token := c.token
		c.mu.Unlock()
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any, authed bool) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}
	req, err := c.newRequest(ctx, method, path, payload, authed)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusUnprocessableEntity:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s", ErrAggregation, strings.TrimSpace(string(msg)))
	case resp.StatusCode >= 300:
		return fmt.Errorf("platform: http %d on %s", resp.StatusCode, path)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
