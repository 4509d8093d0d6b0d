// Package chessclient talks to the chess HTTP API.
package chessclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/cheese-chess/pkg/chessdto"
)

const (
	headerPlayer    = "X-Player"
	headerSessionID = "X-Session-ID"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status int
	chessdto.DomainError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chess api: status=%d code=%s: %s", e.Status, e.Code, e.Message)
}

// IsCode reports whether err is an APIError carrying code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

type Client struct {
	baseURL string
	http    *fasthttp.Client
	meta    chessdto.RequestMeta

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithSessionID plays a named session instead of the player's default one.
func WithSessionID(id string) Option {
	return func(c *Client) { c.meta.SessionID = id }
}

// WithHTTPClient replaces the transport, mostly for tests.
func WithHTTPClient(hc *fasthttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL, player string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 30 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		meta:           chessdto.RequestMeta{Player: player},
		defaultTimeout: 30 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Start(ctx context.Context, difficulty, aiColor string) (*chessdto.StartSessionResponse, error) {
	var resp chessdto.StartSessionResponse
	req := chessdto.StartSessionRequest{Difficulty: difficulty, AIColor: aiColor}
	if _, err := c.doJSON(ctx, fasthttp.MethodPost, "/v1/games", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Status(ctx context.Context) (*chessdto.StatusResponse, error) {
	var resp chessdto.StatusResponse
	if _, err := c.doJSON(ctx, fasthttp.MethodGet, "/v1/games/current", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Play(ctx context.Context, move string) (*chessdto.PlayResponse, error) {
	var resp chessdto.PlayResponse
	if _, err := c.doJSON(ctx, fasthttp.MethodPost, "/v1/games/current/moves", chessdto.PlayRequest{Move: move}, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) LegalMoves(ctx context.Context, square string) ([]string, error) {
	path := "/v1/games/current/legal"
	if square != "" {
		path += "?square=" + url.QueryEscape(square)
	}
	var resp chessdto.LegalMovesResponse
	if _, err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Moves, nil
}

func (c *Client) Undo(ctx context.Context) (*chessdto.StatusResponse, error) {
	var resp chessdto.StatusResponse
	if _, err := c.doJSON(ctx, fasthttp.MethodPost, "/v1/games/current/undo", nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Resign(ctx context.Context) (*chessdto.StatusResponse, error) {
	var resp chessdto.StatusResponse
	if _, err := c.doJSON(ctx, fasthttp.MethodPost, "/v1/games/current/resign", nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BoardPNG returns the rendered board image.
func (c *Client) BoardPNG(ctx context.Context) ([]byte, error) {
	return c.doJSON(ctx, fasthttp.MethodGet, "/v1/games/current/board.png", nil, nil, true)
}

func (c *Client) Export(ctx context.Context) (string, error) {
	var resp chessdto.ExportResponse
	if _, err := c.doJSON(ctx, fasthttp.MethodGet, "/v1/games/current/export", nil, &resp, true); err != nil {
		return "", err
	}
	return resp.Save, nil
}

func (c *Client) Import(ctx context.Context, save string) (*chessdto.StatusResponse, error) {
	var resp chessdto.StatusResponse
	if _, err := c.doJSON(ctx, fasthttp.MethodPost, "/v1/games/import", chessdto.ImportRequest{Save: save}, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Save(ctx context.Context, name string) (*chessdto.SaveResponse, error) {
	var resp chessdto.SaveResponse
	if _, err := c.doJSON(ctx, fasthttp.MethodPost, "/v1/saves", chessdto.SaveRequest{Name: name}, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListSaved(ctx context.Context, limit int) ([]*chessdto.SavedGame, error) {
	var resp chessdto.SavedListResponse
	if _, err := c.doJSON(ctx, fasthttp.MethodGet, "/v1/saves"+limitQuery(limit), nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Saved, nil
}

func (c *Client) LoadSaved(ctx context.Context, id int64) (*chessdto.StatusResponse, error) {
	var resp chessdto.StatusResponse
	path := "/v1/saves/" + strconv.FormatInt(id, 10) + "/load"
	if _, err := c.doJSON(ctx, fasthttp.MethodPost, path, nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteSaved(ctx context.Context, id int64) error {
	_, err := c.doJSON(ctx, fasthttp.MethodDelete, "/v1/saves/"+strconv.FormatInt(id, 10), nil, nil, true)
	return err
}

func (c *Client) History(ctx context.Context, limit int) (*chessdto.HistoryResponse, error) {
	var resp chessdto.HistoryResponse
	if _, err := c.doJSON(ctx, fasthttp.MethodGet, "/v1/history"+limitQuery(limit), nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Game(ctx context.Context, id int64) (*chessdto.GameResponse, error) {
	var resp chessdto.GameResponse
	if _, err := c.doJSON(ctx, fasthttp.MethodGet, "/v1/history/"+strconv.FormatInt(id, 10), nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Profile(ctx context.Context) (*chessdto.ProfileResponse, error) {
	var resp chessdto.ProfileResponse
	if _, err := c.doJSON(ctx, fasthttp.MethodGet, "/v1/profile", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SetPreferredDifficulty(ctx context.Context, difficulty string) (*chessdto.ProfileResponse, error) {
	var resp chessdto.ProfileResponse
	req := chessdto.UpdatePreferredDifficultyRequest{Difficulty: difficulty}
	if _, err := c.doJSON(ctx, fasthttp.MethodPut, "/v1/profile/difficulty", req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func limitQuery(limit int) string {
	if limit <= 0 {
		return ""
	}
	return "?limit=" + strconv.Itoa(limit)
}

// doJSON sends in as JSON and decodes the answer into out. When out is nil
// the raw body is returned instead. Only idempotent calls pass retry=true.
func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.Set(headerPlayer, c.meta.Player)
	if c.meta.SessionID != "" {
		req.Header.Set(headerSessionID, c.meta.SessionID)
	}

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt == attempts {
				return nil, lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return nil, lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			apiErr := decodeError(status, resp.Body())
			if attempt == attempts || !shouldRetryStatus(status) {
				return nil, apiErr
			}
			lastErr = apiErr
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return nil, lastErr
			}
			continue
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return nil, fmt.Errorf("decode response: %w", err)
			}
			return nil, nil
		}
		return append([]byte(nil), resp.Body()...), nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, lastErr
}

func decodeError(status int, body []byte) *APIError {
	var env chessdto.ErrorResponse
	if err := json.Unmarshal(body, &env); err != nil || env.Error.Code == "" {
		return &APIError{Status: status, DomainError: chessdto.DomainError{
			Code:    chessdto.CodeInternal,
			Message: truncate(string(body), 512),
		}}
	}
	return &APIError{Status: status, DomainError: env.Error}
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	attempt = max(1, min(attempt, 6))
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case fasthttp.StatusInternalServerError, fasthttp.StatusBadGateway,
		fasthttp.StatusServiceUnavailable, fasthttp.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
