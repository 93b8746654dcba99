package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-lms-client/internal/cache"
	"github.com/jrsteele09/go-lms-client/internal/errors"
	"github.com/jrsteele09/go-lms-client/transport"
	"github.com/rs/zerolog"
)

const defaultErrorMessage = "An error occurred"

// Client is a typed client for the LMS REST API. Credential attachment and
// token refresh are the job of the http.Client's transport.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.Cache
	logger     zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCache caches GET responses. Mutations invalidate the tags they touch.
func WithCache(rc *cache.Cache) Option {
	return func(c *Client) {
		c.cache = rc
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With().Str("component", "api").Logger()
	}
}

func New(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// ResetCache drops every cached response, e.g. after a sign-in or sign-out.
func (c *Client) ResetCache() {
	c.cache.Reset()
}

// errorBody is the backend's error envelope. Either message or error may carry the text.
type errorBody struct {
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Errors  map[string][]string `json:"errors"`
}

// request is one API call.
type request struct {
	method      string
	path        string
	query       url.Values
	body        any       // JSON-encoded when set
	raw         io.Reader // sent as-is when set, with contentType
	contentType string
	accept      string
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// send performs r and returns the response with an open body on 2xx; callers close it.
func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	} else if r.raw != nil {
		body = r.raw
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.endpoint(r.path, r.query), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	switch {
	case r.contentType != "":
		req.Header.Set("Content-Type", r.contentType)
	case r.body != nil:
		req.Header.Set("Content-Type", "application/json")
	}
	if r.accept != "" {
		req.Header.Set("Accept", r.accept)
	} else {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Debug().Err(err).Str("method", r.method).Str("path", r.path).Msg("request failed")
		return nil, fmt.Errorf("%w: %s %s: %v", errors.ErrNetwork, r.method, r.path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &errors.APIError{Status: resp.StatusCode, Message: defaultErrorMessage}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil {
		switch {
		case body.Message != "":
			apiErr.Message = body.Message
		case body.Error != "":
			apiErr.Message = body.Error
		}
		apiErr.Code = body.Code
		apiErr.Errors = body.Errors
	}
	return apiErr
}

// do sends r and decodes a JSON response into out (when not nil).
// It returns the response headers.
func (c *Client) do(ctx context.Context, r request, out any) (http.Header, error) {
	resp, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", errors.ErrNetwork, err)
	}
	if err := decodeInto(data, out); err != nil {
		return resp.Header, err
	}
	return resp.Header, nil
}

func decodeInto(data []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrResponseShape, err)
	}
	return nil
}

// get is a cached GET. The cache key includes the pinned track so responses
// fetched under different credentials are kept apart.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any, tags ...cache.Tag) error {
	key := c.endpoint(path, query)
	if track, ok := transport.TrackFrom(ctx); ok {
		key = track.String() + " " + key
	}
	if data, ok := c.cache.Get(key); ok {
		c.logger.Debug().Str("path", path).Msg("cache hit")
		return decodeInto(data, out)
	}

	var raw json.RawMessage
	if _, err := c.do(ctx, request{method: http.MethodGet, path: path, query: query}, &raw); err != nil {
		return err
	}
	if err := decodeInto(raw, out); err != nil {
		return err
	}
	c.cache.Put(key, raw, tags...)
	return nil
}

// mutate sends a JSON request and invalidates tags on success.
func (c *Client) mutate(ctx context.Context, method, path string, in, out any, invalidate ...cache.Tag) error {
	if _, err := c.do(ctx, request{method: method, path: path, body: in}, out); err != nil {
		return err
	}
	if n := c.cache.Invalidate(invalidate...); n > 0 {
		c.logger.Debug().Int("entries", n).Str("path", path).Msg("cache invalidated")
	}
	return nil
}

// Message is the body of endpoints that only acknowledge.
type Message struct {
	Message string `json:"message"`
}

func pathID(id string) string {
	return url.PathEscape(id)
}
