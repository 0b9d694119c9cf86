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
	"time"

	"github.com/ghaggin/fypportal/internal/config"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// Client talks to the FYP backend. It holds no session state: every call
// takes the bearer token it should use, captured by the caller at call time.
type Client struct {
	base *url.URL
	http *http.Client
	log  *zap.Logger
}

type Params struct {
	fx.In

	Config  *config.Config
	Log     *zap.Logger
	Metrics *Metrics
}

func New(p Params) (*Client, error) {
	hc := &http.Client{
		Timeout:   p.Config.API.Timeout,
		Transport: p.Metrics.RoundTripper(http.DefaultTransport),
	}
	return NewClient(p.Config.API.BaseURL, hc, p.Log)
}

func NewClient(baseURL string, hc *http.Client, log *zap.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api base url %q is not absolute", baseURL)
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{base: u, http: hc, log: log}, nil
}

// statusError is any non-2xx answer. The body is kept so callers can pull
// the backend's detail or field errors out of it.
type statusError struct {
	Code int
	Body []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("backend answered %d", e.Code)
}

type request struct {
	method      string
	path        string
	query       url.Values
	token       string
	body        io.Reader
	contentType string
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	req, err := http.NewRequestWithContext(ctx, r.method, c.endpoint(r.path, r.query), r.body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	reqID := chimw.GetReqID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set(requestIDHeader, reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("backend request failed",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.String("request_id", reqID),
			zap.Error(err),
		)
		return err
	}
	defer resp.Body.Close()

	c.log.Debug("backend request",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
		zap.String("request_id", reqID),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return &statusError{Code: resp.StatusCode, Body: body}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) get(ctx context.Context, token, path string, query url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query, token: token}, out)
}

func (c *Client) sendJSON(ctx context.Context, method, token, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method:      method,
		path:        path,
		token:       token,
		body:        bytes.NewReader(b),
		contentType: "application/json",
	}, out)
}

func (c *Client) sendForm(ctx context.Context, token, path string, fields []formField, out any) error {
	body, contentType, err := encodeMultipart(fields)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		token:       token,
		body:        body,
		contentType: contentType,
	}, out)
}

func projectQuery(projectID int) url.Values {
	if projectID <= 0 {
		return nil
	}
	return url.Values{"project": []string{fmt.Sprint(projectID)}}
}
