// Package restclient implements the table store contract over the REST
// wrapper served by flashnet.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/flashnet/internal/adapter/mapping"
	"github.com/eslsoft/flashnet/internal/adapter/rest"
	"github.com/eslsoft/flashnet/internal/entity"
	"github.com/eslsoft/flashnet/internal/infrastructure/config"
)

// DefaultTimeout bounds every request when no timeout is configured.
const DefaultTimeout = 15 * time.Second

// listPageSize is the page size used when a caller asks for every row.
const listPageSize = 1000

// Client talks to one flashnet server on behalf of one bearer token.
type Client struct {
	baseURL *url.URL
	token   string
	timeout time.Duration
	http    *http.Client
	logger  logrus.FieldLogger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client for the server at baseURL.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	c := &Client{
		baseURL: u,
		token:   strings.TrimSpace(token),
		timeout: DefaultTimeout,
		http:    http.DefaultClient,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromConfig builds a client from the remote config section.
func NewFromConfig(cfg *config.Config, logger logrus.FieldLogger) (*Client, error) {
	return New(cfg.Remote.BaseURL, cfg.Remote.Token, WithTimeout(cfg.Remote.Timeout), WithLogger(logger))
}

// Categories returns the category half of the store.
func (c *Client) Categories() *CategoryStore { return &CategoryStore{c: c} }

// Flashcards returns the flashcard half of the store.
func (c *Client) Flashcards() *FlashcardStore { return &FlashcardStore{c: c} }

// resource tells error mapping which not-found and conflict errors apply.
type resource struct {
	notFound error
	conflict error
}

var (
	categoryResource  = resource{notFound: entity.ErrCategoryNotFound, conflict: entity.ErrDuplicateCategory}
	flashcardResource = resource{notFound: entity.ErrFlashcardNotFound}
)

func (c *Client) do(ctx context.Context, op string, res resource, method, path string, query url.Values, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return entity.NewStoreError(op, entity.ErrUnknown, "encode request", err)
		}
		body = bytes.NewReader(buf)
	}

	target := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return entity.NewStoreError(op, entity.ErrUnknown, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithFields(logrus.Fields{"op": op, "method": method, "path": path}).WithError(err).Debug("store request failed")
		return entity.NewStoreError(op, entity.ErrNetwork, "", err)
	}
	defer resp.Body.Close()
	c.logger.WithFields(logrus.Fields{
		"op":       op,
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("store request")

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(op, res, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return entity.NewStoreError(op, entity.ErrNetwork, "", err)
		}
		return entity.NewStoreError(op, entity.ErrUnknown, "decode response", err)
	}
	return nil
}

type errorPayload struct {
	rest.ErrorBody
	ErrorDescription string `json:"error_description"`
}

// decodeError maps a failed response onto the store error taxonomy.
func decodeError(op string, res resource, resp *http.Response) error {
	var payload errorPayload
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	parseErr := json.Unmarshal(raw, &payload)

	message := payload.Message
	if message == "" {
		message = payload.ErrorDescription
	}
	if message == "" && parseErr != nil {
		message = strings.TrimSpace(string(raw))
	}
	if message == "" {
		message = resp.Status
	}

	reason := payload.Reason
	if reason == "" {
		reason = resp.Header.Get(mapping.ReasonHeader)
	}

	var (
		kind  error
		cause error
	)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = entity.ErrNotAuthenticated
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = entity.ErrValidationRejected
	case http.StatusConflict:
		kind = entity.ErrValidationRejected
		cause = res.conflict
	case http.StatusNotFound:
		kind = entity.ErrValidationRejected
		cause = res.notFound
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		kind = entity.ErrNetwork
	default:
		kind = entity.ErrUnknown
	}

	if sentinel := mapping.ReasonError(reason); sentinel != nil {
		cause = sentinel
	}
	if cause != nil && message == cause.Error() {
		message = ""
	}
	return entity.NewStoreError(op, kind, message, cause)
}
