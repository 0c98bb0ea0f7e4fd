package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 5 * time.Second
	defaultRate    = 10
	maxErrorBody   = 512
)

// Option configures a remote provider.
type Option func(*remote)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *remote) { r.client = c }
}

// WithBaseURL points the provider at another endpoint (tests, proxies).
func WithBaseURL(u string) Option {
	return func(r *remote) { r.baseURL = u }
}

// WithTimeout bounds every outbound call.
func WithTimeout(d time.Duration) Option {
	return func(r *remote) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRateLimit caps outbound calls per second. Zero or less disables the cap.
func WithRateLimit(perSecond float64) Option {
	return func(r *remote) {
		if perSecond <= 0 {
			r.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *remote) {
		if l != nil {
			r.logger = l
		}
	}
}

// remote holds the transport shared by HTTP-backed providers.
type remote struct {
	name    string
	baseURL string
	client  *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger
}

func newRemote(name, baseURL string, opts []Option) remote {
	r := remote{
		name:    name,
		baseURL: baseURL,
		client:  &http.Client{},
		timeout: defaultTimeout,
		limiter: rate.NewLimiter(rate.Limit(defaultRate), defaultRate),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&r)
	}
	r.logger = r.logger.With(zap.String("provider", name))
	return r
}

// getJSON issues a bounded GET and decodes a JSON body into out.
// A 404 maps to ErrNotFound; any other failure is a CallError.
func (r *remote) getJSON(ctx context.Context, op, path string, params url.Values, out any) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return callError(r.name, op, 0, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	endpoint := r.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return callError(r.name, op, 0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return callError(r.name, op, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return callError(r.name, op, resp.StatusCode, errors.New(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return callError(r.name, op, resp.StatusCode, fmt.Errorf("decode: %w", err))
	}
	return nil
}
