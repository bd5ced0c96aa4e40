package network

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/imroc/req"
	"github.com/massmux/lndhub/internal"
	"github.com/massmux/lndhub/internal/errors"
	"github.com/massmux/lndhub/internal/rate"
	log "github.com/sirupsen/logrus"
)

// Transport performs the two HTTP exchanges the LNDHub API needs.
// An empty token means the request is sent without authorization.
// Any network failure or non-2xx status is returned as an errors.TransportError.
type Transport interface {
	Get(ctx context.Context, url string, token string) ([]byte, error)
	PostJSON(ctx context.Context, url string, body interface{}, token string) ([]byte, error)
}

// HTTPTransport is the Transport used against a real service.
type HTTPTransport struct {
	r       *req.Req
	limiter *rate.Limiter
}

type Option func(t *HTTPTransport)

// WithTimeout sets the timeout of every request.
func WithTimeout(d time.Duration) Option {
	return func(t *HTTPTransport) {
		t.r.SetTimeout(d)
	}
}

// WithSocksProxy dials all requests through a SOCKS5 proxy.
func WithSocksProxy(socks *internal.SocksConfiguration) Option {
	return func(t *HTTPTransport) {
		t.r.SetClient(GetClient(t.r.Client().Timeout, socks))
	}
}

// WithRateLimit throttles requests to r per second for each bearer token.
func WithRateLimit(r float64, burst int) Option {
	return func(t *HTTPTransport) {
		if r > 0 {
			t.limiter = rate.NewLimiter(r, burst)
		}
	}
}

// FromConfiguration returns the options described by cfg.
func FromConfiguration(cfg *internal.Configuration) []Option {
	return []Option{
		WithTimeout(cfg.LndHub.TimeoutDuration()),
		WithSocksProxy(cfg.Network.SocksProxy),
		WithRateLimit(cfg.LndHub.RateLimit, cfg.LndHub.RateBurst),
	}
}

func NewHTTPTransport(opts ...Option) *HTTPTransport {
	t := &HTTPTransport{r: req.New()}
	t.r.SetClient(GetClient(30*time.Second, nil))
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *HTTPTransport) Get(ctx context.Context, url string, token string) ([]byte, error) {
	return t.do(ctx, "GET", url, nil, token)
}

func (t *HTTPTransport) PostJSON(ctx context.Context, url string, body interface{}, token string) ([]byte, error) {
	return t.do(ctx, "POST", url, body, token)
}

func (t *HTTPTransport) do(ctx context.Context, method, url string, body interface{}, token string) ([]byte, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx, token); err != nil {
			return nil, errors.Wrap(errors.TransportError, err, fmt.Sprintf("%s %s", method, url))
		}
	}
	header := req.Header{
		"Accept": "application/json",
	}
	if len(token) > 0 {
		header["Authorization"] = "Bearer " + token
	}
	args := []interface{}{ctx, header}
	if body != nil {
		header["Content-Type"] = "application/json"
		args = append(args, req.BodyJSON(body))
	}
	log.Debugf("[network] %s %s", method, url)
	resp, err := t.r.Do(method, url, args...)
	if err != nil {
		return nil, errors.Wrap(errors.TransportError, err, fmt.Sprintf("%s %s", method, url))
	}
	b, err := resp.ToBytes()
	if err != nil {
		return nil, errors.Wrap(errors.TransportError, err, fmt.Sprintf("%s %s", method, url))
	}
	status := resp.Response().StatusCode
	if status < 200 || status >= 300 {
		log.Debugf("[network] %s %s returned %d", method, url, status)
		return nil, errors.Transport(status, fmt.Errorf("%s %s: status %d: %s", method, url, status, strings.TrimSpace(string(b))))
	}
	return b, nil
}
