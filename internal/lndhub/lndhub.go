// Package lndhub is a client for custodial Lightning wallets exposed through the
// LNDHub HTTP API.
//
// The client keeps no state between calls. Tokens obtained with Authenticate are
// handed back by the caller on every authenticated call, or held by a Session.
package lndhub

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/massmux/lndhub/internal/errors"
	"github.com/massmux/lndhub/internal/network"
	"github.com/tidwall/gjson"
)

const (
	pathCreate     = "/create"
	pathAuth       = "/auth"
	pathAddInvoice = "/addinvoice"
	pathBalance    = "/balance"
	pathPayInvoice = "/payinvoice"
	pathGetTxs     = "/gettxs"
)

type Client struct {
	endpoint  string
	transport network.Transport
}

type Option func(c *Client)

// WithTransport replaces the default HTTP transport.
func WithTransport(t network.Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// NewClient returns a client for the LNDHub service at endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = network.NewHTTPTransport()
	}
	return c
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) url(path string) string {
	return c.endpoint + path
}

// decodeObject checks that body is a JSON object holding all required fields
// and unmarshals it into v.
func decodeObject(body []byte, v interface{}, required ...string) error {
	if !gjson.ValidBytes(body) {
		return errors.Newf(errors.DecodeError, "invalid json response: %s", excerpt(body))
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return errors.Newf(errors.DecodeError, "expected json object, got: %s", excerpt(body))
	}
	if err := requireFields(root, required...); err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(errors.DecodeError, err, "could not decode response")
	}
	return nil
}

// serviceError returns the message of a non-empty "error" string in a JSON object body.
// The service may send it without any of the fields a successful response carries.
func serviceError(body []byte) (string, bool) {
	if !gjson.ValidBytes(body) {
		return "", false
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return "", false
	}
	failure := root.Get("error")
	if failure.Type != gjson.String || len(failure.String()) == 0 {
		return "", false
	}
	return failure.String(), true
}

// decodePartial fills whatever fields of v the body holds, ignoring type mismatches.
func decodePartial(body []byte, v interface{}) {
	_ = json.Unmarshal(body, v)
}

func requireFields(r gjson.Result, fields ...string) error {
	for _, f := range fields {
		v := r.Get(f)
		if !v.Exists() || v.Type == gjson.Null {
			return errors.Newf(errors.DecodeError, "response is missing field %q", f)
		}
	}
	return nil
}

func excerpt(body []byte) string {
	const max = 128
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return fmt.Sprintf("%s...", s[:max])
	}
	return s
}
