package lndhub

import (
	"context"

	"github.com/massmux/lndhub/internal/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// CreateWalletOutcome is either WalletCreated or WalletCreationFailed.
type CreateWalletOutcome interface {
	createWalletOutcome()
}

// WalletCreated is returned when the service provisioned the wallet.
type WalletCreated struct {
	Username string
}

// WalletCreationFailed is returned when the service refused to provision the wallet.
type WalletCreationFailed struct {
	Error string
}

func (WalletCreated) createWalletOutcome()        {}
func (WalletCreationFailed) createWalletOutcome() {}

// ParseCreateWalletResponse decodes a /create response. The service answers with
// either {"username"} or {"error"}; the variant is chosen by which key is present.
// Neither or both keys is a decode error.
func ParseCreateWalletResponse(body []byte) (CreateWalletOutcome, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.Newf(errors.DecodeError, "invalid json response: %s", excerpt(body))
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, errors.Newf(errors.DecodeError, "expected json object, got: %s", excerpt(body))
	}
	username := root.Get("username")
	failure := root.Get("error")
	switch {
	case username.Exists() && failure.Exists():
		return nil, errors.Newf(errors.DecodeError, "ambiguous create response: both username and error present")
	case username.Exists():
		if username.Type != gjson.String {
			return nil, errors.Newf(errors.DecodeError, "username is not a string: %s", username.Raw)
		}
		return WalletCreated{Username: username.String()}, nil
	case failure.Exists():
		if failure.Type != gjson.String {
			return nil, errors.Newf(errors.DecodeError, "error is not a string: %s", failure.Raw)
		}
		return WalletCreationFailed{Error: failure.String()}, nil
	}
	return nil, errors.Newf(errors.DecodeError, "create response has neither username nor error: %s", excerpt(body))
}

// CreateWallet provisions a new custodial wallet.
func (c *Client) CreateWallet(ctx context.Context, username, password string) (CreateWalletOutcome, error) {
	body, err := c.transport.PostJSON(ctx, c.url(pathCreate), Credentials{Username: username, Password: password}, "")
	if err != nil {
		return nil, err
	}
	outcome, err := ParseCreateWalletResponse(body)
	if err != nil {
		return nil, err
	}
	if failed, ok := outcome.(WalletCreationFailed); ok {
		log.Warnf("[lndhub] wallet creation refused: %s", failed.Error)
	} else {
		log.Debugf("[lndhub] wallet created")
	}
	return outcome, nil
}

// Authenticate exchanges credentials for a token pair. Transport failures are
// returned as they are; a response without two non-empty tokens is an AuthError.
func (c *Client) Authenticate(ctx context.Context, username, password string) (TokenPair, error) {
	return c.auth(ctx, Credentials{Username: username, Password: password})
}

// RefreshTokens exchanges a refresh token for a new token pair.
func (c *Client) RefreshTokens(ctx context.Context, refreshToken string) (TokenPair, error) {
	if len(refreshToken) == 0 {
		return TokenPair{}, errors.Newf(errors.AuthError, "empty refresh token")
	}
	return c.auth(ctx, refreshRequest{RefreshToken: refreshToken})
}

func (c *Client) auth(ctx context.Context, request interface{}) (TokenPair, error) {
	body, err := c.transport.PostJSON(ctx, c.url(pathAuth), request, "")
	if err != nil {
		return TokenPair{}, err
	}
	tokens, err := parseTokenPair(body)
	if err != nil {
		log.Warnf("[lndhub] authentication failed: %v", err)
		return TokenPair{}, err
	}
	log.Debugf("[lndhub] authenticated")
	return tokens, nil
}

func parseTokenPair(body []byte) (TokenPair, error) {
	var tokens TokenPair
	if err := decodeObject(body, &tokens, tokenPairFields...); err != nil {
		if failure := gjson.GetBytes(body, "error"); failure.Exists() {
			return TokenPair{}, errors.Newf(errors.AuthError, "service refused authentication: %s", failure.String())
		}
		return TokenPair{}, errors.Wrap(errors.AuthError, err, "no token pair in auth response")
	}
	if len(tokens.Token) == 0 || len(tokens.RefreshToken) == 0 {
		return TokenPair{}, errors.Newf(errors.AuthError, "auth response holds an empty token")
	}
	return tokens, nil
}
