package lndhub

import "context"

// Session binds a token pair to a client so callers do not have to pass the token
// on every call. It is immutable; Refresh returns a new Session.
type Session struct {
	client *Client
	tokens TokenPair
}

func NewSession(client *Client, tokens TokenPair) *Session {
	return &Session{client: client, tokens: tokens}
}

// Login authenticates and returns a session holding the new token pair.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	tokens, err := c.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return NewSession(c, tokens), nil
}

func (s *Session) Tokens() TokenPair {
	return s.tokens
}

// Refresh exchanges the refresh token and returns a session with the new pair.
func (s *Session) Refresh(ctx context.Context) (*Session, error) {
	tokens, err := s.client.RefreshTokens(ctx, s.tokens.RefreshToken)
	if err != nil {
		return nil, err
	}
	return NewSession(s.client, tokens), nil
}

func (s *Session) CreateInvoice(ctx context.Context, description string, amountSats uint32) (Invoice, error) {
	return s.client.CreateInvoice(ctx, description, amountSats, s.tokens.Token)
}

func (s *Session) GetBalance(ctx context.Context) ([]Account, error) {
	return s.client.GetBalance(ctx, s.tokens.Token)
}

func (s *Session) GetTransactions(ctx context.Context) ([]Transaction, error) {
	return s.client.GetTransactions(ctx, s.tokens.Token)
}

func (s *Session) PayInvoice(ctx context.Context, paymentRequest string) (PaymentResult, error) {
	return s.client.PayInvoice(ctx, paymentRequest, s.tokens.Token)
}
