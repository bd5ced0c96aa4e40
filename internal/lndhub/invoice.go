package lndhub

import (
	"context"
	"net/url"
	"strconv"

	"github.com/massmux/lndhub/internal/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Validate reports a service-side failure as an ApplicationError and a response
// without error and without payment request as a DecodeError.
func (inv Invoice) Validate() error {
	if len(inv.Error) > 0 {
		return errors.Newf(errors.ApplicationError, "invoice not created: %s", inv.Error)
	}
	if len(inv.PaymentRequest) == 0 {
		return errors.Newf(errors.DecodeError, "incomplete invoice response %s: no payment request", inv.RequestId)
	}
	return nil
}

// CreateInvoice asks the service for a payment request of amountSats satoshi.
// The amount is sent in BTC. The returned invoice is populated whenever the
// response could be decoded, also when err is an ApplicationError.
func (c *Client) CreateInvoice(ctx context.Context, description string, amountSats uint32, token string) (Invoice, error) {
	query := url.Values{}
	query.Set("amount", SatsToBTC(amountSats))
	query.Set("meta", description)
	body, err := c.transport.Get(ctx, c.url(pathAddInvoice)+"?"+query.Encode(), token)
	if err != nil {
		return Invoice{}, err
	}
	var invoice Invoice
	if message, ok := serviceError(body); ok {
		decodePartial(body, &invoice)
		invoice.Error = message
	} else if err := decodeObject(body, &invoice, invoiceFields...); err != nil {
		return Invoice{}, err
	}
	if err := invoice.Validate(); err != nil {
		log.Warnf("[lndhub] addinvoice %s: %v", invoice.RequestId, err)
		return invoice, err
	}
	log.Debugf("[lndhub] created invoice %s for %d sat", invoice.RequestId, amountSats)
	return invoice, nil
}

// GetBalance returns the wallet's sub-accounts. The order of the list is not
// stable between calls.
func (c *Client) GetBalance(ctx context.Context, token string) ([]Account, error) {
	body, err := c.transport.Get(ctx, c.url(pathBalance), token)
	if err != nil {
		return nil, err
	}
	if message, ok := serviceError(body); ok {
		log.Warnf("[lndhub] balance: %s", message)
		return nil, errors.Newf(errors.ApplicationError, "balance: %s", message)
	}
	var snapshot BalanceSnapshot
	if err := decodeObject(body, &snapshot, balanceFields...); err != nil {
		return nil, err
	}
	var fieldErr error
	gjson.GetBytes(body, "accounts").ForEach(func(key, value gjson.Result) bool {
		fieldErr = requireFields(value, accountFields...)
		return fieldErr == nil
	})
	if fieldErr != nil {
		return nil, fieldErr
	}
	accounts := make([]Account, 0, len(snapshot.Accounts))
	for _, account := range snapshot.Accounts {
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// GetTransactions returns the settled transactions of the wallet in the order the
// service sends them, which is newest first by contract but not checked here.
func (c *Client) GetTransactions(ctx context.Context, token string) ([]Transaction, error) {
	body, err := c.transport.Get(ctx, c.url(pathGetTxs), token)
	if err != nil {
		return nil, err
	}
	return parseTransactions(body)
}

func parseTransactions(body []byte) ([]Transaction, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.Newf(errors.DecodeError, "invalid json response: %s", excerpt(body))
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, errors.Newf(errors.DecodeError, "expected json array, got: %s", excerpt(body))
	}
	items := root.Array()
	txs := make([]Transaction, 0, len(items))
	for i, item := range items {
		var tx Transaction
		if err := decodeObject([]byte(item.Raw), &tx, transactionFields...); err != nil {
			return nil, errors.Wrap(errors.DecodeError, err, "transaction "+strconv.Itoa(i))
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
