package lndhub

import (
	"fmt"
	"strings"
	"time"

	decodepay "github.com/fiatjaf/ln-decodepay"
	"github.com/massmux/lndhub/internal/errors"
)

// DecodedInvoice holds the fields of a BOLT11 payment request.
type DecodedInvoice struct {
	// Network is the bech32 currency prefix, "bc" for mainnet, "tb" for testnet.
	Network            string
	PaymentHash        string
	MSatoshi           int64
	Description        string
	DescriptionHash    string
	Expiry             time.Duration
	Destination        string
	Timestamp          time.Time
	MinFinalCLTVExpiry int
}

// HasAmount is false for invoices that leave the amount to the payer.
func (d DecodedInvoice) HasAmount() bool {
	return d.MSatoshi > 0
}

// AmountSats returns the amount rounded down to whole satoshi.
func (d DecodedInvoice) AmountSats() int64 {
	return d.MSatoshi / 1000
}

func (d DecodedInvoice) ExpiresAt() time.Time {
	return d.Timestamp.Add(d.Expiry)
}

func (d DecodedInvoice) Expired(now time.Time) bool {
	return now.After(d.ExpiresAt())
}

const lightningScheme = "lightning:"

// NormalizePaymentRequest trims whitespace and the lightning: URI scheme and
// lower-cases the request. Bech32 forbids mixing cases, so a request that is
// neither all lower nor all upper case is returned with ok false.
func NormalizePaymentRequest(paymentRequest string) (normalized string, ok bool) {
	paymentRequest = strings.TrimSpace(paymentRequest)
	if len(paymentRequest) >= len(lightningScheme) && strings.EqualFold(paymentRequest[:len(lightningScheme)], lightningScheme) {
		paymentRequest = paymentRequest[len(lightningScheme):]
	}
	if paymentRequest != strings.ToLower(paymentRequest) && paymentRequest != strings.ToUpper(paymentRequest) {
		return paymentRequest, false
	}
	return strings.ToLower(paymentRequest), true
}

// DecodeInvoice parses a BOLT11 payment request. It performs no network call.
func DecodeInvoice(paymentRequest string) (DecodedInvoice, error) {
	paymentRequest, ok := NormalizePaymentRequest(paymentRequest)
	if !ok {
		return DecodedInvoice{}, errors.Newf(errors.InvalidInvoiceError, "mixed-case payment request")
	}
	if len(paymentRequest) == 0 {
		return DecodedInvoice{}, errors.Newf(errors.InvalidInvoiceError, "empty payment request")
	}
	if !strings.HasPrefix(paymentRequest, "ln") || !strings.Contains(paymentRequest, "1") {
		return DecodedInvoice{}, errors.Newf(errors.InvalidInvoiceError, "not a bolt11 payment request")
	}
	bolt11, err := safeDecodepay(paymentRequest)
	if err != nil {
		return DecodedInvoice{}, errors.Wrap(errors.InvalidInvoiceError, err, "could not decode invoice")
	}
	return DecodedInvoice{
		Network:            bolt11.Currency,
		PaymentHash:        bolt11.PaymentHash,
		MSatoshi:           int64(bolt11.MSatoshi),
		Description:        bolt11.Description,
		DescriptionHash:    bolt11.DescriptionHash,
		Expiry:             time.Duration(bolt11.Expiry) * time.Second,
		Destination:        bolt11.Payee,
		Timestamp:          time.Unix(int64(bolt11.CreatedAt), 0),
		MinFinalCLTVExpiry: int(bolt11.MinFinalCLTVExpiry),
	}, nil
}

// DecodeInvoice decodes paymentRequest locally without contacting the service.
func (c *Client) DecodeInvoice(paymentRequest string) (DecodedInvoice, error) {
	return DecodeInvoice(paymentRequest)
}

// safeDecodepay turns a panic of the parser on malformed input into an error.
func safeDecodepay(paymentRequest string) (bolt11 decodepay.Bolt11, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed invoice: %v", r)
		}
	}()
	return decodepay.Decodepay(paymentRequest)
}
