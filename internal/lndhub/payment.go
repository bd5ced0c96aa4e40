package lndhub

import (
	"context"

	"github.com/massmux/lndhub/internal/errors"
	log "github.com/sirupsen/logrus"
)

// Failed is true if the service reported no success or reported an error,
// even when the two disagree.
func (p PaymentResult) Failed() bool {
	return !p.Success || len(p.Error) > 0
}

// Validate returns an ApplicationError for a failed payment and a DecodeError
// for a success without preimage.
func (p PaymentResult) Validate() error {
	if p.Failed() {
		if len(p.Error) > 0 {
			return errors.Newf(errors.ApplicationError, "payment failed: %s", p.Error)
		}
		return errors.Newf(errors.ApplicationError, "payment failed")
	}
	if len(p.Preimage) == 0 {
		return errors.Newf(errors.DecodeError, "inconsistent payment response %s: success without preimage", p.PaymentHash)
	}
	return nil
}

// PayInvoice submits paymentRequest for payment. It is never retried: the caller
// decides whether resubmitting is safe. The returned result is populated whenever
// the response could be decoded, also when err is an ApplicationError.
func (c *Client) PayInvoice(ctx context.Context, paymentRequest, token string) (PaymentResult, error) {
	if len(paymentRequest) == 0 {
		return PaymentResult{}, errors.Newf(errors.InvalidInvoiceError, "empty payment request")
	}
	body, err := c.transport.PostJSON(ctx, c.url(pathPayInvoice), PayInvoiceRequest{PaymentRequest: paymentRequest}, token)
	if err != nil {
		return PaymentResult{}, err
	}
	var result PaymentResult
	if message, ok := serviceError(body); ok {
		decodePartial(body, &result)
		result.Error = message
	} else if err := decodeObject(body, &result, paymentFields...); err != nil {
		return PaymentResult{}, err
	}
	if err := result.Validate(); err != nil {
		log.Warnf("[lndhub] payinvoice %s: %v", result.PaymentHash, err)
		return result, err
	}
	log.Debugf("[lndhub] paid invoice %s", result.PaymentHash)
	return result, nil
}
