package lndhub

import (
	"github.com/massmux/lndhub/internal/errors"
	"github.com/shopspring/decimal"
)

// satsPerBTCExp is the decimal exponent between BTC and satoshi.
const satsPerBTCExp = 8

// SatsToBTC converts a satoshi amount to a BTC decimal string without going
// through binary floating point. 100000000 becomes "1", 1 becomes "0.00000001".
func SatsToBTC(sats uint32) string {
	return decimal.NewFromInt(int64(sats)).Shift(-satsPerBTCExp).String()
}

// BTCToSats converts a BTC decimal string back to satoshi. Amounts with
// sub-satoshi precision are rejected.
func BTCToSats(btc string) (int64, error) {
	d, err := decimal.NewFromString(btc)
	if err != nil {
		return 0, errors.Wrap(errors.DecodeError, err, "invalid btc amount")
	}
	sats := d.Shift(satsPerBTCExp)
	if !sats.Equal(sats.Truncate(0)) {
		return 0, errors.Newf(errors.DecodeError, "btc amount %s has sub-satoshi precision", btc)
	}
	return sats.IntPart(), nil
}
