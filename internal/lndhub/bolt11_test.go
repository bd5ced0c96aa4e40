package lndhub

import (
	"strings"
	"testing"
	"time"

	"github.com/massmux/lndhub/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// BOLT11 reference vectors.
const (
	donationInvoice = "lnbc1pvjluezpp5qqqsyqcyq5rqwzqfqqqsyqcyq5rqwzqfqqqsyqcyq5rqwzqfqypqdpl2pkx2ctnv5sxxmmwwd5kgetjypeh2ursdae8g6twvus8g6rfwvs8qun0dfjkxaq8rkx3yf5tcsyz3d73gafnh3cax9rn449d9p5uxz9ezhhypd0elx87sjle52x86fux2ypatgddc6k63n7erqz25le42c4u4ecky03ylcqca784w"
	coffeeInvoice   = "lnbc2500u1pvjluezpp5qqqsyqcyq5rqwzqfqqqsyqcyq5rqwzqfqqqsyqcyq5rqwzqfqypqdq5xysxxatsyp3k7enxv4jsxqzpuaztrnwngzn3kdzw5hydlzf03qdgm2hdq27cqv3agm2awhz5se903vruatfhq77w3ls4evs3ch9zw97j25emudupq63nyw24cg27h2rspfj9srp"

	vectorPaymentHash = "0001020304050607080900010203040506070809000102030405060708090102"
	vectorPayee       = "03e7156ae33b0a208d0744199163177e909e80176e55d97a2f221ede0f934dd9ad"
)

func TestDecodeInvoice_Donation(t *testing.T) {
	inv, err := DecodeInvoice(donationInvoice)
	require.NoError(t, err)
	assert.Equal(t, vectorPaymentHash, inv.PaymentHash)
	assert.Equal(t, vectorPayee, inv.Destination)
	assert.Equal(t, "Please consider supporting this project", inv.Description)
	assert.False(t, inv.HasAmount())
	assert.Equal(t, int64(1496314658), inv.Timestamp.Unix())
}

func TestDecodeInvoice_Coffee(t *testing.T) {
	inv, err := DecodeInvoice(coffeeInvoice)
	require.NoError(t, err)
	assert.Equal(t, vectorPaymentHash, inv.PaymentHash)
	assert.Equal(t, "1 cup coffee", inv.Description)
	assert.True(t, inv.HasAmount())
	assert.Equal(t, int64(250000000), inv.MSatoshi)
	assert.Equal(t, int64(250000), inv.AmountSats())
	assert.Equal(t, time.Minute, inv.Expiry)
	assert.Equal(t, inv.Timestamp.Add(time.Minute), inv.ExpiresAt())
	assert.True(t, inv.Expired(time.Now()))
}

func TestDecodeInvoice_Normalizes(t *testing.T) {
	for _, pr := range []string{
		"  LIGHTNING:" + strings.ToUpper(coffeeInvoice) + "\n",
		"lightning:" + strings.ToUpper(coffeeInvoice),
		"Lightning:" + coffeeInvoice,
	} {
		inv, err := DecodeInvoice(pr)
		require.NoError(t, err, pr)
		assert.Equal(t, vectorPaymentHash, inv.PaymentHash)
	}
}

func TestNormalizePaymentRequest(t *testing.T) {
	tests := []struct {
		name string
		pr   string
		want string
		ok   bool
	}{
		{"lower", coffeeInvoice, coffeeInvoice, true},
		{"upper", strings.ToUpper(coffeeInvoice), coffeeInvoice, true},
		{"scheme and spaces", " lightning:" + coffeeInvoice + " ", coffeeInvoice, true},
		{"mixed case", strings.Replace(coffeeInvoice, "u1", "U1", 1), "", false},
		{"mixed case hrp", "LNbc" + coffeeInvoice[4:], "", false},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizePaymentRequest(tt.pr)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDecodeInvoice_Invalid(t *testing.T) {
	tests := []struct {
		name string
		pr   string
	}{
		{"not an invoice", "not-an-invoice"},
		{"empty", ""},
		{"truncated", coffeeInvoice[:60]},
		{"bad checksum", coffeeInvoice[:len(coffeeInvoice)-1] + "q"},
		{"bad prefix", "lnxx" + coffeeInvoice[4:]},
		{"mixed case", strings.Replace(coffeeInvoice, "u1", "U1", 1)},
		{"mixed case after scheme", "lightning:" + strings.ToUpper(coffeeInvoice[:10]) + coffeeInvoice[10:]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInvoice(tt.pr)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.InvalidInvoiceError))
		})
	}
}

func TestClientDecodeInvoice_NoNetwork(t *testing.T) {
	c, f := newFakeClient("")
	_, err := c.DecodeInvoice("not-an-invoice")
	assert.True(t, errors.Is(err, errors.InvalidInvoiceError))

	inv, err := c.DecodeInvoice(donationInvoice)
	require.NoError(t, err)
	assert.Equal(t, vectorPaymentHash, inv.PaymentHash)
	assert.Empty(t, f.calls)
}
