package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/massmux/lndhub/internal/lndhub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func post(t *testing.T, h http.Handler, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createAndAuth(t *testing.T, h http.Handler, username string) string {
	t.Helper()
	post(t, h, "/create", `{"username":"`+username+`","password":"pw"}`, "")
	rec := post(t, h, "/auth", `{"username":"`+username+`","password":"pw"}`, "")
	token := gjson.Get(rec.Body.String(), "token").String()
	require.NotEmpty(t, token)
	return token
}

func TestMockHub_CreateTwice(t *testing.T) {
	h := NewMockHub().Handler()

	rec := post(t, h, "/create", `{"username":"alice","password":"pw"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"username":"alice"}`, rec.Body.String())

	rec = post(t, h, "/create", `{"username":"alice","password":"pw"}`, "")
	assert.JSONEq(t, `{"error":"user already exists"}`, rec.Body.String())
}

func TestMockHub_AuthAndAddInvoice(t *testing.T) {
	h := NewMockHub().Handler()
	post(t, h, "/create", `{"username":"alice","password":"pw"}`, "")

	rec := post(t, h, "/auth", `{"username":"alice","password":"wrong"}`, "")
	assert.JSONEq(t, `{"error":"bad auth"}`, rec.Body.String())

	rec = post(t, h, "/auth", `{"username":"alice","password":"pw"}`, "")
	token := gjson.Get(rec.Body.String(), "token").String()
	require.NotEmpty(t, token)
	assert.NotEmpty(t, gjson.Get(rec.Body.String(), "refresh").String())

	rec = get(t, h, "/addinvoice?amount=0.0025&meta=coffee", token)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "0.0025", gjson.Get(body, "amount.value").String())
	assert.Equal(t, "coffee", gjson.Get(body, "meta").String())

	invoice, err := lndhub.DecodeInvoice(gjson.Get(body, "payment_request").String())
	require.NoError(t, err)
	assert.Equal(t, int64(250000), invoice.AmountSats())
	assert.Equal(t, "coffee", invoice.Description)
	assert.Equal(t, "bc", invoice.Network)
	assert.False(t, invoice.Expired(time.Now()))

	rec = get(t, h, "/addinvoice?amount=-1", token)
	assert.Equal(t, "invalid amount", gjson.Get(rec.Body.String(), "error").String())
	assert.False(t, gjson.Get(rec.Body.String(), "payment_request").Exists())
}

func TestMockHub_AddInvoiceMintsDistinctInvoices(t *testing.T) {
	hub := NewMockHub()
	h := hub.Handler()
	token := createAndAuth(t, h, "alice")

	tests := []struct {
		name  string
		query string
		sats  int64
		memo  string
	}{
		{"one sat", "amount=0.00000001&meta=tip", 1, "tip"},
		{"no memo", "amount=0.001", 100000, ""},
		{"whole coin", "amount=1&meta=rent", 100000000, "rent"},
	}
	seen := map[string]bool{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, "/addinvoice?"+tt.query, token)
			invoice, err := lndhub.DecodeInvoice(gjson.Get(rec.Body.String(), "payment_request").String())
			require.NoError(t, err)
			assert.Equal(t, tt.sats, invoice.AmountSats())
			assert.Equal(t, tt.memo, invoice.Description)
			assert.Equal(t, hub.NodeId(), invoice.Destination)
			assert.False(t, seen[invoice.PaymentHash])
			seen[invoice.PaymentHash] = true
		})
	}

	rec := get(t, h, "/addinvoice?amount=0.000000001", token)
	assert.Equal(t, "invalid amount", gjson.Get(rec.Body.String(), "error").String())
}

func TestMockHub_PayInvoice(t *testing.T) {
	hub := NewMockHub()
	h := hub.Handler()
	alice := createAndAuth(t, h, "alice")
	bob := createAndAuth(t, h, "bob")
	require.True(t, hub.Fund("alice", 100000))

	rec := get(t, h, "/addinvoice?amount=0.0004&meta=lunch", bob)
	pr := gjson.Get(rec.Body.String(), "payment_request").String()
	payBody := `{"payment_request":"` + pr + `"}`

	tests := []struct {
		name    string
		token   string
		body    string
		success bool
		err     string
	}{
		{"bob cannot pay without funds", bob, payBody, false, "insufficient funds"},
		{"alice pays", alice, payBody, true, ""},
		{"alice pays again", alice, payBody, false, "already paid"},
		{"garbage", alice, `{"payment_request":"lnbc1garbage"}`, false, "invalid payment request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := post(t, h, "/payinvoice", tt.body, tt.token).Body.String()
			assert.Equal(t, tt.success, gjson.Get(res, "success").Bool())
			assert.Equal(t, tt.err, gjson.Get(res, "error").String())
		})
	}

	for token, want := range map[string]string{alice: "0.0006", bob: "0.0004"} {
		rec = get(t, h, "/balance", token)
		for _, a := range gjson.Get(rec.Body.String(), "accounts").Map() {
			assert.Equal(t, want, a.Get("balance").String())
		}
	}
	rec = get(t, h, "/gettxs", bob)
	txs := gjson.Parse(rec.Body.String()).Array()
	require.Len(t, txs, 1)
	assert.Equal(t, "invoice", txs[0].Get("tx_type").String())
}

func TestMockHub_RejectsUnknownToken(t *testing.T) {
	rec := get(t, NewMockHub().Handler(), "/balance", "nope")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMockHub_Fund(t *testing.T) {
	hub := NewMockHub()
	assert.False(t, hub.Fund("nobody", 1))

	h := hub.Handler()
	post(t, h, "/create", `{"username":"alice","password":"pw"}`, "")
	assert.True(t, hub.Fund("alice", 150000000))

	rec := post(t, h, "/auth", `{"username":"alice","password":"pw"}`, "")
	token := gjson.Get(rec.Body.String(), "token").String()
	rec = get(t, h, "/balance", token)
	accounts := gjson.Get(rec.Body.String(), "accounts").Map()
	require.Len(t, accounts, 1)
	for _, a := range accounts {
		assert.Equal(t, "1.5", a.Get("balance").String())
	}
}
