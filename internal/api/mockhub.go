package api

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/lightningnetwork/lnd/zpay32"
	"github.com/massmux/lndhub/internal/lndhub"
	"github.com/massmux/lndhub/internal/storage"
	cmap "github.com/orcaman/concurrent-map"
	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/sjson"
)

const (
	mockCurrency      = "BTC"
	mockInvoiceExpiry = time.Hour
)

// MockHub is an in-memory LNDHub service for local development and tests.
// Invoices it issues are signed with its own node key and settle between its
// wallets; payments to any other node only debit the payer. Wallets are
// funded with Fund.
type MockHub struct {
	users    cmap.ConcurrentMap
	invoices cmap.ConcurrentMap
	settled  cmap.ConcurrentMap
	access   *storage.TokenCache
	refresh  *storage.TokenCache
	nodeKey  *btcec.PrivateKey
	lastUid  uint32
}

// issuedInvoice is an invoice minted by /addinvoice, keyed by payment hash.
type issuedInvoice struct {
	owner    string
	preimage []byte
}

type mockUser struct {
	mu        sync.Mutex
	uid       uint32
	password  string
	accountId string
	balance   decimal.Decimal
	txs       []lndhub.Transaction
}

type MockHubOption func(h *MockHub)

// WithTokenTTL sets how long access tokens stay valid.
func WithTokenTTL(d time.Duration) MockHubOption {
	return func(h *MockHub) {
		h.access = storage.NewTokenCache("access", d)
	}
}

func NewMockHub(opts ...MockHubOption) *MockHub {
	nodeKey, err := btcec.NewPrivateKey()
	if err != nil {
		log.Panicf("[mockhub] could not generate node key: %v", err)
	}
	h := &MockHub{
		users:    cmap.New(),
		invoices: cmap.New(),
		settled:  cmap.New(),
		access:   storage.NewTokenCache("access", time.Hour),
		refresh:  storage.NewTokenCache("refresh", 7*24*time.Hour),
		nodeKey:  nodeKey,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NodeId is the hex encoded public key that signs the hub's invoices.
func (h *MockHub) NodeId() string {
	return hex.EncodeToString(h.nodeKey.PubKey().SerializeCompressed())
}

// mintInvoice encodes a mainnet BOLT11 payment request for amount BTC signed
// with the node key.
func (h *MockHub) mintInvoice(owner string, amount decimal.Decimal, memo string) (string, error) {
	preimage := make([]byte, 32)
	if _, err := rand.Read(preimage); err != nil {
		return "", err
	}
	paymentHash := sha256.Sum256(preimage)
	invoice, err := zpay32.NewInvoice(&chaincfg.MainNetParams, paymentHash, time.Now(),
		zpay32.Amount(lnwire.MilliSatoshi(amount.Shift(11).IntPart())),
		zpay32.Description(memo),
		zpay32.Expiry(mockInvoiceExpiry),
	)
	if err != nil {
		return "", err
	}
	paymentRequest, err := invoice.Encode(zpay32.MessageSigner{
		SignCompact: func(msg []byte) ([]byte, error) {
			return ecdsa.SignCompact(h.nodeKey, chainhash.HashB(msg), true)
		},
	})
	if err != nil {
		return "", err
	}
	h.invoices.Set(hex.EncodeToString(paymentHash[:]), &issuedInvoice{owner: owner, preimage: preimage})
	return paymentRequest, nil
}

// Register adds the LNDHub routes to s.
func (h *MockHub) Register(s *Server) {
	s.AppendRoute("/create", h.create, http.MethodPost)
	s.AppendRoute("/auth", h.auth, http.MethodPost)
	s.AppendAuthorizedRoute("/addinvoice", h.access, h.addInvoice, http.MethodGet)
	s.AppendAuthorizedRoute("/balance", h.access, h.balance, http.MethodGet)
	s.AppendAuthorizedRoute("/payinvoice", h.access, h.payInvoice, http.MethodPost)
	s.AppendAuthorizedRoute("/gettxs", h.access, h.getTxs, http.MethodGet)
}

// Handler returns a router serving the mock hub.
func (h *MockHub) Handler() http.Handler {
	s := NewServer("")
	h.Register(s)
	return s.Handler()
}

// Fund credits sats to username's wallet.
func (h *MockHub) Fund(username string, sats int64) bool {
	u, ok := h.user(username)
	if !ok {
		return false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.balance = u.balance.Add(decimal.NewFromInt(sats).Shift(-8))
	return true
}

func (h *MockHub) user(username string) (*mockUser, bool) {
	v, ok := h.users.Get(username)
	if !ok {
		return nil, false
	}
	return v.(*mockUser), true
}

func writeError(w http.ResponseWriter, message string) {
	body, _ := sjson.Set("{}", "error", message)
	WriteRaw(w, http.StatusOK, []byte(body))
}

func (h *MockHub) create(w http.ResponseWriter, r *http.Request) {
	var creds lndhub.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if len(creds.Username) == 0 || len(creds.Password) == 0 {
		writeError(w, "username and password required")
		return
	}
	u := &mockUser{
		uid:       atomic.AddUint32(&h.lastUid, 1),
		password:  creds.Password,
		accountId: uuid.NewV4().String(),
		balance:   decimal.Zero,
	}
	if !h.users.SetIfAbsent(creds.Username, u) {
		writeError(w, "user already exists")
		return
	}
	log.Infof("[mockhub] created wallet %d", u.uid)
	body, _ := sjson.Set("{}", "username", creds.Username)
	WriteRaw(w, http.StatusOK, []byte(body))
}

func (h *MockHub) auth(w http.ResponseWriter, r *http.Request) {
	var request struct {
		lndhub.Credentials
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	var username string
	if len(request.RefreshToken) > 0 {
		name, ok := h.refresh.Lookup(request.RefreshToken)
		if !ok {
			writeError(w, "bad refresh token")
			return
		}
		h.refresh.Revoke(request.RefreshToken)
		username = name
	} else {
		u, ok := h.user(request.Username)
		if !ok || u.password != request.Password {
			writeError(w, "bad auth")
			return
		}
		username = request.Username
	}
	token, err := h.access.Issue(username)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	refresh, err := h.refresh.Issue(username)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	WriteResponse(w, lndhub.TokenPair{Token: token, RefreshToken: refresh})
}

func (h *MockHub) addInvoice(w http.ResponseWriter, r *http.Request) {
	username := UsernameFromContext(r.Context())
	u, ok := h.user(username)
	if !ok {
		http.Error(w, "unknown user", http.StatusUnauthorized)
		return
	}
	amount := r.URL.Query().Get("amount")
	meta := r.URL.Query().Get("meta")
	body := "{}"
	body, _ = sjson.Set(body, "req_id", uuid.NewV4().String())
	body, _ = sjson.Set(body, "uid", u.uid)
	body, _ = sjson.Set(body, "amount.value", amount)
	body, _ = sjson.Set(body, "amount.currency", mockCurrency)
	body, _ = sjson.Set(body, "currency", mockCurrency)
	body, _ = sjson.Set(body, "account_id", u.accountId)
	if len(meta) > 0 {
		body, _ = sjson.Set(body, "meta", meta)
	}
	d, err := decimal.NewFromString(amount)
	if err != nil || !d.IsPositive() || !d.Shift(8).IsInteger() {
		body, _ = sjson.Set(body, "error", "invalid amount")
		WriteRaw(w, http.StatusOK, []byte(body))
		return
	}
	paymentRequest, err := h.mintInvoice(username, d, meta)
	if err != nil {
		log.Errorf("[mockhub] could not mint invoice: %v", err)
		body, _ = sjson.Set(body, "error", "could not create invoice")
		WriteRaw(w, http.StatusOK, []byte(body))
		return
	}
	body, _ = sjson.Set(body, "payment_request", paymentRequest)
	body, _ = sjson.Set(body, "rate", "1")
	body, _ = sjson.Set(body, "target_account_currency", mockCurrency)
	WriteRaw(w, http.StatusOK, []byte(body))
}

func (h *MockHub) balance(w http.ResponseWriter, r *http.Request) {
	u, ok := h.user(UsernameFromContext(r.Context()))
	if !ok {
		http.Error(w, "unknown user", http.StatusUnauthorized)
		return
	}
	u.mu.Lock()
	snapshot := lndhub.BalanceSnapshot{
		UserId: u.uid,
		Accounts: map[string]lndhub.Account{
			u.accountId: {AccountId: u.accountId, Balance: u.balance.String(), Currency: mockCurrency},
		},
	}
	u.mu.Unlock()
	WriteResponse(w, snapshot)
}

func (h *MockHub) payInvoice(w http.ResponseWriter, r *http.Request) {
	u, ok := h.user(UsernameFromContext(r.Context()))
	if !ok {
		http.Error(w, "unknown user", http.StatusUnauthorized)
		return
	}
	var request lndhub.PayInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	result := lndhub.PaymentResult{
		UserId:         u.uid,
		Currency:       mockCurrency,
		PaymentRequest: request.PaymentRequest,
	}
	invoice, err := lndhub.DecodeInvoice(request.PaymentRequest)
	if err != nil {
		result.Error = "invalid payment request"
		WriteResponse(w, result)
		return
	}
	result.PaymentHash = invoice.PaymentHash
	result.Destination = invoice.Destination
	result.Description = invoice.Description
	if !invoice.HasAmount() {
		result.Error = "amount-less invoices are not supported"
		WriteResponse(w, result)
		return
	}
	if invoice.Expired(time.Now()) {
		result.Error = "invoice expired"
		WriteResponse(w, result)
		return
	}
	amount := decimal.NewFromInt(invoice.MSatoshi).Shift(-11)
	result.Amount = &lndhub.Money{Value: amount.String(), Currency: mockCurrency}
	result.Fees = &lndhub.Money{Value: "0", Currency: mockCurrency}

	var issued *issuedInvoice
	if v, ok := h.invoices.Get(invoice.PaymentHash); ok && invoice.Destination == h.NodeId() {
		issued = v.(*issuedInvoice)
	}
	preimage := make([]byte, 32)
	if issued != nil {
		copy(preimage, issued.preimage)
	} else if _, err := rand.Read(preimage); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	u.mu.Lock()
	if h.settled.Has(invoice.PaymentHash) {
		u.mu.Unlock()
		result.Error = "already paid"
		WriteResponse(w, result)
		return
	}
	if u.balance.LessThan(amount) {
		u.mu.Unlock()
		result.Error = "insufficient funds"
		WriteResponse(w, result)
		return
	}
	// another wallet may settle the same hash between Has and here
	if !h.settled.SetIfAbsent(invoice.PaymentHash, u.uid) {
		u.mu.Unlock()
		result.Error = "already paid"
		WriteResponse(w, result)
		return
	}
	u.balance = u.balance.Sub(amount)
	u.txs = append([]lndhub.Transaction{h.paymentTx(invoice, amount, u)}, u.txs...)
	u.mu.Unlock()

	if issued != nil {
		h.credit(issued.owner, invoice, amount, u)
	}
	log.Infof("[mockhub] wallet %d paid %s", u.uid, invoice.PaymentHash)
	result.Success = true
	result.Preimage = hex.EncodeToString(preimage)
	WriteResponse(w, result)
}

func (h *MockHub) paymentTx(invoice lndhub.DecodedInvoice, amount decimal.Decimal, payer *mockUser) lndhub.Transaction {
	return lndhub.Transaction{
		Txid:              uuid.NewV4().String(),
		CreatedAt:         uint64(time.Now().Unix()),
		OutboundAmount:    amount.String(),
		InboundAmount:     amount.String(),
		OutboundAccountId: payer.accountId,
		InboundAccountId:  invoice.Destination,
		OutboundUserId:    payer.uid,
		OutboundCurrency:  mockCurrency,
		InboundCurrency:   mockCurrency,
		ExchangeRate:      "1",
		Type:              "payment",
		Fees:              "0",
		Reference:         invoice.PaymentHash,
	}
}

// credit settles an invoice issued by the hub into its owner's wallet.
func (h *MockHub) credit(owner string, invoice lndhub.DecodedInvoice, amount decimal.Decimal, payer *mockUser) {
	payee, ok := h.user(owner)
	if !ok {
		return
	}
	tx := h.paymentTx(invoice, amount, payer)
	tx.InboundAccountId = payee.accountId
	tx.InboundUserId = payee.uid
	tx.Type = "invoice"
	payee.mu.Lock()
	defer payee.mu.Unlock()
	payee.balance = payee.balance.Add(amount)
	payee.txs = append([]lndhub.Transaction{tx}, payee.txs...)
}

func (h *MockHub) getTxs(w http.ResponseWriter, r *http.Request) {
	u, ok := h.user(UsernameFromContext(r.Context()))
	if !ok {
		http.Error(w, "unknown user", http.StatusUnauthorized)
		return
	}
	u.mu.Lock()
	txs := make([]lndhub.Transaction, len(u.txs))
	copy(txs, u.txs)
	u.mu.Unlock()
	WriteResponse(w, txs)
}
