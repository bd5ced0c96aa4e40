package lndhub

import "time"

// Credentials are sent once to /create or /auth and never kept by the client.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenPair is the result of an auth exchange. Token is sent as bearer on every
// authenticated call, RefreshToken obtains a new pair once Token is rejected.
type TokenPair struct {
	RefreshToken string `json:"refresh"`
	Token        string `json:"token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Money is an amount as a decimal string, so it round-trips without float drift.
type Money struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Invoice is the /addinvoice response.
// A non-empty Error means the invoice was not created.
type Invoice struct {
	RequestId             string `json:"req_id"`
	UserId                uint32 `json:"uid"`
	PaymentRequest        string `json:"payment_request,omitempty"`
	Description           string `json:"meta,omitempty"`
	Metadata              string `json:"metadata,omitempty"`
	Amount                Money  `json:"amount"`
	Rate                  string `json:"rate,omitempty"`
	Currency              string `json:"currency"`
	TargetAccountCurrency string `json:"target_account_currency,omitempty"`
	AccountId             string `json:"account_id,omitempty"`
	Error                 string `json:"error,omitempty"`
	Fees                  string `json:"fees,omitempty"`
}

// Account is one currency sub-account of a wallet.
type Account struct {
	AccountId string `json:"account_id"`
	Balance   string `json:"balance"`
	Currency  string `json:"currency"`
}

// BalanceSnapshot is the /balance response.
type BalanceSnapshot struct {
	UserId   uint32             `json:"uid"`
	Accounts map[string]Account `json:"accounts"`
	Error    string             `json:"error,omitempty"`
}

type PayInvoiceRequest struct {
	PaymentRequest string `json:"payment_request"`
}

// PaymentResult is the /payinvoice response. Success is authoritative,
// but a non-empty Error also marks the payment as failed.
type PaymentResult struct {
	PaymentHash    string `json:"payment_hash"`
	UserId         uint32 `json:"uid"`
	Success        bool   `json:"success"`
	Currency       string `json:"currency"`
	PaymentRequest string `json:"payment_request,omitempty"`
	Amount         *Money `json:"amount,omitempty"`
	Fees           *Money `json:"fees,omitempty"`
	Error          string `json:"error,omitempty"`
	Preimage       string `json:"payment_preimage,omitempty"`
	Destination    string `json:"destination,omitempty"`
	Description    string `json:"description,omitempty"`
}

// Transaction is a settled ledger entry as returned by /gettxs.
type Transaction struct {
	Txid              string `json:"txid"`
	FeeTxid           string `json:"fee_txid,omitempty"`
	OutboundTxid      string `json:"outbound_txid,omitempty"`
	InboundTxid       string `json:"inbound_txid,omitempty"`
	CreatedAt         uint64 `json:"created_at"`
	OutboundAmount    string `json:"outbound_amount"`
	InboundAmount     string `json:"inbound_amount"`
	OutboundAccountId string `json:"outbound_account_id"`
	InboundAccountId  string `json:"inbound_account_id"`
	OutboundUserId    uint32 `json:"outbound_uid"`
	InboundUserId     uint32 `json:"inbound_uid"`
	OutboundCurrency  string `json:"outbound_currency"`
	InboundCurrency   string `json:"inbound_currency"`
	ExchangeRate      string `json:"exchange_rate"`
	Type              string `json:"tx_type"`
	Fees              string `json:"fees"`
	Reference         string `json:"reference,omitempty"`
}

// CreatedTime returns CreatedAt as a time.
func (tx Transaction) CreatedTime() time.Time {
	return time.Unix(int64(tx.CreatedAt), 0)
}

// required keys of every response, checked before unmarshalling so that a missing
// field is a decode error rather than a silent zero value.
var (
	tokenPairFields   = []string{"refresh", "token"}
	invoiceFields     = []string{"req_id", "uid", "amount.value", "amount.currency", "currency"}
	balanceFields     = []string{"uid", "accounts"}
	accountFields     = []string{"account_id", "balance", "currency"}
	paymentFields     = []string{"payment_hash", "uid", "success", "currency"}
	transactionFields = []string{
		"txid", "created_at", "outbound_amount", "inbound_amount",
		"outbound_account_id", "inbound_account_id", "outbound_uid", "inbound_uid",
		"outbound_currency", "inbound_currency", "exchange_rate", "tx_type", "fees",
	}
)
