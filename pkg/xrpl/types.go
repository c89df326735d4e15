package xrpl

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrTransient marks failures that are safe to retry: network errors,
// timeouts, and ledger answers of the retry class. The idempotency key
// guarantees a retried submission cannot settle twice.
var ErrTransient = errors.New("xrpl: transient failure")

// RejectionError is a definitive ledger refusal. Retrying cannot change it.
type RejectionError struct {
	Code   string // engine result code, e.g. "tecUNFUNDED_PAYMENT"
	Reason string // human-readable engine result message
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("xrpl: rejected (%s): %s", e.Code, e.Reason)
}

// SubmitRequest describes one payment submission.
type SubmitRequest struct {
	SenderAddress string
	SenderSeed    string
	Destination   string
	AmountDrops   int64

	// IdempotencyKey is generated once per confirmed intent and reused
	// across every retry of that intent. It is carried as the payment's
	// invoice id so duplicate submissions settle at most once.
	IdempotencyKey string
}

// SubmitResult is a successful submission.
type SubmitResult struct {
	TxHash string
}

// FundedWallet is a freshly created, faucet-funded testnet wallet.
type FundedWallet struct {
	Address string
	Seed    string
}

// Config configures the ledger client.
type Config struct {
	RPCURL     string // defaults to the XRPL testnet JSON-RPC endpoint
	FaucetURL  string // defaults to the XRPL testnet faucet
	HTTPClient *http.Client
}

// Default endpoints (XRPL altnet).
const (
	DefaultRPCURL    = "https://s.altnet.rippletest.net:51234/"
	DefaultFaucetURL = "https://faucet.altnet.rippletest.net/accounts"
)

// rpcRequest is the JSON-RPC envelope for the rippled HTTP API.
type rpcRequest struct {
	Method string           `json:"method"`
	Params []map[string]any `json:"params"`
}

// rpcSubmitResponse is the subset of the submit response the client reads.
type rpcSubmitResponse struct {
	Result struct {
		Status              string `json:"status"`
		Error               string `json:"error,omitempty"`
		ErrorMessage        string `json:"error_message,omitempty"`
		EngineResult        string `json:"engine_result,omitempty"`
		EngineResultMessage string `json:"engine_result_message,omitempty"`
		TxJSON              struct {
			Hash string `json:"hash"`
		} `json:"tx_json"`
	} `json:"result"`
}

// faucetResponse is the subset of the faucet response the client reads.
type faucetResponse struct {
	Account struct {
		ClassicAddress string `json:"classicAddress"`
		Address        string `json:"address"`
		Secret         string `json:"secret"`
	} `json:"account"`
}
