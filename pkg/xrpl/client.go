package xrpl

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// Client talks to a rippled JSON-RPC endpoint and the testnet faucet.
// Submissions go through a circuit breaker so a flapping ledger endpoint
// fails fast instead of tying up every conversation worker.
type Client struct {
	rpcURL     string
	faucetURL  string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a ledger client from config, filling in testnet defaults.
func NewClient(cfg Config) *Client {
	rpcURL := cfg.RPCURL
	if rpcURL == "" {
		rpcURL = DefaultRPCURL
	}
	faucetURL := cfg.FaucetURL
	if faucetURL == "" {
		faucetURL = DefaultFaucetURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "xrpl-submit",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A definitive ledger rejection means the endpoint is healthy;
		// only transport-class failures should open the breaker.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var rej *RejectionError
			return errors.As(err, &rej)
		},
	})

	return &Client{
		rpcURL:     rpcURL,
		faucetURL:  faucetURL,
		httpClient: httpClient,
		breaker:    breaker,
	}
}

// XRPToDrops converts an XRP amount to integer drops (1 XRP = 1,000,000 drops).
func XRPToDrops(amount float64) int64 {
	return int64(math.Round(amount * 1_000_000))
}

// Submit signs and submits a payment via the rippled "submit" method.
// Returns ErrTransient-wrapped errors for retryable failures and
// *RejectionError for definitive refusals.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	res, err := c.breaker.Execute(func() (any, error) {
		return c.doSubmit(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return SubmitResult{}, fmt.Errorf("%w: circuit breaker open", ErrTransient)
		}
		return SubmitResult{}, err
	}
	return res.(SubmitResult), nil
}

func (c *Client) doSubmit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	// The invoice id ties the on-ledger transaction to the idempotency key.
	invoiceID := sha256.Sum256([]byte(req.IdempotencyKey))

	rpcReq := rpcRequest{
		Method: "submit",
		Params: []map[string]any{{
			"secret": req.SenderSeed,
			"tx_json": map[string]any{
				"TransactionType": "Payment",
				"Account":         req.SenderAddress,
				"Destination":     req.Destination,
				"Amount":          strconv.FormatInt(req.AmountDrops, 10),
				"InvoiceID":       strings.ToUpper(hex.EncodeToString(invoiceID[:])),
			},
		}},
	}

	body, err := json.Marshal(rpcReq)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("xrpl: failed to marshal submit request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewBuffer(body))
	if err != nil {
		return SubmitResult{}, fmt.Errorf("xrpl: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return SubmitResult{}, fmt.Errorf("%w: rpc status %d", ErrTransient, resp.StatusCode)
	}

	var rpcResp rpcSubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return SubmitResult{}, fmt.Errorf("%w: malformed rpc response: %v", ErrTransient, err)
	}

	result := rpcResp.Result
	if result.Status == "error" {
		return SubmitResult{}, &RejectionError{Code: result.Error, Reason: result.ErrorMessage}
	}

	switch classifyEngineResult(result.EngineResult) {
	case engineSuccess:
		return SubmitResult{TxHash: result.TxJSON.Hash}, nil
	case engineRetry:
		return SubmitResult{}, fmt.Errorf("%w: %s (%s)", ErrTransient, result.EngineResult, result.EngineResultMessage)
	default:
		return SubmitResult{}, &RejectionError{Code: result.EngineResult, Reason: result.EngineResultMessage}
	}
}

type engineClass int

const (
	engineSuccess engineClass = iota
	engineRetry
	engineRejected
)

// classifyEngineResult maps rippled engine result prefixes to outcome
// classes: tes = applied, tel/ter = retryable, everything else definitive.
func classifyEngineResult(code string) engineClass {
	switch {
	case strings.HasPrefix(code, "tes"):
		return engineSuccess
	case strings.HasPrefix(code, "tel"), strings.HasPrefix(code, "ter"):
		return engineRetry
	default:
		return engineRejected
	}
}

// FundWallet asks the testnet faucet for a new funded wallet.
func (c *Client) FundWallet(ctx context.Context) (FundedWallet, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.faucetURL, bytes.NewBufferString("{}"))
	if err != nil {
		return FundedWallet{}, fmt.Errorf("xrpl: failed to create faucet request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return FundedWallet{}, fmt.Errorf("xrpl: faucet call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FundedWallet{}, fmt.Errorf("xrpl: faucet status %d", resp.StatusCode)
	}

	var faucetResp faucetResponse
	if err := json.NewDecoder(resp.Body).Decode(&faucetResp); err != nil {
		return FundedWallet{}, fmt.Errorf("xrpl: malformed faucet response: %w", err)
	}

	address := faucetResp.Account.ClassicAddress
	if address == "" {
		address = faucetResp.Account.Address
	}
	if address == "" || faucetResp.Account.Secret == "" {
		return FundedWallet{}, fmt.Errorf("xrpl: faucet response missing account data")
	}

	return FundedWallet{Address: address, Seed: faucetResp.Account.Secret}, nil
}
