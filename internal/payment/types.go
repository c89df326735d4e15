package payment

import "paypaladin/internal/model"

// MessageInput is one inbound user message. When VoiceFileID is set the
// message is a voice note; its text is resolved by transcription inside the
// user's serialized turn, never before it, so a slow transcription cannot
// let a later message overtake it.
type MessageInput struct {
	Text        string
	VoiceFileID string
}

// WalletStatus is the result of a wallet provisioning request.
type WalletStatus struct {
	Address string
	Created bool // true when a new wallet was just funded
}

// OutcomeKind discriminates the terminal result of a dispatch.
type OutcomeKind string

const (
	// OutcomeSettled means the ledger accepted the transfer.
	OutcomeSettled OutcomeKind = "settled"
	// OutcomeRequested means a payment request was delivered; no funds moved.
	OutcomeRequested OutcomeKind = "requested"
	// OutcomeRecipientUnknown means the recipient handle has no wallet record.
	OutcomeRecipientUnknown OutcomeKind = "recipient_unknown"
	// OutcomeNoWallet means the acting user has no wallet record.
	OutcomeNoWallet OutcomeKind = "no_wallet"
	// OutcomeRejected means the ledger definitively refused the transfer.
	OutcomeRejected OutcomeKind = "rejected"
	// OutcomeFailed means transient failures exhausted the retry budget.
	OutcomeFailed OutcomeKind = "failed"
)

// TransferOutcome is the discriminated result of dispatching a confirmed
// intent. Exactly one dispatch produces exactly one outcome.
type TransferOutcome struct {
	Kind   OutcomeKind
	TxRef  string // ledger transaction reference, set for Settled
	Reason string // user-safe explanation for Rejected/Failed

	// Recipient is the resolved recipient wallet, set whenever handle
	// resolution succeeded (used for recipient notifications).
	Recipient model.Wallet
}
