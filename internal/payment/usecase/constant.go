package usecase

import "time"

// Log prefixes
const (
	LogPrefixHandle   = "internal.payment.usecase.HandleMessage"
	LogPrefixDispatch = "internal.payment.usecase.dispatch"
	LogPrefixSweep    = "internal.payment.usecase.sweepAbandonedSessions"
)

// Orchestration defaults
const (
	DefaultExtractTimeout = 30 * time.Second
	DefaultSubmitTimeout  = 15 * time.Second
	DefaultRetryAttempts  = 3
	DefaultRetryBaseDelay = 500 * time.Millisecond
	DefaultAbandonAfter   = 10 * time.Minute

	// MaxDialogueTurns caps the slot-filling history replayed to the
	// extractor (user + assistant turns).
	MaxDialogueTurns = 12
)

// User-facing messages. Failures are phrased as next-action guidance,
// never as raw collaborator error text.
const (
	MsgExtractorUnavailable = "I'm having trouble understanding requests right now. Please try again in a moment."
	MsgPleaseRephrase       = "I couldn't work out a payment from that. Please try again — for example: \"send 5 XRP to @bob\"."
	MsgConfirmTemplate      = "Action: %s, Amount: %s %s, Recipient: @%s — correct? (yes/no)"
	MsgAnswerYesNo          = "Please answer yes or no."
	MsgVoiceUnclear         = "I couldn't make out that voice message. Please try again, or type it instead."
	MsgProcessingFailed     = "I couldn't process that request. Please try again."
	MsgDeclined             = "Okay, I've cancelled that. Tell me again what you'd like to do."
	MsgBusy                 = "I'm still working on your previous transfer. One moment, please."

	MsgRecipientUnknown = "@%s isn't registered here, so I can't reach their wallet. Ask them to message me with /status first."
	MsgNoWallet         = "You don't have a wallet yet. Send /status and I'll set one up for you."
	MsgRejected         = "The ledger refused the transfer: %s. Nothing was sent."
	MsgFailed           = "I couldn't reach the ledger, so nothing was sent. Please try again in a few minutes."

	MsgSettledSender    = "✅ Sent %s %s to @%s. Transaction: %s"
	MsgSettledRecipient = "💸 You received %s %s from @%s."
	MsgRequestedSender  = "Your request for %s %s has been delivered to @%s."
	MsgRequestRecipient = "🙏 @%s requests %s %s from you. Reply \"send %s %s to @%s\" to pay."

	// ReasonUnsupportedCurrency rejects non-XRP transfers before submission.
	ReasonUnsupportedCurrency = "only XRP transfers are supported right now"
)
