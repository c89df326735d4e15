package model

// Action is the kind of payment the user asked for.
type Action string

const (
	ActionSend    Action = "send"
	ActionRequest Action = "request"
)

// Valid reports whether the action is one of the known kinds.
func (a Action) Valid() bool {
	return a == ActionSend || a == ActionRequest
}

// PaymentIntent is the structured form of a user's payment request.
// All four fields must be present (and Amount positive) before the
// intent may be offered for confirmation.
type PaymentIntent struct {
	Action    Action
	Amount    float64
	Currency  string // symbol, e.g. "XRP"
	Recipient string // handle without the leading "@"
}

// Wallet is a ledger wallet record owned by a chat user.
type Wallet struct {
	UserID   string
	Username string
	Address  string // ledger classic address
	Seed     string // signing seed, never shown to other users
	ChatID   int64  // transport chat id for recipient notifications
}
