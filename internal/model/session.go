package model

import "time"

// SessionState is the conversation phase for a single user.
type SessionState string

const (
	// StateIdle means no payment dialogue is in progress.
	StateIdle SessionState = "idle"
	// StateAwaitingSlots means the extractor reported missing fields and
	// the user has been asked to supply them.
	StateAwaitingSlots SessionState = "awaiting_slots"
	// StateAwaitingConfirmation means a complete intent is pending an
	// explicit yes/no from the user.
	StateAwaitingConfirmation SessionState = "awaiting_confirmation"
	// StateExecuting means the transfer is being dispatched. The state is
	// transient: it is entered and left within one orchestration step.
	StateExecuting SessionState = "executing"
)

// DialogueTurn is one prior turn of the slot-filling dialogue, passed back
// to the extractor so clarification accumulates context.
type DialogueTurn struct {
	Role string // "user" or "assistant"
	Text string
}

// ConversationSession is the per-user conversation state. It is owned by
// the session store and mutated only by the orchestrator, one message at
// a time per user.
type ConversationSession struct {
	UserID string
	State  SessionState

	// PendingIntent is non-nil exactly while State is AwaitingConfirmation
	// or Executing.
	PendingIntent *PaymentIntent

	// DialogueContext grows within one slot-filling episode and is cleared
	// on every transition back to Idle.
	DialogueContext []DialogueTurn

	// PendingTransferID is the idempotency token for the pending intent.
	// It is generated once, before the first submission attempt, and kept
	// across retries of the same intent.
	PendingTransferID string

	RetryCount int

	// LastActivity drives the abandonment sweep for stalled slot-filling.
	LastActivity time.Time
}
