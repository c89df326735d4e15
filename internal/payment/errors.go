package payment

import "errors"

// Domain-specific errors for the payment package.
var (
	ErrEmptyMessage  = errors.New("message text is empty")
	ErrWalletLookup  = errors.New("wallet lookup failed")
	ErrTranscription = errors.New("voice transcription failed")
)
