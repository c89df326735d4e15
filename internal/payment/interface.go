package payment

import (
	"context"
	"io"

	"paypaladin/internal/model"
	"paypaladin/pkg/assistant"
	"paypaladin/pkg/xrpl"
)

// UseCase defines the business logic interface for the payment conversation domain.
type UseCase interface {
	// HandleMessage runs one orchestration step and blocks until it has
	// run. Steps for the same user are serialized in arrival order;
	// outbound replies are sent through the Messenger.
	HandleMessage(ctx context.Context, sc model.Scope, input MessageInput) error

	// EnqueueMessage captures the user's next serialized turn and returns
	// immediately; the step runs in the background on the user's queue
	// worker. Callers that must acknowledge the transport before
	// processing finishes (webhooks) use this instead of HandleMessage so
	// arrival order is fixed at the call, not at goroutine scheduling.
	EnqueueMessage(sc model.Scope, input MessageInput)

	// ProvisionWallet looks up the user's wallet, creating and funding a
	// testnet wallet on first use.
	ProvisionWallet(ctx context.Context, sc model.Scope) (WalletStatus, error)
}

// IntentExtractor turns a raw utterance (plus dialogue history) into the
// extractor's raw output, to be normalized by the core.
type IntentExtractor interface {
	Extract(ctx context.Context, utterance string, history []assistant.Turn) (string, error)
}

// Ledger is the transfer submission collaborator.
type Ledger interface {
	Submit(ctx context.Context, req xrpl.SubmitRequest) (xrpl.SubmitResult, error)
	FundWallet(ctx context.Context) (xrpl.FundedWallet, error)
}

// Transcriber converts a voice recording to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// VoiceFetcher resolves a chat voice note's file reference and downloads
// its audio content.
type VoiceFetcher interface {
	GetFile(ctx context.Context, fileID string) (string, error)
	DownloadFile(ctx context.Context, filePath string) (io.ReadCloser, error)
}

// Messenger delivers outbound chat messages.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}
