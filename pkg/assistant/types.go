package assistant

// Turn is one prior turn of a slot-filling dialogue, replayed to the
// assistant so clarification accumulates context.
type Turn struct {
	Role string // "user" or "assistant"
	Text string
}

// Config configures the assistant client.
type Config struct {
	APIKey             string
	BaseURL            string // optional, for OpenAI-compatible endpoints
	Model              string // chat model, defaults to DefaultModel
	TranscriptionModel string // defaults to whisper-1
}
