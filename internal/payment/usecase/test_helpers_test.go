package usecase_test

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"paypaladin/internal/model"
	"paypaladin/internal/payment/repository"
	"paypaladin/pkg/assistant"
	"paypaladin/pkg/xrpl"
)

// mock dependencies

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, args ...any)                  {}
func (m *mockLogger) Debugf(ctx context.Context, format string, args ...any)  {}
func (m *mockLogger) Info(ctx context.Context, args ...any)                   {}
func (m *mockLogger) Infof(ctx context.Context, format string, args ...any)   {}
func (m *mockLogger) Warn(ctx context.Context, args ...any)                   {}
func (m *mockLogger) Warnf(ctx context.Context, format string, args ...any)   {}
func (m *mockLogger) Error(ctx context.Context, args ...any)                  {}
func (m *mockLogger) Errorf(ctx context.Context, format string, args ...any)  {}
func (m *mockLogger) DPanic(ctx context.Context, args ...any)                 {}
func (m *mockLogger) DPanicf(ctx context.Context, format string, args ...any) {}
func (m *mockLogger) Panic(ctx context.Context, args ...any)                  {}
func (m *mockLogger) Panicf(ctx context.Context, format string, args ...any)  {}
func (m *mockLogger) Fatal(ctx context.Context, args ...any)                  {}
func (m *mockLogger) Fatalf(ctx context.Context, format string, args ...any)  {}

type extractCall struct {
	utterance string
	history   []assistant.Turn
}

type mockExtractor struct {
	mu          sync.Mutex
	calls       []extractCall
	extractFunc func(utterance string, history []assistant.Turn) (string, error)
}

func (m *mockExtractor) Extract(ctx context.Context, utterance string, history []assistant.Turn) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, extractCall{utterance: utterance, history: history})
	m.mu.Unlock()
	if m.extractFunc != nil {
		return m.extractFunc(utterance, history)
	}
	return "", nil
}

func (m *mockExtractor) lastCall() extractCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

type mockLedger struct {
	mu         sync.Mutex
	submits    []xrpl.SubmitRequest
	submitFunc func(req xrpl.SubmitRequest) (xrpl.SubmitResult, error)
	fundFunc   func() (xrpl.FundedWallet, error)
}

func (m *mockLedger) Submit(ctx context.Context, req xrpl.SubmitRequest) (xrpl.SubmitResult, error) {
	m.mu.Lock()
	m.submits = append(m.submits, req)
	m.mu.Unlock()
	if m.submitFunc != nil {
		return m.submitFunc(req)
	}
	return xrpl.SubmitResult{TxHash: "ABC123"}, nil
}

func (m *mockLedger) FundWallet(ctx context.Context) (xrpl.FundedWallet, error) {
	if m.fundFunc != nil {
		return m.fundFunc()
	}
	return xrpl.FundedWallet{Address: "rNewWallet", Seed: "sNewSeed"}, nil
}

func (m *mockLedger) submitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.submits)
}

type sentMessage struct {
	chatID int64
	text   string
}

type mockMessenger struct {
	mu       sync.Mutex
	sent     []sentMessage
	sendFunc func(chatID int64, text string) error
}

func (m *mockMessenger) SendMessage(ctx context.Context, chatID int64, text string) error {
	m.mu.Lock()
	m.sent = append(m.sent, sentMessage{chatID: chatID, text: text})
	m.mu.Unlock()
	if m.sendFunc != nil {
		return m.sendFunc(chatID, text)
	}
	return nil
}

func (m *mockMessenger) last() sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMessage{}
	}
	return m.sent[len(m.sent)-1]
}

func (m *mockMessenger) all() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

type mockVoiceFetcher struct {
	mu      sync.Mutex
	fetched []string
}

func (m *mockVoiceFetcher) GetFile(ctx context.Context, fileID string) (string, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, fileID)
	m.mu.Unlock()
	return "voice/" + fileID + ".oga", nil
}

func (m *mockVoiceFetcher) DownloadFile(ctx context.Context, filePath string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("audio-bytes")), nil
}

type mockTranscriber struct {
	delay time.Duration // simulates a slow transcription backend
	text  string
	err   error
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

type mockWalletRepo struct {
	mu       sync.Mutex
	byUser   map[string]model.Wallet
	byHandle map[string]model.Wallet
	saved    []model.Wallet

	resolveErr error // non-nil forces lookup failures
}

func newMockWalletRepo(wallets ...model.Wallet) *mockWalletRepo {
	r := &mockWalletRepo{
		byUser:   make(map[string]model.Wallet),
		byHandle: make(map[string]model.Wallet),
	}
	for _, w := range wallets {
		r.byUser[w.UserID] = w
		r.byHandle[w.Username] = w
	}
	return r
}

func (m *mockWalletRepo) ResolveWallet(ctx context.Context, userID string) (model.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resolveErr != nil {
		return model.Wallet{}, m.resolveErr
	}
	w, ok := m.byUser[userID]
	if !ok {
		return model.Wallet{}, repository.ErrWalletNotFound
	}
	return w, nil
}

func (m *mockWalletRepo) ResolveByHandle(ctx context.Context, handle string) (model.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resolveErr != nil {
		return model.Wallet{}, m.resolveErr
	}
	w, ok := m.byHandle[handle]
	if !ok {
		return model.Wallet{}, repository.ErrWalletNotFound
	}
	return w, nil
}

func (m *mockWalletRepo) SaveWallet(ctx context.Context, w model.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byUser[w.UserID] = w
	m.byHandle[w.Username] = w
	m.saved = append(m.saved, w)
	return nil
}
