package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"paypaladin/internal/model"
	"paypaladin/internal/payment"
	"paypaladin/internal/payment/usecase"
	"paypaladin/pkg/assistant"
	"paypaladin/pkg/xrpl"
)

var (
	aliceWallet = model.Wallet{UserID: "telegram_1", Username: "alice", Address: "rAlice", Seed: "sAlice", ChatID: 100}
	bobWallet   = model.Wallet{UserID: "telegram_2", Username: "bob", Address: "rBob", Seed: "sBob", ChatID: 200}

	aliceScope = model.Scope{UserID: "telegram_1", Username: "alice", ChatID: 100}

	completeSendJSON = `{"action":"send","amount":5,"currency":"XRP","recipient":"bob"}`
)

func testConfig() usecase.Config {
	return usecase.Config{
		ExtractTimeout: time.Second,
		SubmitTimeout:  time.Second,
		RetryAttempts:  3,
		RetryBaseDelay: time.Millisecond,
	}
}

func say(t *testing.T, uc payment.UseCase, text string) {
	t.Helper()
	if err := uc.HandleMessage(context.Background(), aliceScope, payment.MessageInput{Text: text}); err != nil {
		t.Fatalf("HandleMessage(%q): %v", text, err)
	}
}

func TestHandleMessage(t *testing.T) {
	t.Run("Empty Message Error", func(t *testing.T) {
		uc := usecase.New(&mockLogger{}, &mockExtractor{}, nil, nil, &mockLedger{}, newMockWalletRepo(), &mockMessenger{}, testConfig())
		err := uc.HandleMessage(context.Background(), aliceScope, payment.MessageInput{Text: "   "})
		if !errors.Is(err, payment.ErrEmptyMessage) {
			t.Errorf("expected ErrEmptyMessage, got %v", err)
		}
	})

	t.Run("Happy Path Send", func(t *testing.T) {
		extractor := &mockExtractor{extractFunc: func(string, []assistant.Turn) (string, error) {
			return completeSendJSON, nil
		}}
		ledger := &mockLedger{}
		messenger := &mockMessenger{}
		uc := usecase.New(&mockLogger{}, extractor, nil, nil, ledger, newMockWalletRepo(aliceWallet, bobWallet), messenger, testConfig())

		say(t, uc, "send 5 XRP to @bob")
		if got := messenger.last().text; !strings.Contains(got, "correct? (yes/no)") {
			t.Fatalf("expected confirmation prompt, got %q", got)
		}

		say(t, uc, "yes")
		if ledger.submitCount() != 1 {
			t.Fatalf("expected 1 submission, got %d", ledger.submitCount())
		}

		sent := messenger.all()
		final := sent[len(sent)-1]
		if final.chatID != 100 || !strings.Contains(final.text, "ABC123") {
			t.Errorf("expected settled message with tx ref to sender, got %+v", final)
		}
		// Recipient notification goes to bob's chat.
		recipientNote := sent[len(sent)-2]
		if recipientNote.chatID != 200 || !strings.Contains(recipientNote.text, "@alice") {
			t.Errorf("expected recipient notification, got %+v", recipientNote)
		}

		req := ledger.submits[0]
		if req.SenderAddress != "rAlice" || req.Destination != "rBob" || req.AmountDrops != 5000000 {
			t.Errorf("unexpected submit request: %+v", req)
		}
	})

	t.Run("Slot Filling Accumulates Context", func(t *testing.T) {
		extractor := &mockExtractor{extractFunc: func(utterance string, history []assistant.Turn) (string, error) {
			if len(history) == 0 {
				return `{"missing_fields":["amount"],"prompt":"How much?"}`, nil
			}
			return completeSendJSON, nil
		}}
		messenger := &mockMessenger{}
		uc := usecase.New(&mockLogger{}, extractor, nil, nil, &mockLedger{}, newMockWalletRepo(aliceWallet, bobWallet), messenger, testConfig())

		say(t, uc, "send XRP to @bob")
		if got := messenger.last().text; got != "How much?" {
			t.Fatalf("expected clarification prompt, got %q", got)
		}

		say(t, uc, "5")
		last := extractor.lastCall()
		if len(last.history) != 2 {
			t.Fatalf("expected 2 accumulated turns, got %d", len(last.history))
		}
		if last.history[0].Role != "user" || last.history[1].Role != "assistant" {
			t.Errorf("unexpected history roles: %+v", last.history)
		}
		if !strings.Contains(messenger.last().text, "correct? (yes/no)") {
			t.Errorf("expected confirmation after completed slots, got %q", messenger.last().text)
		}
	})

	t.Run("Decline Discards Context", func(t *testing.T) {
		extractor := &mockExtractor{extractFunc: func(string, []assistant.Turn) (string, error) {
			return completeSendJSON, nil
		}}
		ledger := &mockLedger{}
		messenger := &mockMessenger{}
		uc := usecase.New(&mockLogger{}, extractor, nil, nil, ledger, newMockWalletRepo(aliceWallet, bobWallet), messenger, testConfig())

		say(t, uc, "send 5 XRP to @bob")
		say(t, uc, "no")
		if ledger.submitCount() != 0 {
			t.Fatalf("expected no submission after decline, got %d", ledger.submitCount())
		}
		if got := messenger.last().text; !strings.Contains(got, "cancelled") {
			t.Errorf("expected cancellation message, got %q", got)
		}

		// A restated request starts from a clean slate.
		say(t, uc, "send 1 XRP to @bob")
		if history := extractor.lastCall().history; len(history) != 0 {
			t.Errorf("expected empty history after decline, got %d turns", len(history))
		}
	})

	t.Run("Unrecognized Reply Reprompts Without Side Effects", func(t *testing.T) {
		extractor := &mockExtractor{extractFunc: func(string, []assistant.Turn) (string, error) {
			return completeSendJSON, nil
		}}
		ledger := &mockLedger{}
		messenger := &mockMessenger{}
		uc := usecase.New(&mockLogger{}, extractor, nil, nil, ledger, newMockWalletRepo(aliceWallet, bobWallet), messenger, testConfig())

		say(t, uc, "send 5 XRP to @bob")
		say(t, uc, "hmm maybe")
		say(t, uc, "sure why not")

		if ledger.submitCount() != 0 {
			t.Fatalf("expected no submission on unclear replies, got %d", ledger.submitCount())
		}
		if got := messenger.last().text; !strings.Contains(got, "Please answer yes or no.") {
			t.Errorf("expected yes/no reprompt, got %q", got)
		}

		// The gate still opens on a clear yes.
		say(t, uc, "yes")
		if ledger.submitCount() != 1 {
			t.Errorf("expected submission after eventual yes, got %d", ledger.submitCount())
		}
	})

	t.Run("Unparseable Extraction Reprompts", func(t *testing.T) {
		extractor := &mockExtractor{extractFunc: func(string, []assistant.Turn) (string, error) {
			return "I had trouble with that one.", nil
		}}
		messenger := &mockMessenger{}
		uc := usecase.New(&mockLogger{}, extractor, nil, nil, &mockLedger{}, newMockWalletRepo(aliceWallet, bobWallet), messenger, testConfig())

		say(t, uc, "send money maybe")
		if got := messenger.last().text; !strings.Contains(got, "couldn't work out a payment") {
			t.Errorf("expected rephrase message, got %q", got)
		}
	})

	t.Run("Extractor Outage Leaves State Unchanged", func(t *testing.T) {
		calls := 0
		extractor := &mockExtractor{extractFunc: func(string, []assistant.Turn) (string, error) {
			calls++
			if calls == 1 {
				return "", errors.New("connection refused")
			}
			return completeSendJSON, nil
		}}
		messenger := &mockMessenger{}
		uc := usecase.New(&mockLogger{}, extractor, nil, nil, &mockLedger{}, newMockWalletRepo(aliceWallet, bobWallet), messenger, testConfig())

		say(t, uc, "send 5 XRP to @bob")
		if got := messenger.last().text; !strings.Contains(got, "trouble understanding") {
			t.Fatalf("expected outage message, got %q", got)
		}

		// Retrying the same message works and starts fresh.
		say(t, uc, "send 5 XRP to @bob")
		if history := extractor.lastCall().history; len(history) != 0 {
			t.Errorf("expected no history carried over an outage, got %d turns", len(history))
		}
	})

	t.Run("Recipient Unknown", func(t *testing.T) {
		extractor := &mockExtractor{extractFunc: func(string, []assistant.Turn) (string, error) {
			return `{"action":"send","amount":5,"currency":"XRP","recipient":"stranger"}`, nil
		}}
		messenger := &mockMessenger{}
		uc := usecase.New(&mockLogger{}, extractor, nil, nil, &mockLedger{}, newMockWalletRepo(aliceWallet, bobWallet), messenger, testConfig())

		say(t, uc, "send 5 XRP to @stranger")
		say(t, uc, "yes")
		if got := messenger.last().text; !strings.Contains(got, "@stranger isn't registered") {
			t.Errorf("expected recipient-unknown message, got %q", got)
		}
	})

	t.Run("Sender Has No Wallet", func(t *testing.T) {
		extractor := &mockExtractor{extractFunc: func(string, []assistant.Turn) (string, error) {
			return completeSendJSON, nil
		}}
		messenger := &mockMessenger{}
		uc := usecase.New(&mockLogger{}, extractor, nil, nil, &mockLedger{}, newMockWalletRepo(bobWallet), messenger, testConfig())

		say(t, uc, "send 5 XRP to @bob")
		say(t, uc, "yes")
		if got := messenger.last().text; !strings.Contains(got, "don't have a wallet") {
			t.Errorf("expected no-wallet message, got %q", got)
		}
	})

	t.Run("Request Action Notifies Recipient", func(t *testing.T) {
		extractor := &mockExtractor{extractFunc: func(string, []assistant.Turn) (string, error) {
			return `{"action":"request","amount":5,"currency":"XRP","recipient":"bob"}`, nil
		}}
		ledger := &mockLedger{}
		messenger := &mockMessenger{}
		uc := usecase.New(&mockLogger{}, extractor, nil, nil, ledger, newMockWalletRepo(aliceWallet, bobWallet), messenger, testConfig())

		say(t, uc, "request 5 XRP from @bob")
		say(t, uc, "yes")
		if ledger.submitCount() != 0 {
			t.Fatalf("a request must move no funds, got %d submissions", ledger.submitCount())
		}

		sent := messenger.all()
		final := sent[len(sent)-1]
		if final.chatID != 100 || !strings.Contains(final.text, "request for 5 XRP") {
			t.Errorf("expected request confirmation to sender, got %+v", final)
		}
		note := sent[len(sent)-2]
		if note.chatID != 200 || !strings.Contains(note.text, "@alice requests") {
			t.Errorf("expected request notification to recipient, got %+v", note)
		}
	})

	t.Run("Unsupported Currency Rejected", func(t *testing.T) {
		extractor := &mockExtractor{extractFunc: func(string, []assistant.Turn) (string, error) {
			return `{"action":"send","amount":5,"currency":"BTC","recipient":"bob"}`, nil
		}}
		ledger := &mockLedger{}
		messenger := &mockMessenger{}
		uc := usecase.New(&mockLogger{}, extractor, nil, nil, ledger, newMockWalletRepo(aliceWallet, bobWallet), messenger, testConfig())

		say(t, uc, "send 5 BTC to @bob")
		say(t, uc, "yes")
		if ledger.submitCount() != 0 {
			t.Fatalf("expected no submission for unsupported currency")
		}
		if got := messenger.last().text; !strings.Contains(got, "only XRP transfers") {
			t.Errorf("expected unsupported-currency rejection, got %q", got)
		}
	})

	t.Run("Transient Failures Retry With Same Token", func(t *testing.T) {
		extractor := &mockExtractor{extractFunc: func(string, []assistant.Turn) (string, error) {
			return completeSendJSON, nil
		}}
		attempts := 0
		ledger := &mockLedger{submitFunc: func(req xrpl.SubmitRequest) (xrpl.SubmitResult, error) {
			attempts++
			if attempts < 3 {
				return xrpl.SubmitResult{}, fmt.Errorf("%w: connection reset", xrpl.ErrTransient)
			}
			return xrpl.SubmitResult{TxHash: "DEADBEEF"}, nil
		}}
		messenger := &mockMessenger{}
		uc := usecase.New(&mockLogger{}, extractor, nil, nil, ledger, newMockWalletRepo(aliceWallet, bobWallet), messenger, testConfig())

		say(t, uc, "send 5 XRP to @bob")
		say(t, uc, "yes")

		if ledger.submitCount() != 3 {
			t.Fatalf("expected 3 attempts, got %d", ledger.submitCount())
		}
		token := ledger.submits[0].IdempotencyKey
		if token == "" {
			t.Fatal("expected a minted idempotency token")
		}
		for i, req := range ledger.submits {
			if req.IdempotencyKey != token {
				t.Errorf("attempt %d used token %q, want %q", i+1, req.IdempotencyKey, token)
			}
		}
		if got := messenger.last().text; !strings.Contains(got, "DEADBEEF") {
			t.Errorf("expected settled message after retries, got %q", got)
		}
	})

	t.Run("Definitive Rejection Does Not Retry", func(t *testing.T) {
		extractor := &mockExtractor{extractFunc: func(string, []assistant.Turn) (string, error) {
			return completeSendJSON, nil
		}}
		ledger := &mockLedger{submitFunc: func(xrpl.SubmitRequest) (xrpl.SubmitResult, error) {
			return xrpl.SubmitResult{}, &xrpl.RejectionError{Code: "tecUNFUNDED_PAYMENT", Reason: "insufficient balance"}
		}}
		messenger := &mockMessenger{}
		uc := usecase.New(&mockLogger{}, extractor, nil, nil, ledger, newMockWalletRepo(aliceWallet, bobWallet), messenger, testConfig())

		say(t, uc, "send 5 XRP to @bob")
		say(t, uc, "yes")

		if ledger.submitCount() != 1 {
			t.Fatalf("rejections must not retry, got %d attempts", ledger.submitCount())
		}
		if got := messenger.last().text; !strings.Contains(got, "insufficient balance") {
			t.Errorf("expected rejection reason in message, got %q", got)
		}
	})

	t.Run("Retry Budget Exhausted", func(t *testing.T) {
		extractor := &mockExtractor{extractFunc: func(string, []assistant.Turn) (string, error) {
			return completeSendJSON, nil
		}}
		ledger := &mockLedger{submitFunc: func(xrpl.SubmitRequest) (xrpl.SubmitResult, error) {
			return xrpl.SubmitResult{}, fmt.Errorf("%w: timeout", xrpl.ErrTransient)
		}}
		messenger := &mockMessenger{}
		uc := usecase.New(&mockLogger{}, extractor, nil, nil, ledger, newMockWalletRepo(aliceWallet, bobWallet), messenger, testConfig())

		say(t, uc, "send 5 XRP to @bob")
		say(t, uc, "yes")

		if ledger.submitCount() != 3 {
			t.Fatalf("expected full retry budget, got %d attempts", ledger.submitCount())
		}
		if got := messenger.last().text; !strings.Contains(got, "couldn't reach the ledger") {
			t.Errorf("expected failure message, got %q", got)
		}
	})

	t.Run("Fresh Conversation After Terminal Outcome", func(t *testing.T) {
		extractor := &mockExtractor{extractFunc: func(string, []assistant.Turn) (string, error) {
			return completeSendJSON, nil
		}}
		ledger := &mockLedger{}
		messenger := &mockMessenger{}
		uc := usecase.New(&mockLogger{}, extractor, nil, nil, ledger, newMockWalletRepo(aliceWallet, bobWallet), messenger, testConfig())

		say(t, uc, "send 5 XRP to @bob")
		say(t, uc, "yes")
		say(t, uc, "send 5 XRP to @bob")
		say(t, uc, "yes")

		if ledger.submitCount() != 2 {
			t.Fatalf("expected 2 independent transfers, got %d", ledger.submitCount())
		}
		if ledger.submits[0].IdempotencyKey == ledger.submits[1].IdempotencyKey {
			t.Error("independent transfers must not share an idempotency token")
		}
	})

	t.Run("Enqueued Step Failure Reports Back", func(t *testing.T) {
		extractor := &mockExtractor{extractFunc: func(string, []assistant.Turn) (string, error) {
			return completeSendJSON, nil
		}}
		messenger := &mockMessenger{sendFunc: func(chatID int64, text string) error {
			if strings.Contains(text, "correct? (yes/no)") {
				return errors.New("chat blocked")
			}
			return nil
		}}
		uc := usecase.New(&mockLogger{}, extractor, nil, nil, &mockLedger{}, newMockWalletRepo(aliceWallet, bobWallet), messenger, testConfig())

		uc.EnqueueMessage(aliceScope, payment.MessageInput{Text: "send 5 XRP to @bob"})
		waitUntil(t, func() bool { return messenger.last().text == usecase.MsgProcessingFailed })
	})
}

// waitUntil polls cond until it holds or the deadline passes. Used with
// EnqueueMessage, which returns before its step has run.
func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for background steps")
}

func TestVoiceMessages(t *testing.T) {
	t.Run("Transcribed Text Drives The Conversation", func(t *testing.T) {
		extractor := &mockExtractor{extractFunc: func(string, []assistant.Turn) (string, error) {
			return completeSendJSON, nil
		}}
		messenger := &mockMessenger{}
		voice := &mockVoiceFetcher{}
		transcriber := &mockTranscriber{text: "send 5 XRP to bob"}
		uc := usecase.New(&mockLogger{}, extractor, voice, transcriber, &mockLedger{}, newMockWalletRepo(aliceWallet, bobWallet), messenger, testConfig())

		err := uc.HandleMessage(context.Background(), aliceScope, payment.MessageInput{VoiceFileID: "voice-1"})
		if err != nil {
			t.Fatalf("HandleMessage: %v", err)
		}
		if got := extractor.lastCall().utterance; got != "send 5 XRP to bob" {
			t.Errorf("expected transcribed text at the extractor, got %q", got)
		}
		if !strings.Contains(messenger.last().text, "correct? (yes/no)") {
			t.Errorf("expected confirmation prompt, got %q", messenger.last().text)
		}
		if len(voice.fetched) != 1 || voice.fetched[0] != "voice-1" {
			t.Errorf("expected one fetch of voice-1, got %v", voice.fetched)
		}
	})

	t.Run("Slow Transcription Does Not Reorder Messages", func(t *testing.T) {
		// A spoken "yes" followed by a quick typed "no": the voice note
		// must be transcribed inside its own serialized turn, so the "no"
		// cannot overtake it however slow the transcriber is.
		var extractions int
		extractor := &mockExtractor{extractFunc: func(string, []assistant.Turn) (string, error) {
			extractions++
			if extractions == 1 {
				return completeSendJSON, nil
			}
			return "not a payment", nil
		}}
		ledger := &mockLedger{}
		messenger := &mockMessenger{}
		transcriber := &mockTranscriber{delay: 300 * time.Millisecond, text: "yes"}
		uc := usecase.New(&mockLogger{}, extractor, &mockVoiceFetcher{}, transcriber, ledger, newMockWalletRepo(aliceWallet, bobWallet), messenger, testConfig())

		say(t, uc, "send 5 XRP to @bob")

		uc.EnqueueMessage(aliceScope, payment.MessageInput{VoiceFileID: "voice-yes"})
		uc.EnqueueMessage(aliceScope, payment.MessageInput{Text: "no"})

		waitUntil(t, func() bool { return len(messenger.all()) >= 4 })

		if ledger.submitCount() != 1 {
			t.Fatalf("the spoken confirmation should settle the transfer, got %d submissions", ledger.submitCount())
		}

		// Order of replies to alice: confirmation prompt, settled receipt,
		// then the "no" lands on an idle session and draws a rephrase.
		var toAlice []string
		for _, m := range messenger.all() {
			if m.chatID == aliceScope.ChatID {
				toAlice = append(toAlice, m.text)
			}
		}
		if len(toAlice) != 3 {
			t.Fatalf("expected 3 replies to sender, got %d: %v", len(toAlice), toAlice)
		}
		if !strings.Contains(toAlice[1], "Sent 5 XRP to @bob") {
			t.Errorf("expected settled receipt second, got %q", toAlice[1])
		}
		if toAlice[2] != usecase.MsgPleaseRephrase {
			t.Errorf("expected rephrase prompt last, got %q", toAlice[2])
		}
	})

	t.Run("Transcription Failure Asks For Retype", func(t *testing.T) {
		extractor := &mockExtractor{}
		messenger := &mockMessenger{}
		transcriber := &mockTranscriber{err: errors.New("speech backend down")}
		uc := usecase.New(&mockLogger{}, extractor, &mockVoiceFetcher{}, transcriber, &mockLedger{}, newMockWalletRepo(aliceWallet), messenger, testConfig())

		err := uc.HandleMessage(context.Background(), aliceScope, payment.MessageInput{VoiceFileID: "voice-2"})
		if err != nil {
			t.Fatalf("HandleMessage: %v", err)
		}
		if got := messenger.last().text; got != usecase.MsgVoiceUnclear {
			t.Errorf("expected voice retry message, got %q", got)
		}
		if len(extractor.calls) != 0 {
			t.Error("a failed transcription must not reach the extractor")
		}
	})
}
