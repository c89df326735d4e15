package usecase

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"paypaladin/internal/model"
	"paypaladin/internal/payment"
	"paypaladin/internal/payment/session"
)

// HandleMessage runs one orchestration step and blocks until it has run.
// Steps for the same user are serialized in arrival order through the
// per-user queue.
func (uc *implUseCase) HandleMessage(ctx context.Context, sc model.Scope, input payment.MessageInput) error {
	done := make(chan error, 1)
	uc.queue.Do(sc.UserID, func() {
		done <- uc.runStep(ctx, sc, input)
	})
	return <-done
}

// EnqueueMessage captures the user's next serialized turn and returns
// immediately. The queue position is taken inside this call, so two
// messages enqueued in sequence always run in that sequence, however long
// either step takes. The step runs on the user's queue worker with a
// detached context: the webhook response must not cancel a dispatch in
// flight.
func (uc *implUseCase) EnqueueMessage(sc model.Scope, input payment.MessageInput) {
	uc.queue.Do(sc.UserID, func() {
		ctx := context.Background()
		if err := uc.runStep(ctx, sc, input); err != nil && !errors.Is(err, payment.ErrEmptyMessage) {
			uc.l.Errorf(ctx, "%s: step failed for %s: %v", LogPrefixHandle, sc.UserID, err)
			_ = uc.messenger.SendMessage(ctx, sc.ChatID, MsgProcessingFailed)
		}
	})
}

// runStep resolves the message text and routes it by conversation phase.
// Voice notes are transcribed here, inside the serialized turn, so a slow
// transcription cannot let a later message overtake this one.
func (uc *implUseCase) runStep(ctx context.Context, sc model.Scope, input payment.MessageInput) error {
	text := input.Text
	if input.VoiceFileID != "" {
		transcribed, err := uc.transcribeVoice(ctx, input.VoiceFileID)
		if err != nil {
			uc.l.Warnf(ctx, "%s: transcription failed for %s: %v", LogPrefixHandle, sc.UserID, err)
			return uc.messenger.SendMessage(ctx, sc.ChatID, MsgVoiceUnclear)
		}
		text = transcribed
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return payment.ErrEmptyMessage
	}
	return uc.step(ctx, sc, text)
}

// transcribeVoice downloads a voice note and runs it through the
// transcriber.
func (uc *implUseCase) transcribeVoice(ctx context.Context, fileID string) (string, error) {
	filePath, err := uc.voice.GetFile(ctx, fileID)
	if err != nil {
		return "", fmt.Errorf("resolve voice file: %w", err)
	}

	body, err := uc.voice.DownloadFile(ctx, filePath)
	if err != nil {
		return "", fmt.Errorf("download voice file: %w", err)
	}
	defer body.Close()

	text, err := uc.transcriber.Transcribe(ctx, body, path.Base(filePath))
	if err != nil {
		return "", fmt.Errorf("%w: %v", payment.ErrTranscription, err)
	}
	return text, nil
}

// step routes one inbound message by conversation phase.
func (uc *implUseCase) step(ctx context.Context, sc model.Scope, text string) error {
	sess := uc.store.Get(sc.UserID)

	switch sess.State {
	case model.StateIdle, model.StateAwaitingSlots:
		return uc.fillSlots(ctx, sc, sess, text)
	case model.StateAwaitingConfirmation:
		return uc.confirmStep(ctx, sc, sess, text)
	case model.StateExecuting:
		// Executing is transient within one serialized step; observing it
		// here means something re-entered the queue out of band. Do not
		// touch the pending transfer.
		return uc.messenger.SendMessage(ctx, sc.ChatID, MsgBusy)
	default:
		return fmt.Errorf("unknown session state %q for %s", sess.State, sc.UserID)
	}
}

// fillSlots runs one slot-filling round: extract with accumulated context,
// then branch on the normalized result.
func (uc *implUseCase) fillSlots(ctx context.Context, sc model.Scope, sess model.ConversationSession, text string) error {
	extractCtx, cancel := context.WithTimeout(ctx, uc.cfg.ExtractTimeout)
	raw, err := uc.extractor.Extract(extractCtx, text, toAssistantTurns(sess.DialogueContext))
	cancel()
	if err != nil {
		// Timeout and transport errors behave the same: no state advance,
		// the user may simply try again.
		uc.l.Warnf(ctx, "%s: extraction failed for %s: %v", LogPrefixHandle, sc.UserID, err)
		return uc.messenger.SendMessage(ctx, sc.ChatID, MsgExtractorUnavailable)
	}

	res := normalize(raw)
	switch res.kind {
	case normUnparseable:
		// Surfaced instead of silently re-asking the extractor, so a broken
		// extractor cannot loop forever.
		if sess.State == model.StateAwaitingSlots {
			uc.store.Update(sc.UserID, func(s *model.ConversationSession) {
				appendTurn(s, model.DialogueTurn{Role: "user", Text: text})
			})
		}
		return uc.messenger.SendMessage(ctx, sc.ChatID, MsgPleaseRephrase)

	case normIncomplete:
		uc.store.Update(sc.UserID, func(s *model.ConversationSession) {
			s.State = model.StateAwaitingSlots
			appendTurn(s, model.DialogueTurn{Role: "user", Text: text})
			appendTurn(s, model.DialogueTurn{Role: "assistant", Text: res.prompt})
		})
		uc.l.Infof(ctx, "%s: user=%s missing=%v", LogPrefixHandle, sc.UserID, res.missing)
		return uc.messenger.SendMessage(ctx, sc.ChatID, res.prompt)

	case normComplete:
		intent := res.intent
		uc.store.Update(sc.UserID, func(s *model.ConversationSession) {
			s.State = model.StateAwaitingConfirmation
			s.PendingIntent = &intent
		})
		uc.l.Infof(ctx, "%s: user=%s intent complete (%s %s %s -> @%s)",
			LogPrefixHandle, sc.UserID, intent.Action, formatAmount(intent.Amount), intent.Currency, intent.Recipient)
		return uc.messenger.SendMessage(ctx, sc.ChatID, renderConfirmation(intent))
	}
	return nil
}

// confirmStep gates execution behind an explicit affirmative reply.
func (uc *implUseCase) confirmStep(ctx context.Context, sc model.Scope, sess model.ConversationSession, text string) error {
	if sess.PendingIntent == nil {
		// Should be unreachable: pendingIntent is set on every transition
		// into AwaitingConfirmation. Recover by resetting.
		uc.l.Errorf(ctx, "%s: awaiting confirmation without pending intent for %s", LogPrefixHandle, sc.UserID)
		uc.store.Update(sc.UserID, func(s *model.ConversationSession) { session.ResetToIdle(s) })
		return uc.messenger.SendMessage(ctx, sc.ChatID, MsgPleaseRephrase)
	}

	switch parseConfirmation(text) {
	case replyNo:
		// Prior dialogue context is discarded with the intent so a restated
		// request cannot be contaminated by stale slots.
		uc.store.Update(sc.UserID, func(s *model.ConversationSession) { session.ResetToIdle(s) })
		return uc.messenger.SendMessage(ctx, sc.ChatID, MsgDeclined)

	case replyUnrecognized:
		// Protocol-level loop: bounded by the user's patience, not a
		// counter. No side effect happens until a clear yes.
		return uc.messenger.SendMessage(ctx, sc.ChatID, renderConfirmation(*sess.PendingIntent)+" "+MsgAnswerYesNo)

	default: // replyYes
		return uc.execute(ctx, sc, *sess.PendingIntent)
	}
}

// execute runs the dispatch for a confirmed intent and reports the outcome.
func (uc *implUseCase) execute(ctx context.Context, sc model.Scope, intent model.PaymentIntent) error {
	// The idempotency token is minted once, before the first submission
	// attempt, and survives every retry of this intent.
	updated := uc.store.Update(sc.UserID, func(s *model.ConversationSession) {
		s.State = model.StateExecuting
		if s.PendingTransferID == "" {
			s.PendingTransferID = uuid.NewString()
		}
	})

	outcome := uc.dispatch(ctx, sc, intent, updated.PendingTransferID)

	// Every outcome is terminal: back to Idle, pending state cleared.
	uc.store.Update(sc.UserID, func(s *model.ConversationSession) { session.ResetToIdle(s) })

	return uc.notify(ctx, sc, intent, outcome)
}

// notify maps a transfer outcome onto user-facing messages.
func (uc *implUseCase) notify(ctx context.Context, sc model.Scope, intent model.PaymentIntent, outcome payment.TransferOutcome) error {
	amount := formatAmount(intent.Amount)

	switch outcome.Kind {
	case payment.OutcomeSettled:
		if outcome.Recipient.ChatID != 0 {
			if err := uc.messenger.SendMessage(ctx, outcome.Recipient.ChatID,
				fmt.Sprintf(MsgSettledRecipient, amount, intent.Currency, sc.Username)); err != nil {
				uc.l.Warnf(ctx, "%s: recipient notification failed: %v", LogPrefixHandle, err)
			}
		}
		return uc.messenger.SendMessage(ctx, sc.ChatID,
			fmt.Sprintf(MsgSettledSender, amount, intent.Currency, intent.Recipient, outcome.TxRef))

	case payment.OutcomeRequested:
		if outcome.Recipient.ChatID != 0 {
			if err := uc.messenger.SendMessage(ctx, outcome.Recipient.ChatID,
				fmt.Sprintf(MsgRequestRecipient, sc.Username, amount, intent.Currency, amount, intent.Currency, sc.Username)); err != nil {
				uc.l.Warnf(ctx, "%s: request notification failed: %v", LogPrefixHandle, err)
			}
		}
		return uc.messenger.SendMessage(ctx, sc.ChatID,
			fmt.Sprintf(MsgRequestedSender, amount, intent.Currency, intent.Recipient))

	case payment.OutcomeRecipientUnknown:
		return uc.messenger.SendMessage(ctx, sc.ChatID, fmt.Sprintf(MsgRecipientUnknown, intent.Recipient))

	case payment.OutcomeNoWallet:
		return uc.messenger.SendMessage(ctx, sc.ChatID, MsgNoWallet)

	case payment.OutcomeRejected:
		return uc.messenger.SendMessage(ctx, sc.ChatID, fmt.Sprintf(MsgRejected, outcome.Reason))

	default: // OutcomeFailed
		return uc.messenger.SendMessage(ctx, sc.ChatID, MsgFailed)
	}
}
