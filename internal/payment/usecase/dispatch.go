package usecase

import (
	"context"
	"errors"
	"time"

	"paypaladin/internal/model"
	"paypaladin/internal/payment"
	"paypaladin/internal/payment/repository"
	"paypaladin/pkg/xrpl"
)

// dispatch executes one confirmed intent against the ledger. Resolution
// failures are terminal; only transport-class submission failures are
// retried, always with the same idempotency token.
func (uc *implUseCase) dispatch(ctx context.Context, sc model.Scope, intent model.PaymentIntent, token string) payment.TransferOutcome {
	recipient, err := uc.wallets.ResolveByHandle(ctx, intent.Recipient)
	if errors.Is(err, repository.ErrWalletNotFound) {
		return payment.TransferOutcome{Kind: payment.OutcomeRecipientUnknown}
	}
	if err != nil {
		uc.l.Errorf(ctx, "%s: recipient lookup failed for @%s: %v", LogPrefixDispatch, intent.Recipient, err)
		return payment.TransferOutcome{Kind: payment.OutcomeFailed, Reason: "wallet lookup failed"}
	}

	sender, err := uc.wallets.ResolveWallet(ctx, sc.UserID)
	if errors.Is(err, repository.ErrWalletNotFound) {
		return payment.TransferOutcome{Kind: payment.OutcomeNoWallet, Recipient: recipient}
	}
	if err != nil {
		uc.l.Errorf(ctx, "%s: sender lookup failed for %s: %v", LogPrefixDispatch, sc.UserID, err)
		return payment.TransferOutcome{Kind: payment.OutcomeFailed, Reason: "wallet lookup failed", Recipient: recipient}
	}

	// A request moves no funds; delivery of the notification is the outcome.
	if intent.Action == model.ActionRequest {
		return payment.TransferOutcome{Kind: payment.OutcomeRequested, Recipient: recipient}
	}

	if intent.Currency != "XRP" {
		return payment.TransferOutcome{
			Kind:      payment.OutcomeRejected,
			Reason:    ReasonUnsupportedCurrency,
			Recipient: recipient,
		}
	}

	req := xrpl.SubmitRequest{
		SenderAddress:  sender.Address,
		SenderSeed:     sender.Seed,
		Destination:    recipient.Address,
		AmountDrops:    xrpl.XRPToDrops(intent.Amount),
		IdempotencyKey: token,
	}

	delay := uc.cfg.RetryBaseDelay
	var lastErr error

	for attempt := 1; attempt <= uc.cfg.RetryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return payment.TransferOutcome{Kind: payment.OutcomeFailed, Reason: "cancelled", Recipient: recipient}
			}
			delay *= 2
		}

		// Recorded so the session reflects how far into the retry budget
		// the executing transfer is; cleared with the rest of the pending
		// state on the terminal transition.
		uc.store.Update(sc.UserID, func(s *model.ConversationSession) { s.RetryCount = attempt })

		submitCtx, cancel := context.WithTimeout(ctx, uc.cfg.SubmitTimeout)
		res, err := uc.ledger.Submit(submitCtx, req)
		cancel()

		if err == nil {
			return payment.TransferOutcome{Kind: payment.OutcomeSettled, TxRef: res.TxHash, Recipient: recipient}
		}

		var rej *xrpl.RejectionError
		if errors.As(err, &rej) {
			return payment.TransferOutcome{Kind: payment.OutcomeRejected, Reason: rej.Reason, Recipient: recipient}
		}

		// Transient (network/timeout class): same token on the next attempt,
		// so an ambiguous submission cannot settle twice.
		lastErr = err
		uc.l.Warnf(ctx, "%s: attempt %d/%d failed for %s: %v",
			LogPrefixDispatch, attempt, uc.cfg.RetryAttempts, sc.UserID, err)
	}

	uc.l.Errorf(ctx, "%s: retry budget exhausted for %s: %v", LogPrefixDispatch, sc.UserID, lastErr)
	return payment.TransferOutcome{Kind: payment.OutcomeFailed, Reason: "ledger unreachable", Recipient: recipient}
}
