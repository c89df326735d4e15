package usecase

import (
	"context"
	"time"

	"paypaladin/internal/payment"
	"paypaladin/internal/payment/repository"
	"paypaladin/internal/payment/session"
	pkgLog "paypaladin/pkg/log"
)

// Config holds the orchestration tuning knobs.
type Config struct {
	ExtractTimeout time.Duration // per extraction call
	SubmitTimeout  time.Duration // per ledger submission attempt
	RetryAttempts  int           // total submission attempts per intent
	RetryBaseDelay time.Duration // first backoff delay, doubled per retry
	AbandonAfter   time.Duration // slot-filling sessions quiet this long reset to Idle
	SweepInterval  time.Duration // abandonment sweep cadence; 0 disables the sweeper
}

type implUseCase struct {
	l           pkgLog.Logger
	extractor   payment.IntentExtractor
	voice       payment.VoiceFetcher
	transcriber payment.Transcriber
	ledger      payment.Ledger
	wallets     repository.WalletRepository
	messenger   payment.Messenger
	store       *session.Store
	queue       *session.Queue
	cfg         Config
}

// New creates the payment conversation UseCase and starts the abandonment
// sweeper when configured. voice and transcriber may be nil when voice
// notes are not wired; text messages never touch them.
func New(
	l pkgLog.Logger,
	extractor payment.IntentExtractor,
	voice payment.VoiceFetcher,
	transcriber payment.Transcriber,
	ledger payment.Ledger,
	wallets repository.WalletRepository,
	messenger payment.Messenger,
	cfg Config,
) *implUseCase {
	if cfg.ExtractTimeout <= 0 {
		cfg.ExtractTimeout = DefaultExtractTimeout
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = DefaultSubmitTimeout
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = DefaultRetryAttempts
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if cfg.AbandonAfter <= 0 {
		cfg.AbandonAfter = DefaultAbandonAfter
	}

	uc := &implUseCase{
		l:           l,
		extractor:   extractor,
		voice:       voice,
		transcriber: transcriber,
		ledger:      ledger,
		wallets:     wallets,
		messenger:   messenger,
		store:       session.NewStore(),
		queue:       session.NewQueue(),
		cfg:         cfg,
	}

	if cfg.SweepInterval > 0 {
		go uc.sweepAbandonedSessions()
	}

	return uc
}

// sweepAbandonedSessions periodically resets stalled slot-filling sessions.
func (uc *implUseCase) sweepAbandonedSessions() {
	ticker := time.NewTicker(uc.cfg.SweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		if n := uc.store.SweepAbandoned(uc.cfg.AbandonAfter); n > 0 {
			uc.l.Infof(context.Background(), "%s: reset %d abandoned session(s)", LogPrefixSweep, n)
		}
	}
}
