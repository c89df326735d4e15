package telegram

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"paypaladin/internal/model"
	"paypaladin/internal/payment"
	pkgLog "paypaladin/pkg/log"
	pkgResponse "paypaladin/pkg/response"
	pkgTelegram "paypaladin/pkg/telegram"
)

type handler struct {
	l   pkgLog.Logger
	uc  payment.UseCase
	bot *pkgTelegram.Bot
}

// HandleWebhook is the Gin handler for incoming Telegram webhook updates.
// Conversation messages are enqueued onto the user's serialized queue
// before the HTTP 200 is written, so arrival order is fixed here and the
// pipeline (transcription, extraction, ledger, retries) runs on the queue
// worker without holding Telegram's webhook timeout hostage.
func (h *handler) HandleWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	var update pkgTelegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		h.l.Errorf(ctx, "telegram handler: failed to parse update: %v", err)
		pkgResponse.Error(c, err, nil)
		return
	}

	// Ignore non-message updates (polls, channel_post, etc.)
	if update.Message == nil || update.Message.From == nil || update.Message.Chat == nil {
		pkgResponse.OK(c, map[string]string{"status": "ignored"})
		return
	}

	msg := update.Message
	sc := model.Scope{
		UserID:   fmt.Sprintf("telegram_%d", msg.From.ID),
		Username: msg.From.Username,
		ChatID:   msg.Chat.ID,
	}

	// Built-in commands never touch conversation state, so they run on
	// their own goroutine with a context detached from the request.
	switch msg.Text {
	case "/start", "/help", "/status":
		go func() {
			bgCtx := context.Background()
			if err := h.handleCommand(bgCtx, sc, msg.Text); err != nil {
				h.l.Errorf(bgCtx, "telegram handler: command %s failed for %s: %v", msg.Text, sc.UserID, err)
			}
		}()
		pkgResponse.OK(c, map[string]string{"status": "accepted"})
		return
	}

	input := payment.MessageInput{Text: msg.Text}
	if msg.Voice != nil {
		// The transcription itself happens inside the serialized turn.
		input.VoiceFileID = msg.Voice.FileID
	}
	if input.Text == "" && input.VoiceFileID == "" {
		pkgResponse.OK(c, map[string]string{"status": "ignored"})
		return
	}

	h.uc.EnqueueMessage(sc, input)
	pkgResponse.OK(c, map[string]string{"status": "accepted"})
}

// handleCommand replies to the built-in bot commands.
func (h *handler) handleCommand(ctx context.Context, sc model.Scope, command string) error {
	switch command {
	case "/start":
		return h.bot.SendMessage(ctx, sc.ChatID,
			"👋 Hi, I'm PayPaladin! Tell me about a payment in plain language — typed or spoken — and I'll take care of it.\n\nFor example: \"send 5 XRP to @bob\". Use /status to see (or create) your wallet.")
	case "/help":
		return h.bot.SendMessage(ctx, sc.ChatID,
			"Describe the payment you want, e.g. \"send 5 XRP to @bob\" or \"request 10 XRP from @alice\". I'll ask for anything that's missing and confirm before doing anything. /status shows your wallet address.")
	default: // /status
		return h.walletStatus(ctx, sc)
	}
}

// walletStatus replies with the user's wallet address, provisioning one on
// first use.
func (h *handler) walletStatus(ctx context.Context, sc model.Scope) error {
	status, err := h.uc.ProvisionWallet(ctx, sc)
	if err != nil {
		h.l.Errorf(ctx, "telegram handler: ProvisionWallet failed for %s: %v", sc.UserID, err)
		return h.bot.SendMessage(ctx, sc.ChatID, "I couldn't look up your wallet right now. Please try again in a moment.")
	}

	if status.Created {
		return h.bot.SendMessage(ctx, sc.ChatID,
			fmt.Sprintf("🎉 Created a funded testnet wallet for you.\nYour wallet address is: %s", status.Address))
	}
	return h.bot.SendMessage(ctx, sc.ChatID, fmt.Sprintf("Your wallet address is: %s", status.Address))
}
