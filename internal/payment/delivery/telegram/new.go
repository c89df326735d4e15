package telegram

import (
	"github.com/gin-gonic/gin"

	"paypaladin/internal/payment"
	pkgLog "paypaladin/pkg/log"
	pkgTelegram "paypaladin/pkg/telegram"
)

// Handler is the interface for the Telegram delivery handler.
type Handler interface {
	HandleWebhook(c *gin.Context)
}

// New creates a new Telegram delivery handler.
func New(
	l pkgLog.Logger,
	uc payment.UseCase,
	bot *pkgTelegram.Bot,
) Handler {
	return &handler{
		l:   l,
		uc:  uc,
		bot: bot,
	}
}
