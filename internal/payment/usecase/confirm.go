package usecase

import (
	"fmt"
	"strings"

	"paypaladin/internal/model"
)

type confirmReply int

const (
	replyYes confirmReply = iota
	replyNo
	replyUnrecognized
)

// Confirmation is an exact-match token protocol, not fuzzy matching:
// anything outside these sets re-prompts instead of guessing.
var (
	affirmativeTokens = map[string]struct{}{
		"yes": {}, "y": {}, "yeah": {}, "yep": {}, "confirm": {}, "ok": {}, "okay": {},
	}
	negativeTokens = map[string]struct{}{
		"no": {}, "n": {}, "nope": {}, "cancel": {},
	}
)

func parseConfirmation(text string) confirmReply {
	token := strings.ToLower(strings.TrimSpace(text))
	if _, ok := affirmativeTokens[token]; ok {
		return replyYes
	}
	if _, ok := negativeTokens[token]; ok {
		return replyNo
	}
	return replyUnrecognized
}

// renderConfirmation shows every intent field verbatim so the user confirms
// exactly what will be executed.
func renderConfirmation(intent model.PaymentIntent) string {
	return fmt.Sprintf(MsgConfirmTemplate,
		actionLabel(intent.Action),
		formatAmount(intent.Amount),
		intent.Currency,
		intent.Recipient,
	)
}

func actionLabel(a model.Action) string {
	switch a {
	case model.ActionSend:
		return "Send"
	case model.ActionRequest:
		return "Request"
	default:
		return string(a)
	}
}
