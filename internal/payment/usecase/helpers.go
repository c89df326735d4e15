package usecase

import (
	"strconv"

	"paypaladin/internal/model"
	"paypaladin/pkg/assistant"
)

func toAssistantTurns(context []model.DialogueTurn) []assistant.Turn {
	if len(context) == 0 {
		return nil
	}
	turns := make([]assistant.Turn, len(context))
	for i, t := range context {
		turns[i] = assistant.Turn{Role: t.Role, Text: t.Text}
	}
	return turns
}

// appendTurn grows the dialogue context, dropping the oldest turns beyond
// the replay cap. Intended for use inside store.Update mutations.
func appendTurn(s *model.ConversationSession, turn model.DialogueTurn) {
	s.DialogueContext = append(s.DialogueContext, turn)
	if overflow := len(s.DialogueContext) - MaxDialogueTurns; overflow > 0 {
		s.DialogueContext = s.DialogueContext[overflow:]
	}
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
