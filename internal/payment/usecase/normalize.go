package usecase

import (
	"encoding/json"
	"strconv"
	"strings"

	"paypaladin/internal/model"
)

type normalizeKind int

const (
	normComplete normalizeKind = iota
	normIncomplete
	normUnparseable
)

// requiredFields are the exact keys a complete extractor payload must carry.
var requiredFields = [4]string{"action", "amount", "currency", "recipient"}

// normalizedResult is the validated form of one raw extractor reply.
type normalizedResult struct {
	kind    normalizeKind
	intent  model.PaymentIntent // set for normComplete
	missing []string            // set for normIncomplete
	prompt  string              // clarification question for normIncomplete
}

// normalize validates raw extractor output. Field presence is decided by
// exact key match on the JSON payload, never by substring search, so prose
// that merely mentions a field name cannot count as providing it.
func normalize(raw string) normalizedResult {
	blob := extractJSONObject(raw)
	if blob == "" {
		return normalizedResult{kind: normUnparseable}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(blob), &fields); err != nil {
		return normalizedResult{kind: normUnparseable}
	}

	// Clarification shape: an explicit missing-field list from the extractor.
	if rawMissing, ok := fields["missing_fields"]; ok {
		return normalizeMissing(rawMissing, fields)
	}

	intent := model.PaymentIntent{}
	var missing []string

	if action, ok := stringField(fields, "action"); ok {
		intent.Action = model.Action(strings.ToLower(strings.TrimSpace(action)))
	}
	if !intent.Action.Valid() {
		missing = append(missing, "action")
	}

	if amount, ok := numberField(fields, "amount"); ok && amount > 0 {
		intent.Amount = amount
	} else {
		// Non-positive and non-numeric amounts are missing, not errors.
		missing = append(missing, "amount")
	}

	if currency, ok := stringField(fields, "currency"); ok && strings.TrimSpace(currency) != "" {
		intent.Currency = strings.ToUpper(strings.TrimSpace(currency))
	} else {
		missing = append(missing, "currency")
	}

	if recipient, ok := stringField(fields, "recipient"); ok {
		recipient = strings.TrimPrefix(strings.TrimSpace(recipient), "@")
		intent.Recipient = recipient
	}
	if intent.Recipient == "" {
		missing = append(missing, "recipient")
	}

	if len(missing) > 0 {
		return normalizedResult{
			kind:    normIncomplete,
			missing: missing,
			prompt:  missingFieldsPrompt(missing),
		}
	}

	return normalizedResult{kind: normComplete, intent: intent}
}

// normalizeMissing handles the {"missing_fields": [...], "prompt": "..."} shape.
func normalizeMissing(rawMissing json.RawMessage, fields map[string]json.RawMessage) normalizedResult {
	var names []string
	if err := json.Unmarshal(rawMissing, &names); err != nil {
		return normalizedResult{kind: normUnparseable}
	}

	missing := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		for _, required := range requiredFields {
			if name == required {
				missing = append(missing, name)
				break
			}
		}
	}
	if len(missing) == 0 {
		// A missing-field list naming nothing we require is no list at all.
		return normalizedResult{kind: normUnparseable}
	}

	prompt := ""
	if rawPrompt, ok := fields["prompt"]; ok {
		_ = json.Unmarshal(rawPrompt, &prompt)
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = missingFieldsPrompt(missing)
	}

	return normalizedResult{kind: normIncomplete, missing: missing, prompt: prompt}
}

func missingFieldsPrompt(missing []string) string {
	return "I still need the following to proceed: " + strings.Join(missing, ", ") + "."
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// numberField accepts both JSON numbers and numeric strings ("5", "5.5").
func numberField(fields map[string]json.RawMessage, key string) (float64, bool) {
	raw, ok := fields[key]
	if !ok {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// extractJSONObject returns the first balanced JSON object in raw, or "".
// Models tend to wrap payloads in prose or markdown fences.
func extractJSONObject(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```json") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimSuffix(raw, "```")
		raw = strings.TrimSpace(raw)
	} else if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(raw, "```")
		raw = strings.TrimSpace(raw)
	}

	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}
