package assistant_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"paypaladin/pkg/assistant"
)

func TestExtract(t *testing.T) {
	ctx := context.Background()

	var gotBody struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("malformed completion request: %v", err)
		}
		fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": "{\"action\":\"send\",\"amount\":5,\"currency\":\"XRP\",\"recipient\":\"@bob\"}"}}]}`)
	}))
	defer ts.Close()

	client := assistant.NewClient(assistant.Config{
		APIKey:  "test-key",
		BaseURL: ts.URL + "/v1",
		Model:   "test-model",
	})

	history := []assistant.Turn{
		{Role: "user", Text: "send XRP to bob"},
		{Role: "assistant", Text: "How much?"},
	}
	raw, err := client.Extract(ctx, "5", history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(raw, `"action":"send"`) {
		t.Errorf("unexpected raw reply: %q", raw)
	}

	if gotBody.Model != "test-model" {
		t.Errorf("unexpected model: %q", gotBody.Model)
	}
	// system prompt + 2 history turns + current utterance
	if len(gotBody.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(gotBody.Messages))
	}
	if gotBody.Messages[0].Role != "system" {
		t.Errorf("first message must be the system prompt, got %q", gotBody.Messages[0].Role)
	}
	if gotBody.Messages[2].Role != "assistant" || gotBody.Messages[2].Content != "How much?" {
		t.Errorf("history turn not replayed: %+v", gotBody.Messages[2])
	}
	if gotBody.Messages[3].Content != "5" {
		t.Errorf("utterance must come last, got %q", gotBody.Messages[3].Content)
	}
}

func TestExtractAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"message": "rate limit exceeded"}}`)
	}))
	defer ts.Close()

	client := assistant.NewClient(assistant.Config{APIKey: "test-key", BaseURL: ts.URL + "/v1"})
	if _, err := client.Extract(context.Background(), "send 5 XRP to @bob", nil); err == nil {
		t.Error("expected error on API failure")
	}
}

func TestTranscribe(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart form: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("unexpected transcription model: %q", got)
		}
		fmt.Fprint(w, `{"text": "send five XRP to bob"}`)
	}))
	defer ts.Close()

	client := assistant.NewClient(assistant.Config{APIKey: "test-key", BaseURL: ts.URL + "/v1"})
	text, err := client.Transcribe(context.Background(), strings.NewReader("audio-bytes"), "voice.oga")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "send five XRP to bob" {
		t.Errorf("unexpected transcript: %q", text)
	}
}
