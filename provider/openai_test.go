package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ZaguanLabs/locsync"
	"github.com/sashabaranov/go-openai"
)

func newTestProvider(t *testing.T) *OpenAIProvider {
	t.Helper()
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test"})
	if err != nil {
		t.Fatalf("NewOpenAIProvider failed: %v", err)
	}
	return p
}

func TestNewOpenAIProvider_MissingKey(t *testing.T) {
	_, err := NewOpenAIProvider(OpenAIConfig{})
	if !locsync.IsConfigurationError(err) {
		t.Errorf("error = %v, want ConfigurationError", err)
	}
}

func TestNewOpenAIProvider_Defaults(t *testing.T) {
	p := newTestProvider(t)
	if p.Model() != DefaultModel {
		t.Errorf("Model() = %q, want %q", p.Model(), DefaultModel)
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	p := newTestProvider(t)

	prompt := p.buildSystemPrompt(TranslateRequest{
		TargetLang:    "es_ES",
		SourceLang:    "en",
		Context:       "a photo editing app",
		ExcludedTerms: []string{"Pixelmate", "RAW"},
	})

	for _, want := range []string{
		"Spanish (Spain)",
		"a photo editing app",
		"Pixelmate",
		"RAW",
		"Castilian Spanish",
		"{{count}}",
		`"translations"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt should contain %q", want)
		}
	}
}

func TestBuildSystemPrompt_WithGlossaryAndStyle(t *testing.T) {
	p := newTestProvider(t)

	prompt := p.buildSystemPrompt(TranslateRequest{
		TargetLang: "nb_NO",
		Glossary: map[string]string{
			"workspace": "arbeidsområde",
			"sync":      "synkroniser",
		},
		Style: locsync.StyleMarketing,
	})

	if !strings.Contains(prompt, "workspace") || !strings.Contains(prompt, "arbeidsområde") {
		t.Error("prompt should contain the glossary")
	}
	if strings.Index(prompt, `"sync"`) > strings.Index(prompt, `"workspace"`) {
		t.Error("glossary terms should be sorted")
	}
	if !strings.Contains(prompt, "persuasive") {
		t.Error("prompt should contain the marketing style description")
	}
	if !strings.Contains(prompt, "Bokmål") {
		t.Error("prompt should contain the Norwegian clarification")
	}
}

func TestBuildUserMessage_SimpleArray(t *testing.T) {
	p := newTestProvider(t)

	msg := p.buildUserMessage(TranslateRequest{Texts: []string{"Hello", "<b>World</b>"}})
	if msg != `["Hello","<b>World</b>"]` {
		t.Errorf("buildUserMessage() = %s", msg)
	}
}

func TestBuildUserMessage_WithContexts(t *testing.T) {
	p := newTestProvider(t)

	msg := p.buildUserMessage(TranslateRequest{
		Texts:        []string{"Save", "Open"},
		TextContexts: []string{"key toolbar.save", ""},
	})

	var got struct {
		Items []promptItem `json:"items"`
	}
	if err := json.Unmarshal([]byte(msg), &got); err != nil {
		t.Fatalf("message is not JSON: %v", err)
	}
	if len(got.Items) != 2 || got.Items[0].Context != "key toolbar.save" || got.Items[1].Text != "Open" {
		t.Errorf("items = %+v", got.Items)
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"translations key", `{"translations": ["Hola", "Mundo"]}`},
		{"other key", `{"results": ["Hola", "Mundo"]}`},
		{"bare array", `["Hola", "Mundo"]`},
		{"surrounding whitespace", "\n {\"translations\": [\"Hola\", \"Mundo\"]}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseResponse(tt.content, 2)
			if err != nil {
				t.Fatalf("parseResponse failed: %v", err)
			}
			if got[0] != "Hola" || got[1] != "Mundo" {
				t.Errorf("parseResponse() = %v", got)
			}
		})
	}
}

func TestParseResponse_CountMismatch(t *testing.T) {
	_, err := parseResponse(`{"translations": ["Hola"]}`, 2)

	var cerr *locsync.CountMismatchError
	if !errors.As(err, &cerr) || cerr.Expected != 2 || cerr.Got != 1 {
		t.Errorf("error = %v, want count mismatch", err)
	}
}

func TestParseResponse_Invalid(t *testing.T) {
	for _, content := range []string{"", "not json", `{"note": "sorry"}`} {
		_, err := parseResponse(content, 1)
		var perr *locsync.ProviderError
		if !errors.As(err, &perr) || perr.Retryable {
			t.Errorf("parseResponse(%q) error = %v, want non-retryable ProviderError", content, err)
		}
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", &openai.APIError{HTTPStatusCode: 429}, true},
		{"server error", &openai.APIError{HTTPStatusCode: 503}, true},
		{"bad request", &openai.APIError{HTTPStatusCode: 400}, false},
		{"unauthorized", &openai.RequestError{HTTPStatusCode: 401}, false},
		{"transport", errors.New("dial tcp: connection refused"), true},
		{"cancelled", context.Canceled, false},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("isRetryableError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func fakeOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAIProvider failed: %v", err)
	}
	return p
}

func TestOpenAIProvider_Translate(t *testing.T) {
	var gotUA, gotBody string
	p := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		gotUA = r.Header.Get("User-Agent")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"translations\": [\"Enregistrer\"]}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13}
		}`)
	})

	got, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"Save"}, TargetLang: "fr"})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if len(got) != 1 || got[0] != "Enregistrer" {
		t.Errorf("Translate() = %v", got)
	}
	if gotUA != locsync.UserAgent() {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if !strings.Contains(gotBody, DefaultModel) {
		t.Errorf("request should name the model: %s", gotBody)
	}
}

func TestOpenAIProvider_TranslateRateLimited(t *testing.T) {
	p := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error": {"message": "Rate limit reached", "type": "requests", "code": "rate_limit_exceeded"}}`)
	})

	_, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"Save"}, TargetLang: "fr"})

	var perr *locsync.ProviderError
	if !errors.As(err, &perr) || !perr.Retryable {
		t.Errorf("error = %v, want retryable ProviderError", err)
	}
	if !locsync.IsRetryable(err) {
		t.Error("locsync.IsRetryable should agree")
	}
}

func TestOpenAIProvider_EmptyBatch(t *testing.T) {
	p := newTestProvider(t)

	got, err := p.Translate(context.Background(), TranslateRequest{})
	if err != nil || len(got) != 0 {
		t.Errorf("Translate(empty) = %v, %v", got, err)
	}
}

func TestMockProvider(t *testing.T) {
	m := NewMockProvider()

	got, err := m.Translate(context.Background(), TranslateRequest{
		Texts:      []string{"Hello", "Unknown text"},
		TargetLang: "es_ES",
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got[0] != "Hola" || got[1] != "[es_ES] Unknown text" {
		t.Errorf("Translate() = %v", got)
	}
	if m.CallCount() != 1 || m.LastRequest().TargetLang != "es_ES" {
		t.Errorf("CallCount() = %d, LastRequest() = %+v", m.CallCount(), m.LastRequest())
	}
}
