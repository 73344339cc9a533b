package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/ZaguanLabs/locsync"
	"github.com/sashabaranov/go-openai"
)

// DefaultModel is used when OpenAIConfig.Model is empty.
const DefaultModel = "gpt-4o-mini"

// OpenAIProvider implements AIProvider with the OpenAI chat completions API,
// or any server that speaks it.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *slog.Logger
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string
	Model       string  // default DefaultModel
	Temperature float32 // default 0.2
	BaseURL     string  // optional, for compatible endpoints
	Logger      *slog.Logger
}

// NewOpenAIProvider creates a new OpenAI provider. A missing API key is a
// configuration error.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, &locsync.ConfigurationError{Message: "missing OpenAI API key (set OPENAI_API_KEY)"}
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	config.HTTPClient = &http.Client{Transport: userAgentTransport{base: http.DefaultTransport}}

	p := &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      cfg.Logger,
	}
	if p.model == "" {
		p.model = DefaultModel
	}
	if p.temperature == 0 {
		p.temperature = 0.2
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p, nil
}

// Model returns the model name sent with every request.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Translate translates a batch of texts in one chat completion.
func (p *OpenAIProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if len(req.Texts) == 0 {
		return []string{}, nil
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: p.buildUserMessage(req)},
		},
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, &locsync.ProviderError{
			Message:   "chat completion failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}

	p.logger.DebugContext(ctx, "chat completion",
		"model", p.model,
		"lang", req.TargetLang,
		"texts", len(req.Texts),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	if len(resp.Choices) == 0 {
		return nil, &locsync.ProviderError{Message: "empty completion", Retryable: true}
	}
	return parseResponse(resp.Choices[0].Message.Content, len(req.Texts))
}

func (p *OpenAIProvider) buildSystemPrompt(req TranslateRequest) string {
	sourceLang := req.SourceLang
	if sourceLang == "" {
		sourceLang = "en"
	}
	source := locsync.GetLanguageName(sourceLang)
	target := locsync.GetLanguageName(req.TargetLang)

	var b strings.Builder
	fmt.Fprintf(&b, "# Role\nYou are a professional software localizer translating %s interface and document strings into %s.\n", source, target)

	b.WriteString("\n# Context\n")
	if req.Context != "" {
		fmt.Fprintf(&b, "The strings belong to: %s.\n", req.Context)
	} else {
		b.WriteString("The strings come from an application's localization files.\n")
	}

	fmt.Fprintf(&b, "\n# Register\n%s\n", locsync.GetStyleDescription(req.Style))

	fmt.Fprintf(&b, `
# Rules
- Translate each string into natural, idiomatic %s. Keep it about as long as the source; interface space is limited.
- Keep every placeholder exactly as written: {name}, {{count}}, %%s, %%d, %%1$s, :name, $1, ICU blocks such as {count, plural, one {...} other {...}} (translate only the message text inside ICU branches).
- Keep markup, URLs, e-mail addresses, keyboard shortcuts and text inside backticks unchanged.
- Preserve leading and trailing whitespace and line breaks.
- Each item may carry a "context", usually the key it is stored under. Use it to disambiguate (a "save" button versus a "save" noun) and never include it in the output.
`, target)

	if hint := locsync.GetLocaleClarification(req.TargetLang); hint != "" {
		fmt.Fprintf(&b, "- %s\n", hint)
	}

	if len(req.Glossary) > 0 {
		b.WriteString("\n# Glossary\nUse these translations for the following terms:\n")
		terms := make([]string, 0, len(req.Glossary))
		for term := range req.Glossary {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		for _, term := range terms {
			fmt.Fprintf(&b, "- %q → %q\n", term, req.Glossary[term])
		}
	}

	if len(req.ExcludedTerms) > 0 {
		b.WriteString("\n# Do not translate\nKeep these terms exactly as they appear:\n")
		for _, term := range req.ExcludedTerms {
			fmt.Fprintf(&b, "- %s\n", term)
		}
	}

	b.WriteString(`
# Output
Return a JSON object with one key, "translations": an array of strings in the same order and of the same length as the input.
Example: {"translations": ["first", "second"]}`)

	return b.String()
}

type promptItem struct {
	Text    string `json:"text"`
	Context string `json:"context,omitempty"`
}

func (p *OpenAIProvider) buildUserMessage(req TranslateRequest) string {
	hasContexts := false
	for _, c := range req.TextContexts {
		if c != "" {
			hasContexts = true
			break
		}
	}

	var payload any = req.Texts
	if hasContexts {
		items := make([]promptItem, len(req.Texts))
		for i, text := range req.Texts {
			items[i].Text = text
			if i < len(req.TextContexts) {
				items[i].Context = req.TextContexts[i]
			}
		}
		payload = map[string][]promptItem{"items": items}
	}

	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
	return strings.TrimSuffix(b.String(), "\n")
}

// parseResponse accepts {"translations": [...]}, an object holding a single
// array under another key, or a bare array.
func parseResponse(content string, expected int) ([]string, error) {
	content = strings.TrimSpace(content)

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &obj); err == nil {
		if raw, ok := obj["translations"]; ok {
			return decodeStrings(raw, expected)
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if out, err := decodeStrings(obj[k], expected); err == nil || errors.As(err, new(*locsync.CountMismatchError)) {
				return out, err
			}
		}
	}

	if out, err := decodeStrings(json.RawMessage(content), expected); err == nil || errors.As(err, new(*locsync.CountMismatchError)) {
		return out, err
	}

	return nil, &locsync.ProviderError{Message: "unexpected response format", Retryable: false}
}

func decodeStrings(raw json.RawMessage, expected int) ([]string, error) {
	var arr []any
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil, err
	}
	out := make([]string, len(arr))
	for i, v := range arr {
		if s, ok := v.(string); ok {
			out[i] = s
		} else {
			out[i] = fmt.Sprint(v)
		}
	}
	if len(out) != expected {
		return nil, &locsync.CountMismatchError{Expected: expected, Got: len(out)}
	}
	return out, nil
}

// isRetryableError reports whether a failed call is worth repeating:
// rate limiting, server errors and transport failures.
func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == 0 {
			return true
		}
		return retryableStatus(reqErr.HTTPStatusCode)
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "connection refused", "connection reset", "eof"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

type userAgentTransport struct {
	base http.RoundTripper
}

func (t userAgentTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("User-Agent", locsync.UserAgent())
	return t.base.RoundTrip(r)
}

var _ AIProvider = (*OpenAIProvider)(nil)
