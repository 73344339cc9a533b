package locsync

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
)

// Translator translates a single leaf into a target language.
// It is the only point where a synchronization pass reaches outside the process.
type Translator interface {
	Translate(ctx context.Context, text string, targetLang string) (string, error)
}

// TranslateFunc adapts an ordinary function to the Translator interface.
type TranslateFunc func(ctx context.Context, text string, targetLang string) (string, error)

// Translate calls f.
func (f TranslateFunc) Translate(ctx context.Context, text string, targetLang string) (string, error) {
	return f(ctx, text, targetLang)
}

// LanguageChecker is implemented by translators configured with a fixed set of
// supported target languages.
type LanguageChecker interface {
	SupportsLanguage(lang string) bool
}

// AIProvider is the interface for AI translation backends.
type AIProvider interface {
	Translate(ctx context.Context, req TranslateRequest) ([]string, error)
}

// TranslateRequest contains the parameters for a translation request.
type TranslateRequest struct {
	Texts         []string
	TargetLang    string
	SourceLang    string
	ExcludedTerms []string
	Context       string
	TextContexts  []string
	Glossary      map[string]string
	Style         TranslationStyle
}

// TranslationCache is the interface for translation caching.
type TranslationCache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}

// ContentProcessor splits a markup-bearing leaf into translatable text nodes
// and reassembles it after translation.
type ContentProcessor interface {
	Detect(content string) bool
	Extract(content string) (interface{}, []TextNode, error)
	Apply(parsed interface{}, nodes []TextNode, translations map[string]string) (string, error)
	ContentType() string
}

// ProviderTranslator turns a batch AIProvider into a leaf Translator with
// caching and markup awareness. All settings are fixed at construction.
type ProviderTranslator struct {
	sourceLang    string
	provider      AIProvider
	cache         TranslationCache
	processor     ContentProcessor
	excludedTerms []string
	context       string
	glossary      map[string]string
	style         TranslationStyle
	languages     map[string]bool
	logger        *slog.Logger

	providerCalls atomic.Int64
	cacheHits     atomic.Int64
}

// TranslatorStats counts the work done by a ProviderTranslator.
type TranslatorStats struct {
	ProviderCalls int64 // requests sent to the provider
	CacheHits     int64 // leaves served from the cache
}

// TranslatorOption is a functional option for configuring the ProviderTranslator.
type TranslatorOption func(*ProviderTranslator)

// WithSourceLang sets the source language.
func WithSourceLang(lang string) TranslatorOption {
	return func(t *ProviderTranslator) {
		t.sourceLang = lang
	}
}

// WithCache sets the translation cache.
func WithCache(cache TranslationCache) TranslatorOption {
	return func(t *ProviderTranslator) {
		t.cache = cache
	}
}

// WithProcessor sets the processor used for leaves that carry markup.
func WithProcessor(processor ContentProcessor) TranslatorOption {
	return func(t *ProviderTranslator) {
		t.processor = processor
	}
}

// WithExcludedTerms sets terms that should not be translated.
func WithExcludedTerms(terms []string) TranslatorOption {
	return func(t *ProviderTranslator) {
		t.excludedTerms = terms
	}
}

// WithContext sets the global translation context.
func WithContext(ctx string) TranslatorOption {
	return func(t *ProviderTranslator) {
		t.context = ctx
	}
}

// WithGlossary sets preferred translations for specific phrases.
func WithGlossary(glossary map[string]string) TranslatorOption {
	return func(t *ProviderTranslator) {
		t.glossary = glossary
	}
}

// WithStyle sets the translation style/register.
func WithStyle(style TranslationStyle) TranslatorOption {
	return func(t *ProviderTranslator) {
		t.style = style
	}
}

// WithSupportedLanguages restricts the target languages the translator accepts.
// Without it every language is accepted.
func WithSupportedLanguages(langs ...string) TranslatorOption {
	return func(t *ProviderTranslator) {
		t.languages = make(map[string]bool, len(langs))
		for _, l := range langs {
			t.languages[NormalizeLocale(l)] = true
		}
	}
}

// WithTranslatorLogger sets the logger.
func WithTranslatorLogger(logger *slog.Logger) TranslatorOption {
	return func(t *ProviderTranslator) {
		t.logger = logger
	}
}

// NewProviderTranslator creates a ProviderTranslator backed by provider.
func NewProviderTranslator(provider AIProvider, opts ...TranslatorOption) *ProviderTranslator {
	t := &ProviderTranslator{
		sourceLang: "en",
		provider:   provider,
		style:      StyleNeutral,
		logger:     discardLogger(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// SupportsLanguage implements LanguageChecker.
func (t *ProviderTranslator) SupportsLanguage(lang string) bool {
	if t.languages == nil {
		return true
	}
	return t.languages[NormalizeLocale(lang)]
}

// Translate translates one leaf. Text in the source language, or text made of
// whitespace only, is returned unchanged.
func (t *ProviderTranslator) Translate(ctx context.Context, text string, targetLang string) (string, error) {
	if t.IsSourceLang(targetLang) || strings.TrimSpace(text) == "" {
		return text, nil
	}

	key := CacheKey(HashText(text), t.sourceLang, targetLang)
	if t.cache != nil {
		if cached, ok := t.cache.Get(key); ok {
			t.cacheHits.Add(1)
			return cached, nil
		}
	}

	var (
		out string
		err error
	)
	if t.processor != nil && t.processor.Detect(text) {
		out, err = t.translateMarkup(ctx, text, targetLang)
	} else {
		out, err = t.translatePlain(ctx, text, targetLang)
	}
	if err != nil {
		return "", err
	}

	if t.cache != nil {
		if err := t.cache.Set(key, out); err != nil {
			t.logger.DebugContext(ctx, "cache write failed", "error", err)
		}
	}
	return out, nil
}

func (t *ProviderTranslator) translatePlain(ctx context.Context, text, targetLang string) (string, error) {
	var hint string
	if path, ok := KeyPathFromContext(ctx); ok {
		hint = "key " + path.String()
	}

	results, err := t.call(ctx, []string{text}, []string{hint}, targetLang)
	if err != nil {
		return "", err
	}
	return results[0], nil
}

// translateMarkup translates the text nodes of a markup leaf in one batch and
// puts the result back together.
func (t *ProviderTranslator) translateMarkup(ctx context.Context, text, targetLang string) (string, error) {
	parsed, nodes, err := t.processor.Extract(text)
	if err != nil {
		return "", err
	}
	if len(nodes) == 0 {
		return text, nil
	}

	texts := make([]string, len(nodes))
	contexts := make([]string, len(nodes))
	for i, node := range nodes {
		texts[i] = node.Text
		contexts[i] = node.Context
	}

	results, err := t.call(ctx, texts, contexts, targetLang)
	if err != nil {
		return "", err
	}

	translations := make(map[string]string, len(nodes))
	for i, node := range nodes {
		translations[node.Hash] = results[i]
	}
	return t.processor.Apply(parsed, nodes, translations)
}

func (t *ProviderTranslator) call(ctx context.Context, texts, contexts []string, targetLang string) ([]string, error) {
	if t.provider == nil {
		return nil, &ConfigurationError{Message: "no translation provider configured"}
	}

	t.providerCalls.Add(1)
	results, err := t.provider.Translate(ctx, TranslateRequest{
		Texts:         texts,
		TargetLang:    targetLang,
		SourceLang:    t.sourceLang,
		ExcludedTerms: t.excludedTerms,
		Context:       t.context,
		TextContexts:  contexts,
		Glossary:      t.glossary,
		Style:         t.style,
	})
	if err != nil {
		return nil, err
	}
	if len(results) != len(texts) {
		return nil, &CountMismatchError{Expected: len(texts), Got: len(results)}
	}
	return results, nil
}

// Stats returns counters accumulated since construction.
func (t *ProviderTranslator) Stats() TranslatorStats {
	return TranslatorStats{
		ProviderCalls: t.providerCalls.Load(),
		CacheHits:     t.cacheHits.Load(),
	}
}

// SourceLang returns the source language.
func (t *ProviderTranslator) SourceLang() string {
	return t.sourceLang
}

// IsSourceLang checks if the target language matches the source language.
// When true, translation can be bypassed.
func (t *ProviderTranslator) IsSourceLang(targetLang string) bool {
	return normalizeBaseLang(targetLang) == normalizeBaseLang(t.sourceLang)
}

// Glossary returns the glossary of preferred translations.
func (t *ProviderTranslator) Glossary() map[string]string {
	return t.glossary
}

// Style returns the translation style.
func (t *ProviderTranslator) Style() TranslationStyle {
	return t.style
}

// Context returns the global translation context.
func (t *ProviderTranslator) Context() string {
	return t.context
}

// ExcludedTerms returns the list of excluded terms.
func (t *ProviderTranslator) ExcludedTerms() []string {
	return t.excludedTerms
}

// normalizeBaseLang extracts the base language code (e.g., "en" from "en_US").
func normalizeBaseLang(lang string) string {
	base := strings.Split(NormalizeLocale(lang), "_")[0]
	return strings.ToLower(base)
}

var (
	_ Translator      = (*ProviderTranslator)(nil)
	_ LanguageChecker = (*ProviderTranslator)(nil)
)
