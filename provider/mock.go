package provider

import (
	"context"
	"sync"
)

// MockProvider is an offline provider for tests and dry runs. Known texts are
// looked up in Translations; anything else is returned as "[lang] text".
type MockProvider struct {
	Translations map[string]string

	mu          sync.Mutex
	callCount   int
	lastRequest *TranslateRequest
}

// NewMockProvider creates a mock provider with a few Spanish translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]string{
			"Hello":       "Hola",
			"World":       "Mundo",
			"Hello World": "Hola Mundo",
			"Save":        "Guardar",
			"Cancel":      "Cancelar",
		},
	}
}

// Translate implements AIProvider.
func (m *MockProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.callCount++
	m.lastRequest = &req
	m.mu.Unlock()

	results := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		if translation, ok := m.Translations[text]; ok {
			results[i] = translation
		} else {
			results[i] = "[" + req.TargetLang + "] " + text
		}
	}
	return results, nil
}

// CallCount returns the number of Translate calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastRequest returns the most recent request, or nil.
func (m *MockProvider) LastRequest() *TranslateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

var _ AIProvider = (*MockProvider)(nil)
