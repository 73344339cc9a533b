package locsync

// TranslationStyle controls the tone and formality of translations.
type TranslationStyle string

const (
	// StyleFormal uses formal, professional language suitable for official documents.
	StyleFormal TranslationStyle = "formal"
	// StyleNeutral uses a neutral, professional tone suitable for general content.
	StyleNeutral TranslationStyle = "neutral"
	// StyleCasual uses casual, conversational language suitable for blogs/social media.
	StyleCasual TranslationStyle = "casual"
	// StyleMarketing uses persuasive, engaging language for promotional content.
	StyleMarketing TranslationStyle = "marketing"
	// StyleTechnical uses precise, technical language for documentation.
	StyleTechnical TranslationStyle = "technical"
)

// ParseStyle returns the style named s, and false for unknown names.
func ParseStyle(s string) (TranslationStyle, bool) {
	switch st := TranslationStyle(s); st {
	case StyleFormal, StyleNeutral, StyleCasual, StyleMarketing, StyleTechnical:
		return st, true
	case "":
		return StyleNeutral, true
	default:
		return "", false
	}
}

// TextNode is a translatable run of text inside a markup leaf.
type TextNode struct {
	ID       string            // Position of the node inside the leaf
	Text     string            // Original text content (trimmed)
	Hash     string            // SHA-256 hash of Text
	NodeType string            // Content type: "html_text"
	Context  string            // Disambiguation context for AI
	Metadata map[string]string // Additional info (parent tag, etc.)
}

// IgnoredTags contains HTML tags whose content should not be translated.
var IgnoredTags = map[string]bool{
	"script":   true,
	"style":    true,
	"code":     true,
	"pre":      true,
	"textarea": true,
	"noscript": true,
	"kbd":      true,
	"var":      true,
}
