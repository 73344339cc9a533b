package locsync

import (
	"strings"

	"golang.org/x/text/language"
)

// LanguageNames maps locale codes to human-readable names for AI prompts.
var LanguageNames = map[string]string{
	// Tier 1 (High Quality)
	"en_US": "English (United States)",
	"en_GB": "English (United Kingdom)",
	"de_DE": "German (Germany)",
	"es_ES": "Spanish (Spain)",
	"es_MX": "Spanish (Mexico)",
	"fr_FR": "French (France)",
	"it_IT": "Italian (Italy)",
	"ja_JP": "Japanese (Japan)",
	"pt_BR": "Portuguese (Brazil)",
	"pt_PT": "Portuguese (Portugal)",
	"zh_CN": "Chinese (Simplified)",
	"zh_TW": "Chinese (Traditional)",

	// Tier 2 (Good Quality)
	"ar_SA": "Arabic (Saudi Arabia)",
	"cs_CZ": "Czech (Czech Republic)",
	"da_DK": "Danish (Denmark)",
	"el_GR": "Greek (Greece)",
	"fi_FI": "Finnish (Finland)",
	"he_IL": "Hebrew (Israel)",
	"hi_IN": "Hindi (India)",
	"hu_HU": "Hungarian (Hungary)",
	"id_ID": "Indonesian (Indonesia)",
	"ko_KR": "Korean (South Korea)",
	"nl_NL": "Dutch (Netherlands)",
	"nb_NO": "Norwegian Bokmål (Norway)",
	"pl_PL": "Polish (Poland)",
	"ro_RO": "Romanian (Romania)",
	"ru_RU": "Russian (Russia)",
	"sv_SE": "Swedish (Sweden)",
	"th_TH": "Thai (Thailand)",
	"tr_TR": "Turkish (Turkey)",
	"uk_UA": "Ukrainian (Ukraine)",
	"vi_VN": "Vietnamese (Vietnam)",

	// Tier 3 (Functional)
	"bg_BG": "Bulgarian (Bulgaria)",
	"ca_ES": "Catalan (Spain)",
	"fa_IR": "Persian (Iran)",
	"hr_HR": "Croatian (Croatia)",
	"lt_LT": "Lithuanian (Lithuania)",
	"sk_SK": "Slovak (Slovakia)",
	"sr_RS": "Serbian (Serbia)",
	"tl_PH": "Tagalog (Philippines)",
	"ur_PK": "Urdu (Pakistan)",
}

// ShortCodeToLocale maps short language codes to full locale codes.
var ShortCodeToLocale = map[string]string{
	"en": "en_US",
	"de": "de_DE",
	"es": "es_ES",
	"fr": "fr_FR",
	"it": "it_IT",
	"ja": "ja_JP",
	"pt": "pt_BR",
	"zh": "zh_CN",
	"ko": "ko_KR",
	"ru": "ru_RU",
	"ar": "ar_SA",
	"he": "he_IL",
	"hi": "hi_IN",
	"nl": "nl_NL",
	"pl": "pl_PL",
	"tr": "tr_TR",
	"vi": "vi_VN",
}

// localeClarifications disambiguate locales that models tend to blur.
var localeClarifications = map[string]string{
	"es_ES": "Use Castilian Spanish as spoken in Spain (vosotros, peninsular vocabulary).",
	"es_MX": "Use Mexican Spanish (ustedes, Latin American vocabulary).",
	"pt_BR": "Use Brazilian Portuguese, not European Portuguese.",
	"pt_PT": "Use European Portuguese, not Brazilian Portuguese.",
	"zh_CN": "Use Simplified Chinese characters.",
	"zh_TW": "Use Traditional Chinese characters as used in Taiwan.",
	"nb_NO": "Use Norwegian Bokmål, not Nynorsk.",
	"en_GB": "Use British spelling and vocabulary.",
	"fr_FR": "Use metropolitan French conventions (non-breaking space before : ; ! ?).",
}

var styleDescriptions = map[TranslationStyle]string{
	StyleFormal:    "Use formal, professional language suitable for official documents. Prefer polite forms of address.",
	StyleNeutral:   "Use a neutral, professional tone suitable for general product and interface text.",
	StyleCasual:    "Use casual, conversational language, as a friendly app would.",
	StyleMarketing: "Use persuasive, engaging language suitable for promotional content.",
	StyleTechnical: "Use precise, technical language suitable for documentation. Keep terminology consistent.",
}

// GetLanguageName returns the human-readable name for a language code.
// Falls back to the code itself if not found.
func GetLanguageName(langCode string) string {
	langCode = NormalizeLocale(langCode)
	if name, ok := LanguageNames[langCode]; ok {
		return name
	}
	// Try expanding short code
	if locale, ok := ShortCodeToLocale[langCode]; ok {
		if name, ok := LanguageNames[locale]; ok {
			return name
		}
	}
	return langCode
}

// GetLocaleClarification returns an extra prompt hint for locales with
// commonly confused variants, or "" when none is needed.
func GetLocaleClarification(langCode string) string {
	langCode = NormalizeLocale(langCode)
	if hint, ok := localeClarifications[langCode]; ok {
		return hint
	}
	if locale, ok := ShortCodeToLocale[langCode]; ok {
		return localeClarifications[locale]
	}
	return ""
}

// GetStyleDescription returns the prompt description of a style. Unknown and
// empty styles fall back to neutral.
func GetStyleDescription(style TranslationStyle) string {
	if desc, ok := styleDescriptions[style]; ok {
		return desc
	}
	return styleDescriptions[StyleNeutral]
}

// NormalizeLocale converts a language code to the standard format (e.g., "es-ES" → "es_ES").
func NormalizeLocale(langCode string) string {
	return strings.ReplaceAll(langCode, "-", "_")
}

// CanonicalLanguage validates a language identifier as a BCP 47 tag and returns
// it in locale form ("es-es" → "es_ES", "pt" → "pt").
func CanonicalLanguage(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", &ConfigurationError{Message: "empty language identifier"}
	}
	tag, err := language.Parse(strings.ReplaceAll(id, "_", "-"))
	if err != nil {
		return "", &ConfigurationError{Message: "invalid language identifier " + id, Cause: err}
	}
	return NormalizeLocale(tag.String()), nil
}
