package cvgen

import (
	"fmt"
	"strings"
)

// DefaultLanguage is used when a request leaves the language empty.
const DefaultLanguage = "en"

var supportedLanguages = []string{"en", "fr", "es", "de"}

// languageAliases maps accepted spellings to their code.
var languageAliases = map[string]string{
	"en": "en", "english": "en", "anglais": "en",
	"fr": "fr", "french": "fr", "français": "fr", "francais": "fr",
	"es": "es", "spanish": "es", "español": "es", "espanol": "es",
	"de": "de", "german": "de", "deutsch": "de",
}

// SupportedLanguages returns the language codes in display order.
func SupportedLanguages() []string {
	out := make([]string, len(supportedLanguages))
	copy(out, supportedLanguages)
	return out
}

// NormalizeLanguage maps a code or alias to its two-letter code.
func NormalizeLanguage(s string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return DefaultLanguage, nil
	}
	if code, ok := languageAliases[key]; ok {
		return code, nil
	}
	return "", fmt.Errorf("%w: %q (supported: %s)", ErrInvalidLanguage, s, strings.Join(supportedLanguages, ", "))
}
