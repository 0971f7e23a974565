package usecase

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// maxQueryLength caps the text sent to site search pages
const maxQueryLength = 100

// Compiled regex patterns for query preprocessing
var (
	// Characters that site search endpoints reject or interpret specially
	specialCharsRegex = regexp.MustCompile(`[#%+@!^*()=\[\]{}<>|\\~` + "`" + `"]`)

	// Multiple spaces cleanup
	multiSpacePattern = regexp.MustCompile(`\s+`)

	// Used when building cache and dedupe keys
	nonAlphanumericRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)

// QueryPreprocessor cleans user search text before it is dispatched to sites
type QueryPreprocessor struct {
	log                zerolog.Logger
	enableDebugLogging bool
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(log zerolog.Logger, enableDebugLogging bool) *QueryPreprocessor {
	return &QueryPreprocessor{
		log:                log.With().Str("component", "preprocess").Logger(),
		enableDebugLogging: enableDebugLogging,
	}
}

// PreprocessQuery strips characters that break site search URLs, collapses
// whitespace and limits the length, cutting at a word boundary when possible.
func (p *QueryPreprocessor) PreprocessQuery(text string) string {
	if text == "" {
		return ""
	}

	original := text

	cleaned := strings.ReplaceAll(text, "&", " and ")
	cleaned = specialCharsRegex.ReplaceAllString(cleaned, " ")
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if len(cleaned) > maxQueryLength {
		cleaned = cleaned[:maxQueryLength]
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > maxQueryLength/2 {
			cleaned = cleaned[:lastSpace]
		}
		cleaned = strings.ToValidUTF8(cleaned, "")
	}

	if p.enableDebugLogging {
		p.log.Debug().Str("input", original).Str("output", cleaned).Msg("Preprocessed query")
	}

	return cleaned
}

// normalizeForKey lowercases s, removes punctuation and collapses whitespace
// so that equivalent strings produce the same cache or dedupe key.
func normalizeForKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multiSpacePattern.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}
