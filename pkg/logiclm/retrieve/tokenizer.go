package retrieve

import (
	"strings"
	"unicode"
)

// Tokenizer splits clause text and questions into lowercase terms. Predicate
// and constant names keep their underscores, so "has_parent" stays one term.
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer creates a tokenizer with the given stopword list.
func NewTokenizer(stopwords []string) *Tokenizer {
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{stopwords: stops}
}

// Tokenize splits text into normalized terms, removing stopwords.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		if word := t.processToken(current.String()); word != "" {
			tokens = append(tokens, word)
		}
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '_' {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func (t *Tokenizer) processToken(token string) string {
	word := strings.Trim(token, "-_")
	for strings.Contains(word, "--") {
		word = strings.ReplaceAll(word, "--", "-")
	}
	if len(word) <= 1 || isNumericOnly(word) {
		return ""
	}
	if _, stop := t.stopwords[word]; stop {
		return ""
	}
	return word
}

// isNumericOnly returns true if the token contains only digits and hyphens.
func isNumericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}
