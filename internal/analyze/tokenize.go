package analyze

import (
	"strings"
	"unicode"
)

// tokenize lowercases text and splits it into words. Apostrophes stay inside
// a word so contractions like "don't" survive as one token.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '’'
	})

	tokens := fields[:0]
	for _, f := range fields {
		f = strings.Trim(strings.ReplaceAll(f, "’", "'"), "'")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
