package game

import (
	"fmt"
	"strings"
	"unicode"
)

// ValidationWarning is an inline, user-visible rejection of a submission.
// It blocks the command before emission; the server still re-validates.
type ValidationWarning struct {
	Message string
}

func (w *ValidationWarning) Error() string {
	return w.Message
}

// ValidateSubmission checks a phrase against the acronym: one word per
// letter, and each word must start with the matching letter,
// case-insensitively. A nil return means the phrase may be emitted.
func ValidateSubmission(acronym, text string) error {
	letters := []rune(strings.TrimSpace(acronym))
	words := strings.Fields(text)

	if len(words) != len(letters) {
		return &ValidationWarning{
			Message: fmt.Sprintf("need %d words for %q, got %d", len(letters), acronym, len(words)),
		}
	}

	for i, word := range words {
		first := unicode.ToUpper([]rune(word)[0])
		want := unicode.ToUpper(letters[i])
		if first != want {
			return &ValidationWarning{
				Message: fmt.Sprintf("word %d should start with %q, got %q", i+1, string(want), string(first)),
			}
		}
	}
	return nil
}
