package question

import (
	"fmt"
	"html"
	"strings"

	"github.com/mcdev12/trivia/go/clients/opentdb_client"
)

// normalize unescapes the HTML entities Open Trivia DB embeds in its default
// encoding and trims whitespace.
func normalize(raw opentdb_client.Question) opentdb_client.Question {
	clean := func(s string) string {
		return strings.TrimSpace(html.UnescapeString(s))
	}

	out := raw
	out.Question = clean(raw.Question)
	out.CorrectAnswer = clean(raw.CorrectAnswer)
	out.Category = clean(raw.Category)
	out.IncorrectAnswers = make([]string, len(raw.IncorrectAnswers))
	for i, a := range raw.IncorrectAnswers {
		out.IncorrectAnswers[i] = clean(a)
	}
	return out
}

// Validate rejects empty, malformed and duplicate-answer payloads.
func Validate(q opentdb_client.Question) error {
	if q.Question == "" {
		return fmt.Errorf("%w: empty prompt", ErrInvalidQuestion)
	}
	if q.CorrectAnswer == "" {
		return fmt.Errorf("%w: empty correct answer", ErrInvalidQuestion)
	}

	switch q.Type {
	case opentdb_client.TypeMultiple:
		if len(q.IncorrectAnswers) != 3 {
			return fmt.Errorf("%w: multiple choice needs 3 incorrect answers, got %d", ErrInvalidQuestion, len(q.IncorrectAnswers))
		}
	case opentdb_client.TypeBoolean:
		if len(q.IncorrectAnswers) != 1 {
			return fmt.Errorf("%w: true/false needs 1 incorrect answer, got %d", ErrInvalidQuestion, len(q.IncorrectAnswers))
		}
	default:
		if len(q.IncorrectAnswers) == 0 {
			return fmt.Errorf("%w: no incorrect answers", ErrInvalidQuestion)
		}
	}

	seen := map[string]bool{strings.ToLower(q.CorrectAnswer): true}
	for _, a := range q.IncorrectAnswers {
		if a == "" {
			return fmt.Errorf("%w: empty answer", ErrInvalidQuestion)
		}
		key := strings.ToLower(a)
		if seen[key] {
			return fmt.Errorf("%w: duplicate answer %q", ErrInvalidQuestion, a)
		}
		seen[key] = true
	}
	return nil
}
