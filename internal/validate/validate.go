// Package validate enforces semantic and structural constraints on sanitized
// content before it is considered publishable. All bounds are inclusive on
// both ends: a value exactly at a minimum or maximum is valid.
package validate

import (
	"strings"
	"unicode/utf8"

	"postwave/internal/domain"
)

// Field bounds. Topics are generation prompts; bodies are published content.
const (
	TopicMinLength    = 10
	TopicMaxLength    = 200
	TopicMinWords     = 2
	PostBodyMinLength = 1
	PostBodyMaxLength = 5000
)

// Rejection reasons, reported to the caller verbatim.
const (
	ReasonEmpty        = "empty"
	ReasonTooShort     = "too short"
	ReasonNeedsWords   = "needs more words"
	ReasonTooLong      = "too long"
	ReasonUnrecognized = "unrecognized value"
)

// Outcome is the tagged result of validation: either Valid with the content,
// or Invalid with a reason. Never partially valid.
type Outcome struct {
	Valid   bool
	Content string
	Reason  string
}

// Valid wraps accepted content.
func Valid(content string) Outcome { return Outcome{Valid: true, Content: content} }

// Invalid wraps a rejection reason.
func Invalid(reason string) Outcome { return Outcome{Reason: reason} }

// Topic validates a free-text generation topic. Rules run in order and the
// first failure short-circuits.
func Topic(s string) Outcome {
	s = strings.TrimSpace(s)
	if s == "" {
		return Invalid(ReasonEmpty)
	}
	n := utf8.RuneCountInString(s)
	if n < TopicMinLength {
		return Invalid(ReasonTooShort)
	}
	if distinctWords(s) < TopicMinWords {
		return Invalid(ReasonNeedsWords)
	}
	if n > TopicMaxLength {
		return Invalid(ReasonTooLong)
	}
	return Valid(s)
}

// PostBody validates publishable post content.
func PostBody(s string) Outcome {
	s = strings.TrimSpace(s)
	if s == "" {
		return Invalid(ReasonEmpty)
	}
	if utf8.RuneCountInString(s) > PostBodyMaxLength {
		return Invalid(ReasonTooLong)
	}
	return Valid(s)
}

// PlatformName validates membership in the closed platform set.
func PlatformName(s string) Outcome {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return Invalid(ReasonEmpty)
	}
	if !domain.Platform(s).Valid() {
		return Invalid(ReasonUnrecognized)
	}
	return Valid(s)
}

// ToneName validates membership in the closed tone set.
func ToneName(s string) Outcome {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return Invalid(ReasonEmpty)
	}
	if !domain.Tone(s).Valid() {
		return Invalid(ReasonUnrecognized)
	}
	return Valid(s)
}

func distinctWords(s string) int {
	seen := map[string]struct{}{}
	for _, w := range strings.Fields(s) {
		seen[strings.ToLower(w)] = struct{}{}
	}
	return len(seen)
}
