package text

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Options control field-specific sanitization behavior.
type Options struct {
	MaxLength     int
	AllowEmojis   bool
	AllowNewlines bool
}

// Field presets. Topics are short single-line prompts; post bodies are the
// content that actually gets published.
var (
	TopicOptions    = Options{MaxLength: 200, AllowEmojis: false, AllowNewlines: false}
	PostBodyOptions = Options{MaxLength: 5000, AllowEmojis: true, AllowNewlines: true}
)

// HashtagMaxLength caps a sanitized hashtag (without the leading '#').
const HashtagMaxLength = 50

var (
	reHTMLComment = regexp.MustCompile(`<!--[\s\S]*?-->`)
	reCDATA       = regexp.MustCompile(`<!\[CDATA\[[\s\S]*?\]\]>`)

	// reTag matches opening/closing/self-closing tags with attributes,
	// processing instructions, and unclosed tags at end-of-string. Removing
	// the whole tag also removes embedded event-handler attributes and
	// inline style/script bodies' delimiters.
	reTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?\s*>|<\?[^?]*\?>|</\s+[a-zA-Z][^>]*>|<[/?!]?[a-zA-Z][^>]*$`)
)

// builtinInjection covers the recognized instruction-injection families:
// role-directive prefixes, "ignore previous instructions" phrasings, fenced
// code-block delimiters, and reserved control-token bracket sequences. This
// is a best-effort denylist, not a completeness guarantee; deployments can
// extend it with pattern packs.
var builtinInjection = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(system|assistant|user|developer|tool|instructions?)\s*:`),
	regexp.MustCompile(`(?i)\b(ignore|disregard|forget|override)\s+(all\s+|any\s+|the\s+)?(previous|prior|above|earlier|preceding)\s+(instructions?|prompts?|rules?|directives?|context)\b`),
	regexp.MustCompile(`(?i)\byou\s+are\s+now\s+(a|an|in)\b`),
	regexp.MustCompile("```+"),
	regexp.MustCompile(`<\|[^|>]*\|>`),
	regexp.MustCompile(`(?i)\[/?(inst|sys)\]`),
	regexp.MustCompile(`(?i)<</?sys>>`),
}

// allowedPunct is the standard punctuation whitelist plus the reserved
// social-syntax set (@ mentions, # hashtags, : and / for URLs). Markup
// delimiters are deliberately absent.
const allowedPunct = ".,!?;'\"()-_&%$+=*@#:/’‘“”—–…"

// Sanitizer strips markup and instruction-injection patterns from normalized
// text and enforces a character whitelist. Construct with NewSanitizer; the
// zero value has no patterns compiled.
type Sanitizer struct {
	injection []*regexp.Regexp
}

// NewSanitizer returns a Sanitizer with the built-in injection pattern set.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{injection: builtinInjection}
}

// Extend adds deployment-specific injection patterns. Plain strings are
// treated as case-insensitive literal substrings, anything containing regex
// metacharacters as a regular expression.
func (s *Sanitizer) Extend(patterns []string) error {
	compiled, err := compilePatterns(patterns)
	if err != nil {
		return fmt.Errorf("extend sanitizer: %w", err)
	}
	s.injection = append(s.injection, compiled...)
	return nil
}

// Sanitize runs the fixed-order defense pipeline: markup removal, injection
// pattern removal, character whitelist, whitespace collapsing, trim, hard
// length cap. It is pure and total — garbage in, short safe string out —
// and idempotent on its own output.
func (s *Sanitizer) Sanitize(input string, opts Options) string {
	// Markup goes first so whitespace collapsing sees the gaps it leaves.
	out := reHTMLComment.ReplaceAllString(input, " ")
	out = reCDATA.ReplaceAllString(out, " ")
	out = reTag.ReplaceAllString(out, " ")

	out = s.stripInjection(out)

	// Whitelist: disallowed runes are deleted, not replaced.
	out = whitelistRunes(out, opts.AllowEmojis)

	// Deleting runes can splice the neighbors into a new live directive
	// ("sys♥tem:" becomes "system:"), so sweep again before collapsing.
	out = s.stripInjection(out)

	out = collapseWhitespace(out, opts.AllowNewlines)
	out = strings.TrimSpace(out)
	out = truncateRunes(out, opts.MaxLength)
	// The cap can land on a space; trim again so output is a fixed point.
	return strings.TrimSpace(out)
}

// Topic sanitizes a topic field: single line, small cap.
func (s *Sanitizer) Topic(input string) string {
	return s.Sanitize(Normalize(input), TopicOptions)
}

// PostBody sanitizes a post body: newlines and emojis allowed, larger cap.
func (s *Sanitizer) PostBody(input string) string {
	return s.Sanitize(Normalize(input), PostBodyOptions)
}

// Hashtag sanitizes a hashtag field: the leading '#' is stripped and only
// ASCII letters, digits, and underscore survive.
func (s *Sanitizer) Hashtag(input string) string {
	out := strings.TrimSpace(Normalize(input))
	out = strings.TrimPrefix(out, "#")
	var b strings.Builder
	for _, r := range out {
		if r == '_' ||
			(r >= '0' && r <= '9') ||
			(r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return truncateRunes(b.String(), HashtagMaxLength)
}

// stripInjection replaces every injection-pattern span with a single space
// and repeats until no pattern matches, so that removals cannot recombine
// surrounding words into a fresh directive.
func (s *Sanitizer) stripInjection(in string) string {
	// Pass cap guards against a pathological extension pattern whose
	// replacement matches itself.
	for pass := 0; pass < 8; pass++ {
		changed := false
		for _, re := range s.injection {
			if re.MatchString(in) {
				next := re.ReplaceAllString(in, " ")
				if next != in {
					in = next
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
	return in
}

func whitelistRunes(in string, allowEmojis bool) string {
	var b strings.Builder
	b.Grow(len(in))
	for _, r := range in {
		switch {
		case unicode.IsSpace(r),
			unicode.IsLetter(r),
			unicode.IsDigit(r),
			strings.ContainsRune(allowedPunct, r),
			allowEmojis && isEmoji(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF: // pictographs, emoticons, supplement
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols and dingbats
		return true
	case r >= 0x1F1E6 && r <= 0x1F1FF: // regional indicators (flags)
		return true
	}
	return false
}

// collapseWhitespace squeezes runs of 2+ horizontal whitespace into one
// space. Newlines are deleted entirely when not allowed; otherwise runs of
// newlines collapse to a single one and each line is trimmed.
func collapseWhitespace(in string, allowNewlines bool) string {
	in = strings.ReplaceAll(in, "\r\n", "\n")
	in = strings.ReplaceAll(in, "\r", "\n")

	// Single-line fields map newlines to spaces, never delete them:
	// deletion would splice the adjacent words together.
	if !allowNewlines {
		return collapseLine(strings.ReplaceAll(in, "\n", " "))
	}

	lines := strings.Split(in, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = collapseLine(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func collapseLine(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	space := false
	for _, r := range line {
		if unicode.IsSpace(r) {
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
