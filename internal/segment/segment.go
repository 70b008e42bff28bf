// Package segment splits long content into an ordered sequence of
// platform-sized segments at natural boundaries. Splitting is deterministic:
// identical input always yields identical segments, which keeps retries
// idempotent.
package segment

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"postwave/internal/domain"
)

// ErrTooManySegments is returned when content would need more segments than
// the platform's hard ceiling.
var ErrTooManySegments = errors.New("content requires more segments than the platform allows")

// boundaryFraction is how far into the usable budget a natural boundary must
// fall to be preferred over a hard cut.
const boundaryFraction = 0.6

// Split breaks content into segments of at most budget-reserve runes each,
// preferring sentence ends, then word boundaries, then a hard cut. When more
// than one segment is produced, every body gets a 1-based " k/N" suffix;
// reserve is the room left for that suffix.
func Split(content string, budget, reserve, maxSegments int) ([]domain.Segment, error) {
	limit := budget - reserve
	if limit <= 0 {
		return nil, fmt.Errorf("segment: budget %d does not fit numbering reserve %d", budget, reserve)
	}

	var bodies []string
	remaining := []rune(strings.TrimSpace(content))
	for len(remaining) > 0 {
		if len(remaining) <= limit {
			bodies = append(bodies, string(remaining))
			break
		}
		cut := splitPoint(remaining, limit)
		body := strings.TrimSpace(string(remaining[:cut]))
		if body != "" {
			bodies = append(bodies, body)
		}
		remaining = []rune(strings.TrimLeftFunc(string(remaining[cut:]), unicode.IsSpace))
		if len(bodies) > maxSegments {
			return nil, ErrTooManySegments
		}
	}
	if len(bodies) > maxSegments {
		return nil, ErrTooManySegments
	}

	total := len(bodies)
	segs := make([]domain.Segment, total)
	for i, body := range bodies {
		if total > 1 {
			body = fmt.Sprintf("%s %d/%d", body, i+1, total)
		}
		segs[i] = domain.Segment{Ordinal: i + 1, Total: total, Body: body}
	}
	return segs, nil
}

// splitPoint picks where to cut the first segment out of rs, which is known
// to be longer than limit. Preference order: last sentence terminator before
// the limit, last word boundary before the limit (each only if it lands past
// 60% of the budget), else a hard cut at the limit.
func splitPoint(rs []rune, limit int) int {
	minCut := int(float64(limit) * boundaryFraction)

	// Sentence terminator followed by whitespace.
	for i := limit - 1; i > minCut; i-- {
		switch rs[i] {
		case '.', '!', '?':
			if i+1 < len(rs) && unicode.IsSpace(rs[i+1]) {
				return i + 1
			}
		}
	}

	// Word boundary: whitespace or hyphen.
	for i := limit - 1; i > minCut; i-- {
		r := rs[i]
		if unicode.IsSpace(r) {
			return i
		}
		if r == '-' {
			return i + 1
		}
	}

	return limit
}
