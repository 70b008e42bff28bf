package segment

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

// --- Single segment ---

func TestSplit_FitsInOneSegment(t *testing.T) {
	content := strings.Repeat("a", 100)
	segs, err := Split(content, 280, 6, 25)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Body != content {
		t.Fatalf("single segment must carry no numbering suffix: %q", segs[0].Body)
	}
	if segs[0].Ordinal != 1 || segs[0].Total != 1 {
		t.Fatalf("bad ordinals: %+v", segs[0])
	}
}

// --- Numbering and budget ---

func TestSplit_JustOverBudget(t *testing.T) {
	content := strings.Repeat("a", 281)
	segs, err := Split(content, 280, 6, 25)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if !strings.HasSuffix(segs[0].Body, " 1/2") || !strings.HasSuffix(segs[1].Body, " 2/2") {
		t.Fatalf("bad numbering: %q / %q", segs[0].Body, segs[1].Body)
	}
	if got := utf8.RuneCountInString(segs[0].Body); got != 278 {
		t.Fatalf("first body should be 274 content runes + suffix = 278, got %d", got)
	}
	for _, s := range segs {
		if utf8.RuneCountInString(s.Body) > 280 {
			t.Fatalf("segment %d exceeds budget: %d runes", s.Ordinal, utf8.RuneCountInString(s.Body))
		}
	}
}

func TestSplit_EverySegmentWithinBudget(t *testing.T) {
	content := strings.Repeat("lorem ipsum dolor sit amet. ", 60)
	segs, err := Split(content, 280, 6, 25)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	for _, s := range segs {
		if n := utf8.RuneCountInString(s.Body); n > 280 {
			t.Fatalf("segment %d/%d has %d runes", s.Ordinal, s.Total, n)
		}
		if s.Total != len(segs) {
			t.Fatalf("segment %d reports total %d, want %d", s.Ordinal, s.Total, len(segs))
		}
	}
}

// --- Boundary preference ---

func TestSplit_PrefersSentenceEnd(t *testing.T) {
	content := strings.Repeat("a", 200) + ". " + strings.Repeat("b", 200)
	segs, err := Split(content, 280, 6, 25)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if want := strings.Repeat("a", 200) + ". 1/2"; segs[0].Body != want {
		t.Fatalf("first segment should end at the sentence:\ngot  %q", segs[0].Body)
	}
	if want := strings.Repeat("b", 200) + " 2/2"; segs[1].Body != want {
		t.Fatalf("second segment wrong:\ngot  %q", segs[1].Body)
	}
}

func TestSplit_FallsBackToWordBoundary(t *testing.T) {
	content := strings.Repeat("a", 270) + " " + strings.Repeat("b", 100)
	segs, err := Split(content, 280, 6, 25)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if want := strings.Repeat("a", 270) + " 1/2"; segs[0].Body != want {
		t.Fatalf("expected cut at word boundary, got %q...", segs[0].Body[:20])
	}
}

func TestSplit_EarlyBoundaryIgnored(t *testing.T) {
	// The only space sits at 10% of the budget; a hard cut wastes less room.
	content := "short " + strings.Repeat("a", 400)
	segs, err := Split(content, 280, 6, 25)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if n := utf8.RuneCountInString(segs[0].Body); n < 200 {
		t.Fatalf("early boundary should be ignored, first segment only %d runes", n)
	}
}

// --- Limits and errors ---

func TestSplit_TooManySegments(t *testing.T) {
	content := strings.Repeat("a", 280*5)
	_, err := Split(content, 280, 6, 3)
	if !errors.Is(err, ErrTooManySegments) {
		t.Fatalf("expected ErrTooManySegments, got %v", err)
	}
}

func TestSplit_ReserveExceedsBudget(t *testing.T) {
	if _, err := Split("hello", 5, 6, 10); err == nil {
		t.Fatal("expected error when reserve eats the whole budget")
	}
}

// --- Determinism and reassembly ---

func TestSplit_Deterministic(t *testing.T) {
	content := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 30)
	a, err := Split(content, 280, 6, 25)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	b, _ := Split(content, 280, 6, 25)
	if len(a) != len(b) {
		t.Fatalf("nondeterministic segment count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Body != b[i].Body {
			t.Fatalf("segment %d differs between runs", i+1)
		}
	}
}

func TestSplit_NoContentLost(t *testing.T) {
	content := strings.Repeat("alpha beta gamma delta. ", 40)
	segs, err := Split(content, 280, 6, 25)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	var joined strings.Builder
	for _, s := range segs {
		body := s.Body
		if s.Total > 1 {
			// Strip the " k/N" suffix before reassembly.
			idx := strings.LastIndex(body, " ")
			body = body[:idx]
		}
		joined.WriteString(body)
		joined.WriteString(" ")
	}
	gotWords := strings.Fields(joined.String())
	wantWords := strings.Fields(content)
	if len(gotWords) != len(wantWords) {
		t.Fatalf("word count changed: got %d, want %d", len(gotWords), len(wantWords))
	}
	for i := range wantWords {
		if gotWords[i] != wantWords[i] {
			t.Fatalf("word %d changed: %q != %q", i, gotWords[i], wantWords[i])
		}
	}
}
