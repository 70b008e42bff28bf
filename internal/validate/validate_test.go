package validate

import (
	"strings"
	"testing"
)

// --- Topic ---

func TestTopic_Bounds(t *testing.T) {
	cases := []struct {
		name   string
		in     string
		valid  bool
		reason string
	}{
		{"empty", "", false, ReasonEmpty},
		{"whitespace only", "   ", false, ReasonEmpty},
		{"below minimum", "abc defgh", false, ReasonTooShort}, // 9 runes
		{"exactly minimum", "abcd efghi", true, ""},           // 10 runes
		{"one distinct word", "golang golang golang", false, ReasonNeedsWords},
		{"repeated word different case", "Golang GOLANG golang", false, ReasonNeedsWords},
		{"exactly maximum", "a " + strings.Repeat("b", 198), true, ""},
		{"above maximum", "a " + strings.Repeat("b", 199), false, ReasonTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Topic(tc.in)
			if out.Valid != tc.valid {
				t.Fatalf("Topic(%q).Valid = %v, want %v (reason %q)", tc.in, out.Valid, tc.valid, out.Reason)
			}
			if !tc.valid && out.Reason != tc.reason {
				t.Fatalf("Topic(%q).Reason = %q, want %q", tc.in, out.Reason, tc.reason)
			}
		})
	}
}

func TestTopic_RuleOrder(t *testing.T) {
	// A too-short single word fails on length before the word-count rule.
	out := Topic("short")
	if out.Reason != ReasonTooShort {
		t.Fatalf("expected %q first, got %q", ReasonTooShort, out.Reason)
	}
}

func TestTopic_RuneCounting(t *testing.T) {
	// 10 multibyte runes must satisfy the minimum just like ASCII.
	out := Topic("日本語の文 です五字")
	if !out.Valid {
		t.Fatalf("multibyte topic rejected: %q", out.Reason)
	}
}

func TestTopic_TrimsBeforeChecking(t *testing.T) {
	out := Topic("  interesting topic  ")
	if !out.Valid || out.Content != "interesting topic" {
		t.Fatalf("expected trimmed valid content, got %+v", out)
	}
}

// --- PostBody ---

func TestPostBody_Bounds(t *testing.T) {
	cases := []struct {
		name   string
		in     string
		valid  bool
		reason string
	}{
		{"empty", "", false, ReasonEmpty},
		{"whitespace only", "  \n ", false, ReasonEmpty},
		{"single rune", "x", true, ""},
		{"exactly maximum", strings.Repeat("a", 5000), true, ""},
		{"above maximum", strings.Repeat("a", 5001), false, ReasonTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := PostBody(tc.in)
			if out.Valid != tc.valid {
				t.Fatalf("PostBody.Valid = %v, want %v (reason %q)", out.Valid, tc.valid, out.Reason)
			}
			if !tc.valid && out.Reason != tc.reason {
				t.Fatalf("PostBody.Reason = %q, want %q", out.Reason, tc.reason)
			}
		})
	}
}

// --- Enums ---

func TestPlatformName(t *testing.T) {
	for _, in := range []string{"x", "telegram", "discord", "slack", " X ", "Slack"} {
		if out := PlatformName(in); !out.Valid {
			t.Errorf("PlatformName(%q) rejected: %s", in, out.Reason)
		}
	}
	if out := PlatformName("facebook"); out.Valid || out.Reason != ReasonUnrecognized {
		t.Errorf("PlatformName(facebook) = %+v, want unrecognized", out)
	}
	if out := PlatformName(""); out.Valid || out.Reason != ReasonEmpty {
		t.Errorf("PlatformName(\"\") = %+v, want empty", out)
	}
}

func TestToneName(t *testing.T) {
	for _, in := range []string{"professional", "casual", "humorous", "informative", "Casual"} {
		if out := ToneName(in); !out.Valid {
			t.Errorf("ToneName(%q) rejected: %s", in, out.Reason)
		}
	}
	if out := ToneName("sarcastic"); out.Valid || out.Reason != ReasonUnrecognized {
		t.Errorf("ToneName(sarcastic) = %+v, want unrecognized", out)
	}
}
