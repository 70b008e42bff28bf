package text

import (
	"regexp"

	"postwave/internal/domain"
)

// Residual signature families with fixed severities. These run against the
// original (pre-sanitization) text so the audit trail reflects what the user
// actually submitted, not what survived.
var riskSignatures = []struct {
	tag   domain.PatternTag
	level domain.RiskLevel
	re    *regexp.Regexp
}{
	{domain.PatternMarkup, domain.RiskHigh,
		regexp.MustCompile(`<[a-zA-Z/!?]`)},
	{domain.PatternDangerousScheme, domain.RiskHigh,
		regexp.MustCompile(`(?i)\b(javascript|data|vbscript)\s*:`)},
	{domain.PatternEventHandler, domain.RiskMedium,
		regexp.MustCompile(`(?i)\bon[a-z]{2,}\s*=`)},
	{domain.PatternInjectionPhrase, domain.RiskMedium,
		regexp.MustCompile(`(?i)\b(ignore|disregard|forget|override)\s+(all\s+|any\s+|the\s+)?(previous|prior|above|earlier|preceding)\s+(instructions?|prompts?|rules?|directives?)\b|\b(system|assistant|developer)\s*:`)},
	{domain.PatternSQLMeta, domain.RiskLow,
		regexp.MustCompile(`(?i)\bunion\s+select\b|\bdrop\s+table\b|'\s*(or|and)\s+'?\d|--\s*$|;\s*(drop|delete|insert|update)\b`)},
	{domain.PatternInvisibleRun, domain.RiskLow,
		regexp.MustCompile(`[\x{200B}-\x{200F}\x{202A}-\x{202E}\x{2060}\x{2066}-\x{2069}\x{FEFF}]`)},
}

// AssessRisk classifies residual suspicious patterns for audit logging. It
// never mutates content and never blocks the pipeline; a finding is advisory.
// Idempotent and side-effect-free.
func AssessRisk(s string) domain.RiskAssessment {
	var a domain.RiskAssessment
	for _, sig := range riskSignatures {
		if sig.re.MatchString(s) {
			a.Patterns = append(a.Patterns, sig.tag)
			if sig.level > a.Level {
				a.Level = sig.level
			}
		}
	}
	return a
}
