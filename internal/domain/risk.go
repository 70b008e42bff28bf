package domain

// RiskLevel grades residual suspicious patterns found in raw input.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

func (l RiskLevel) String() string {
	switch l {
	case RiskHigh:
		return "high"
	case RiskMedium:
		return "medium"
	default:
		return "low"
	}
}

// PatternTag names a family of suspicious input patterns.
type PatternTag string

const (
	PatternMarkup          PatternTag = "markup"
	PatternEventHandler    PatternTag = "event_handler"
	PatternDangerousScheme PatternTag = "dangerous_scheme"
	PatternInjectionPhrase PatternTag = "injection_phrase"
	PatternSQLMeta         PatternTag = "sql_meta"
	PatternInvisibleRun    PatternTag = "invisible_run"
)

// RiskAssessment is purely advisory: it is surfaced to the audit log and
// never blocks a request on its own.
type RiskAssessment struct {
	Patterns []PatternTag
	Level    RiskLevel
}

// Clean reports whether no suspicious patterns were found.
func (a RiskAssessment) Clean() bool { return len(a.Patterns) == 0 }
