package model

// Severity classifies how strongly a finding should be acted on.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Finding is one advisory observation about a parsed class, produced by
// the inspection rules.
type Finding struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Method   string   `json:"method,omitempty"`
	Value    int64    `json:"value,omitempty"`
}

// IsEmpty returns true if the finding carries no message.
func (f *Finding) IsEmpty() bool {
	return f.Message == ""
}

// FindingBuilder helps build findings with a fluent interface.
type FindingBuilder struct {
	finding Finding
}

// NewFindingBuilder creates a new FindingBuilder.
func NewFindingBuilder(rule string) *FindingBuilder {
	return &FindingBuilder{
		finding: Finding{
			Rule:     rule,
			Severity: SeverityInfo,
		},
	}
}

// WithSeverity sets the severity.
func (b *FindingBuilder) WithSeverity(severity Severity) *FindingBuilder {
	b.finding.Severity = severity
	return b
}

// WithMessage sets the finding text.
func (b *FindingBuilder) WithMessage(message string) *FindingBuilder {
	b.finding.Message = message
	return b
}

// WithMethod names the method the finding is about.
func (b *FindingBuilder) WithMethod(method string) *FindingBuilder {
	b.finding.Method = method
	return b
}

// WithValue records the measured quantity that triggered the finding.
func (b *FindingBuilder) WithValue(value int64) *FindingBuilder {
	b.finding.Value = value
	return b
}

// Build returns the built Finding.
func (b *FindingBuilder) Build() Finding {
	return b.finding
}

// CountBySeverity tallies findings per severity level.
func CountBySeverity(findings []Finding) map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}
