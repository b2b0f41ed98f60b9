// internal/domain/quality/metric.go
package quality

import "fmt"

// Metric identifies one of the two quality measures a seller is evaluated on.
type Metric int

const (
	MetricDefective Metric = iota
	MetricAppearance
)

func (m Metric) String() string {
	switch m {
	case MetricDefective:
		return "defective"
	case MetricAppearance:
		return "appearance"
	default:
		return fmt.Sprintf("metric(%d)", int(m))
	}
}

// Thresholds decide when a week counts as failing for a metric.
type Thresholds struct {
	MinIssueCount int     `yaml:"min_issue_count"`
	Rate          float64 `yaml:"rate"`     // week fails when rate is strictly above this
	Critical      float64 `yaml:"critical"` // failing weeks above this are labelled Critical
}

// Validate checks the thresholds are usable.
func (t Thresholds) Validate() error {
	if t.MinIssueCount < 0 {
		return fmt.Errorf("min issue count must not be negative, got %d", t.MinIssueCount)
	}
	if t.Rate < 0 || t.Rate > 1 {
		return fmt.Errorf("rate threshold must be within [0,1], got %v", t.Rate)
	}
	if t.Critical < t.Rate || t.Critical > 1 {
		return fmt.Errorf("critical threshold must be within [rate,1], got %v", t.Critical)
	}
	return nil
}

// Policy is the immutable escalation configuration shared by the evaluator and resolver.
type Policy struct {
	Defective  Thresholds `yaml:"defective"`
	Appearance Thresholds `yaml:"appearance"`
}

// DefaultPolicy returns the thresholds the escalation process has always used.
func DefaultPolicy() Policy {
	return Policy{
		Defective:  Thresholds{MinIssueCount: 2, Rate: 0.03, Critical: 0.04},
		Appearance: Thresholds{MinIssueCount: 2, Rate: 0.0075, Critical: 0.01},
	}
}

// For returns the thresholds of the given metric.
func (p Policy) For(m Metric) Thresholds {
	if m == MetricAppearance {
		return p.Appearance
	}
	return p.Defective
}

func (p Policy) Validate() error {
	if err := p.Defective.Validate(); err != nil {
		return fmt.Errorf("defective: %w", err)
	}
	if err := p.Appearance.Validate(); err != nil {
		return fmt.Errorf("appearance: %w", err)
	}
	return nil
}
