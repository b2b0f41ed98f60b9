package quality

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errors raised while decoding input rows. Rows failing with these are skipped.
var (
	ErrShortRow   = errors.New("row has fewer columns than required")
	ErrInvalidRow = errors.New("row has an invalid value")
)

// SellerProfile is the descriptive part of a seller row.
type SellerProfile struct {
	SellerID     string
	SellerName   string
	OwnerName    string
	Tier         string
	ActivityType string
	Email        string
}

// SellerSnapshot is one seller's state for the current run.
type SellerSnapshot struct {
	SellerProfile

	DateKPI    time.Time
	TimePeriod string
	WeekNumber int

	DefectiveRate   float64
	DefectiveCount  int
	DefectiveStreak int
	DefectiveLabel  Label
	DefectiveAction Action

	AppearanceRate   float64
	AppearanceCount  int
	AppearanceStreak int
	AppearanceLabel  Label
	AppearanceAction Action

	FinalAction Action
	Excluded    bool
}

// Evaluations reconstructs the metric evaluations carried by a snapshot.
// A metric is failing when its label says so, which matches how the labels are produced.
func (s SellerSnapshot) Evaluations() (MetricEvaluation, MetricEvaluation) {
	def := MetricEvaluation{
		Metric:     MetricDefective,
		Rate:       s.DefectiveRate,
		IssueCount: s.DefectiveCount,
		Streak:     s.DefectiveStreak,
		Failing:    s.DefectiveLabel.CurrentlyFailing(),
		Label:      s.DefectiveLabel,
	}
	app := MetricEvaluation{
		Metric:     MetricAppearance,
		Rate:       s.AppearanceRate,
		IssueCount: s.AppearanceCount,
		Streak:     s.AppearanceStreak,
		Failing:    s.AppearanceLabel.CurrentlyFailing(),
		Label:      s.AppearanceLabel,
	}
	return def, app
}

// Apply copies a decision onto the snapshot.
func (s *SellerSnapshot) Apply(d Decision) {
	s.DefectiveAction = d.DefectiveAction
	s.AppearanceAction = d.AppearanceAction
	s.FinalAction = d.FinalAction
	s.Excluded = d.Excluded
}

// BuildSnapshot assembles a snapshot from freshly computed evaluations.
func BuildSnapshot(p SellerProfile, asOf time.Time, def, app MetricEvaluation, d Decision) SellerSnapshot {
	_, week := asOf.ISOWeek()
	s := SellerSnapshot{
		SellerProfile:    p,
		DateKPI:          asOf,
		TimePeriod:       "weekly",
		WeekNumber:       week,
		DefectiveRate:    def.Rate,
		DefectiveCount:   def.IssueCount,
		DefectiveStreak:  def.Streak,
		DefectiveLabel:   def.Label,
		AppearanceRate:   app.Rate,
		AppearanceCount:  app.IssueCount,
		AppearanceStreak: app.Streak,
		AppearanceLabel:  app.Label,
	}
	s.SellerID = NormalizeSellerID(s.SellerID)
	s.Apply(d)
	return s
}

// NormalizeSellerID returns the canonical form of a seller ID. Spreadsheet
// cells render numeric IDs as "12345" or "12345.0"; both map to "12345".
func NormalizeSellerID(raw string) string {
	id := strings.TrimSpace(raw)
	if i := strings.IndexByte(id, '.'); i > 0 && strings.Trim(id[i+1:], "0") == "" && isDigits(id[:i]) {
		id = id[:i]
	}
	return id
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// RowError records an input row that was skipped.
type RowError struct {
	Row int // 1-based, as shown by the source
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// Batch is the result of loading one run's input.
type Batch struct {
	Snapshots []SellerSnapshot
	Skipped   []RowError
}
