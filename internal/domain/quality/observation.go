package quality

import "time"

// WeeklyObservation is one seller's issue counts for one metric over one week.
type WeeklyObservation struct {
	SellerID       string
	WeekStart      time.Time
	IssueCount     int
	DeliveredCount int
}

// Rate is IssueCount/DeliveredCount. A week with nothing delivered has rate 0.
func (o WeeklyObservation) Rate() float64 {
	if o.DeliveredCount <= 0 {
		return 0
	}
	return float64(o.IssueCount) / float64(o.DeliveredCount)
}

// PassFail reports whether the week breaches the thresholds.
// True means the week is failing and extends the streak.
func PassFail(o WeeklyObservation, t Thresholds) bool {
	return o.IssueCount >= t.MinIssueCount && o.Rate() > t.Rate
}
