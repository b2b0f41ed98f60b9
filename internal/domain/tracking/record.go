package tracking

import (
	"database/sql"
	"time"
)

// Record is one sent email and its open state.
// Corresponds to the 'tracking_records' table; TrackingID is the opaque token in the pixel URL.
type Record struct {
	TrackingID string
	Email      string
	SellerID   string
	EmailType  string
	SentAt     time.Time
	OpenedAt   sql.NullTime
	Opened     bool
	ViewCount  int
}

// MarkOpened registers one pixel hit. The first hit stamps OpenedAt; later
// hits only count views.
func (r *Record) MarkOpened(now time.Time) {
	if !r.Opened {
		r.Opened = true
		r.OpenedAt = sql.NullTime{Time: now, Valid: true}
	}
	r.ViewCount++
}

// History is everything recorded for one seller.
type History struct {
	SellerID  string
	Records   []*Record
	Responses []*Response
}

// Found reports whether anything was ever sent to the seller.
func (h *History) Found() bool {
	return len(h.Records) > 0 || len(h.Responses) > 0
}
