// internal/domain/tracking/response.go
package tracking

import (
	"database/sql"
	"time"

	"seller_escalation_bot/internal/domain/quality"
)

// Response tracks whether a seller responded to a warning of a given tier.
// Corresponds to the 'response_records' table.
type Response struct {
	ID        int64
	SellerID  string
	EmailType string // first_warning, last_warning, suspension

	// Metrics at the time the warning was sent.
	DefectiveRate    float64
	DefectiveStreak  int
	DefectiveLabel   string
	AppearanceRate   float64
	AppearanceStreak int
	AppearanceLabel  string
	FinalAction      string
	WeekNumber       int

	SentAt           time.Time
	RespondedAt      sql.NullTime
	ResponseReceived bool
	Status           ResolutionStatus
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewPendingResponse starts a response record for a snapshot that was just notified.
func NewPendingResponse(s quality.SellerSnapshot, sentAt time.Time) *Response {
	return &Response{
		SellerID:         s.SellerID,
		EmailType:        s.FinalAction.EmailType(),
		DefectiveRate:    s.DefectiveRate,
		DefectiveStreak:  s.DefectiveStreak,
		DefectiveLabel:   s.DefectiveLabel.String(),
		AppearanceRate:   s.AppearanceRate,
		AppearanceStreak: s.AppearanceStreak,
		AppearanceLabel:  s.AppearanceLabel.String(),
		FinalAction:      s.FinalAction.String(),
		WeekNumber:       s.WeekNumber,
		SentAt:           sentAt,
		Status:           StatusPending,
	}
}

// ApplyStatus records an operator's status update.
func (r *Response) ApplyStatus(status ResolutionStatus, notes string, now time.Time) {
	r.Status = status
	r.RespondedAt = sql.NullTime{Time: now, Valid: true}
	r.ResponseReceived = true
	if notes != "" {
		r.Notes = notes
	}
}
