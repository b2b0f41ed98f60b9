package app

import (
	"context"
	"fmt"

	"seller_escalation_bot/internal/domain/tracking"
)

// Custom application-level errors for operator actions
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")

// OperatorService guards the actions the quality team can trigger from chat.
type OperatorService struct {
	tracking        *TrackingService
	dispatcher      Dispatcher
	adminTelegramID int64
}

func NewOperatorService(ts *TrackingService, d Dispatcher, adminID int64) *OperatorService {
	return &OperatorService{
		tracking:        ts,
		dispatcher:      d,
		adminTelegramID: adminID,
	}
}

// IsAdmin reports whether the Telegram user may operate the bot.
func (s *OperatorService) IsAdmin(telegramID int64) bool {
	return telegramID == s.adminTelegramID
}

// TriggerRun starts a weekly run on demand.
func (s *OperatorService) TriggerRun(ctx context.Context, performingAdminID int64) (*RunReport, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}
	return s.dispatcher.RunWeekly(ctx)
}

// UpdateStatus handles the business logic for a status typed in chat.
func (s *OperatorService) UpdateStatus(ctx context.Context, performingAdminID int64, sellerID, emailType, status, notes string) (*tracking.Response, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}
	return s.tracking.UpdateResponse(ctx, sellerID, emailType, status, notes)
}

// History returns a seller's notification history.
func (s *OperatorService) History(ctx context.Context, performingAdminID int64, sellerID string) (*tracking.History, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}
	return s.tracking.History(ctx, sellerID)
}
