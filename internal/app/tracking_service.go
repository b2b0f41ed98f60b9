// internal/app/tracking_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"seller_escalation_bot/internal/domain/quality"
	"seller_escalation_bot/internal/domain/tracking"
	idb "seller_escalation_bot/internal/infra/database"
)

// ErrInvalidRequest wraps malformed input from links and bot commands.
var ErrInvalidRequest = fmt.Errorf("invalid request")

// TrackingService answers pixel hits, status links and history lookups.
type TrackingService struct {
	repo tracking.Repository
	log  *logrus.Entry
	now  func() time.Time
}

func NewTrackingService(repo tracking.Repository, log *logrus.Entry) *TrackingService {
	return &TrackingService{
		repo: repo,
		log:  log.WithField("component", "tracking"),
		now:  time.Now,
	}
}

// RecordOpen marks the tracking record as opened. Unknown IDs return
// idb.ErrTrackingNotFound; callers serve the pixel regardless.
func (s *TrackingService) RecordOpen(ctx context.Context, trackingID string) error {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return fmt.Errorf("%w: missing tracking id", ErrInvalidRequest)
	}

	rec, err := s.repo.GetRecord(ctx, trackingID)
	if err != nil {
		if errors.Is(err, idb.ErrTrackingNotFound) {
			s.log.WithField("tracking_id", trackingID).Debug("Open for unknown tracking id")
			return idb.ErrTrackingNotFound
		}
		return fmt.Errorf("failed to get tracking record: %w", err)
	}

	rec.MarkOpened(s.now())
	if err := s.repo.UpdateRecord(ctx, rec); err != nil {
		return fmt.Errorf("failed to update tracking record: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"tracking_id": trackingID,
		"seller_id":   rec.SellerID,
		"views":       rec.ViewCount,
	}).Info("Email opened")
	return nil
}

// UpdateResponse sets the status of the latest response record for the
// seller and email type. A missing record returns idb.ErrResponseNotFound.
func (s *TrackingService) UpdateResponse(ctx context.Context, sellerID, emailType, status, notes string) (*tracking.Response, error) {
	sellerID = quality.NormalizeSellerID(sellerID)
	if sellerID == "" {
		return nil, fmt.Errorf("%w: missing seller id", ErrInvalidRequest)
	}
	action, err := quality.ParseEmailType(emailType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	parsedStatus, err := tracking.ParseResolutionStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	resp, err := s.repo.GetLatestResponse(ctx, sellerID, action.EmailType())
	if err != nil {
		if errors.Is(err, idb.ErrResponseNotFound) {
			return nil, idb.ErrResponseNotFound
		}
		return nil, fmt.Errorf("failed to get response record: %w", err)
	}

	resp.ApplyStatus(parsedStatus, strings.TrimSpace(notes), s.now())
	if err := s.repo.UpdateResponse(ctx, resp); err != nil {
		return nil, fmt.Errorf("failed to update response record: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"seller_id":  sellerID,
		"email_type": resp.EmailType,
		"status":     resp.Status,
	}).Info("Response status updated")
	return resp, nil
}

// History returns everything sent to a seller. A seller with no records gets
// an empty history; check History.Found.
func (s *TrackingService) History(ctx context.Context, sellerID string) (*tracking.History, error) {
	sellerID = quality.NormalizeSellerID(sellerID)
	if sellerID == "" {
		return nil, fmt.Errorf("%w: missing seller id", ErrInvalidRequest)
	}

	records, err := s.repo.ListRecordsBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracking records: %w", err)
	}
	responses, err := s.repo.ListResponsesBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list response records: %w", err)
	}
	return &tracking.History{SellerID: sellerID, Records: records, Responses: responses}, nil
}
