// internal/app/dispatch_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"seller_escalation_bot/internal/domain/mail"
	"seller_escalation_bot/internal/domain/quality"
	"seller_escalation_bot/internal/domain/tracking"
	"seller_escalation_bot/internal/infra/templates"
)

// ErrRunInProgress is returned when a weekly run is requested while another is active.
var ErrRunInProgress = fmt.Errorf("a weekly run is already in progress")

// FallbackEmailType is used when the template for a seller's tier cannot be rendered.
var FallbackEmailType = quality.ActionFirstWarning.EmailType()

// SnapshotSource provides the seller snapshots for one run.
type SnapshotSource interface {
	LoadSnapshots(ctx context.Context) (*quality.Batch, error)
}

// EmailRenderer renders a subject and HTML body for an email type.
type EmailRenderer interface {
	RenderEmail(emailType string, data templates.EmailData) (subject, body string, err error)
}

// RunObserver is told about every finished run, including failed ones.
type RunObserver interface {
	ObserveRun(ctx context.Context, report *RunReport, err error)
}

// Dispatcher defines the weekly notification workflow.
type Dispatcher interface {
	RunWeekly(ctx context.Context) (*RunReport, error)
}

// RunReport counts what happened to every row of a run.
type RunReport struct {
	StartedAt         time.Time
	FinishedAt        time.Time
	Rows              int
	Excluded          int
	NoAction          int
	MissingEmail      int
	NoValidAddress    int
	Notified          int
	EmailsSent        int
	InvalidAddresses  int
	DeliveryFailures  int
	TemplateFallbacks int
	RowErrors         int
	ByAction          map[quality.Action]int
}

func newRunReport(started time.Time) *RunReport {
	return &RunReport{StartedAt: started, ByAction: make(map[quality.Action]int)}
}

// Duration of the run, zero while it is still going.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary renders the report for operators.
func (r *RunReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weekly run %s (%s)\n", r.StartedAt.Format("2006-01-02 15:04"), r.Duration().Round(time.Second))
	fmt.Fprintf(&b, "Rows: %d, notified: %d, emails sent: %d\n", r.Rows, r.Notified, r.EmailsSent)

	actions := make([]quality.Action, 0, len(r.ByAction))
	for a := range r.ByAction {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] > actions[j] })
	for _, a := range actions {
		fmt.Fprintf(&b, "  %s: %d\n", a, r.ByAction[a])
	}

	fmt.Fprintf(&b, "Excluded: %d, no action: %d, missing email: %d, no valid address: %d\n",
		r.Excluded, r.NoAction, r.MissingEmail, r.NoValidAddress)
	fmt.Fprintf(&b, "Invalid addresses: %d, delivery failures: %d, template fallbacks: %d, row errors: %d",
		r.InvalidAddresses, r.DeliveryFailures, r.TemplateFallbacks, r.RowErrors)
	return b.String()
}

// DispatchService implements Dispatcher. Rows are processed one at a time and
// a failing row never stops the run.
type DispatchService struct {
	source    SnapshotSource
	renderer  EmailRenderer
	sender    mail.Sender
	repo      tracking.Repository
	links     templates.Links
	observers []RunObserver
	log       *logrus.Entry

	now   func() time.Time
	newID func() string

	running sync.Mutex
}

var _ Dispatcher = (*DispatchService)(nil)

func NewDispatchService(
	source SnapshotSource,
	renderer EmailRenderer,
	sender mail.Sender,
	repo tracking.Repository,
	links templates.Links,
	log *logrus.Entry,
	observers ...RunObserver,
) *DispatchService {
	return &DispatchService{
		source:    source,
		renderer:  renderer,
		sender:    sender,
		repo:      repo,
		links:     links,
		observers: observers,
		log:       log.WithField("component", "dispatcher"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// RunWeekly loads the snapshots and notifies every seller with an action.
// A failed load aborts the run; everything after it is counted per row.
func (s *DispatchService) RunWeekly(ctx context.Context) (report *RunReport, err error) {
	if !s.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.running.Unlock()

	report = newRunReport(s.now())
	defer func() {
		report.FinishedAt = s.now()
		for _, o := range s.observers {
			o.ObserveRun(ctx, report, err)
		}
	}()

	s.log.Info("Starting weekly run")
	batch, err := s.source.LoadSnapshots(ctx)
	if err != nil {
		s.log.WithError(err).Error("Failed to load seller snapshots")
		return report, fmt.Errorf("failed to load seller snapshots: %w", err)
	}
	report.Rows = len(batch.Snapshots) + len(batch.Skipped)
	report.RowErrors = len(batch.Skipped)

	for _, snap := range batch.Snapshots {
		if err := ctx.Err(); err != nil {
			s.log.WithError(err).Warn("Weekly run cancelled")
			return report, err
		}
		rowLog := s.log.WithFields(logrus.Fields{"seller_id": snap.SellerID, "action": snap.FinalAction.String()})

		switch {
		case snap.Excluded:
			report.Excluded++
			rowLog.Debug("Seller excluded, streak beyond suspension")
			continue
		case !snap.FinalAction.Notifies():
			report.NoAction++
			continue
		case strings.TrimSpace(snap.Email) == "":
			report.MissingEmail++
			rowLog.Warn("Seller has an action but no email address")
			continue
		}

		if err := s.notify(ctx, snap, report, rowLog); err != nil {
			report.RowErrors++
			rowLog.WithError(err).Error("Failed to notify seller")
		}
	}

	s.log.WithFields(logrus.Fields{
		"rows":        report.Rows,
		"notified":    report.Notified,
		"emails_sent": report.EmailsSent,
		"row_errors":  report.RowErrors,
	}).Info("Weekly run finished")
	return report, nil
}

// notify sends the seller's tier email to every valid address, records each
// delivery and opens one pending response record for the tier.
func (s *DispatchService) notify(ctx context.Context, snap quality.SellerSnapshot, report *RunReport, rowLog *logrus.Entry) error {
	emailType := snap.FinalAction.EmailType()
	valid, invalid := mail.SplitAddresses(snap.Email)
	report.InvalidAddresses += len(invalid)
	for _, addr := range invalid {
		rowLog.WithField("address", addr).Warn("Skipping invalid email address")
	}
	if len(valid) == 0 {
		report.NoValidAddress++
		rowLog.WithField("email", snap.Email).Warn("Seller has no valid email address")
		return nil
	}

	sentAt := s.now()
	sent := 0
	fellBack := false
	for _, addr := range valid {
		trackingID := s.newID()
		subject, body, usedFallback, err := s.render(emailType, s.links.EmailData(trackingID, snap))
		if err != nil {
			return err
		}
		if usedFallback && !fellBack {
			fellBack = true
			report.TemplateFallbacks++
			rowLog.Warn("Template missing or broken, used first warning template")
		}

		if err := s.sender.Send(ctx, mail.Message{To: addr, Subject: subject, HTMLBody: body}); err != nil {
			report.DeliveryFailures++
			rowLog.WithError(err).WithField("address", addr).Warn("Email delivery failed")
			continue
		}
		sent++
		report.EmailsSent++

		rec := &tracking.Record{
			TrackingID: trackingID,
			Email:      addr,
			SellerID:   snap.SellerID,
			EmailType:  emailType,
			SentAt:     sentAt,
		}
		if err := s.repo.CreateRecord(ctx, rec); err != nil {
			// The email is out; only its open tracking is lost.
			rowLog.WithError(err).WithField("tracking_id", trackingID).Error("Failed to store tracking record")
		}
	}
	if sent == 0 {
		return nil
	}

	if err := s.repo.CreateResponse(ctx, tracking.NewPendingResponse(snap, sentAt)); err != nil {
		return fmt.Errorf("failed to create response record: %w", err)
	}
	report.Notified++
	report.ByAction[snap.FinalAction]++
	rowLog.WithField("recipients", sent).Info("Seller notified")
	return nil
}

func (s *DispatchService) render(emailType string, data templates.EmailData) (subject, body string, usedFallback bool, err error) {
	subject, body, err = s.renderer.RenderEmail(emailType, data)
	if err == nil {
		return subject, body, false, nil
	}
	if emailType == FallbackEmailType {
		return "", "", false, fmt.Errorf("failed to render %s: %w", emailType, err)
	}

	subject, body, fbErr := s.renderer.RenderEmail(FallbackEmailType, data)
	if fbErr != nil {
		return "", "", false, fmt.Errorf("failed to render %s and fallback: %w", emailType, errors.Join(err, fbErr))
	}
	return subject, body, true, nil
}
