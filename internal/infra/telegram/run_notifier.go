package telegram

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"seller_escalation_bot/internal/app"
)

// RunNotifier posts every run report to the admin chat.
type RunNotifier struct {
	messenger Messenger
	adminID   int64
	log       *logrus.Entry
}

var _ app.RunObserver = (*RunNotifier)(nil)

func NewRunNotifier(m Messenger, adminID int64, log *logrus.Entry) *RunNotifier {
	return &RunNotifier{messenger: m, adminID: adminID, log: log.WithField("component", "run_notifier")}
}

func (n *RunNotifier) ObserveRun(_ context.Context, report *app.RunReport, err error) {
	text := runMessage(report, err)
	if sendErr := n.messenger.SendMessage(n.adminID, text, nil); sendErr != nil {
		n.log.WithError(sendErr).Error("Failed to send run summary to admin")
	}
}

func runMessage(report *app.RunReport, err error) string {
	switch {
	case err != nil && report != nil:
		return fmt.Sprintf("Weekly run failed: %v\n\n%s", err, report.Summary())
	case err != nil:
		return fmt.Sprintf("Weekly run failed: %v", err)
	default:
		return report.Summary()
	}
}
