package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seller_escalation_bot/internal/app/mocks"
	"seller_escalation_bot/internal/domain/quality"
	"seller_escalation_bot/internal/domain/tracking"
	idb "seller_escalation_bot/internal/infra/database"
	"seller_escalation_bot/internal/infra/logger"
)

func newTrackingService(t *testing.T) (*TrackingService, *mocks.MemoryTrackingRepository) {
	t.Helper()
	repo := mocks.NewMemoryTrackingRepository()
	ts := NewTrackingService(repo, logger.Discard())
	ts.now = func() time.Time { return runTime.Add(24 * time.Hour) }
	return ts, repo
}

func seedResponse(t *testing.T, repo *mocks.MemoryTrackingRepository, sellerID string, action quality.Action, sentAt time.Time) *tracking.Response {
	t.Helper()
	r := tracking.NewPendingResponse(snapshot(sellerID, action, "a@shop.example.com"), sentAt)
	require.NoError(t, repo.CreateResponse(context.Background(), r))
	return r
}

func TestTrackingService_RecordOpen(t *testing.T) {
	ctx := context.Background()
	ts, repo := newTrackingService(t)
	require.NoError(t, repo.CreateRecord(ctx, &tracking.Record{TrackingID: "trk", SellerID: "1", SentAt: runTime}))

	require.NoError(t, ts.RecordOpen(ctx, "trk"))
	rec, err := repo.GetRecord(ctx, "trk")
	require.NoError(t, err)
	assert.True(t, rec.Opened)
	assert.Equal(t, runTime.Add(24*time.Hour), rec.OpenedAt.Time)
	assert.Equal(t, 1, rec.ViewCount)

	assert.ErrorIs(t, ts.RecordOpen(ctx, "missing"), idb.ErrTrackingNotFound)
	assert.ErrorIs(t, ts.RecordOpen(ctx, " "), ErrInvalidRequest)
}

func TestTrackingService_UpdateResponse(t *testing.T) {
	ctx := context.Background()
	ts, repo := newTrackingService(t)
	seedResponse(t, repo, "12345", quality.ActionLastWarning, runTime.Add(-7*24*time.Hour))
	latest := seedResponse(t, repo, "12345", quality.ActionLastWarning, runTime)

	resp, err := ts.UpdateResponse(ctx, "12345.0", "Last-Warning", "in progress", " called the owner ")
	require.NoError(t, err)
	assert.Equal(t, latest.ID, resp.ID)
	assert.Equal(t, tracking.StatusInProgress, resp.Status)
	assert.True(t, resp.ResponseReceived)
	assert.Equal(t, "called the owner", resp.Notes)

	stored := repo.Responses()
	assert.Equal(t, tracking.StatusPending, stored[0].Status, "older record untouched")
	assert.Equal(t, tracking.StatusInProgress, stored[1].Status)

	resp, err = ts.UpdateResponse(ctx, "12345", "last_warning", "Escalated to legal", "")
	require.NoError(t, err)
	assert.True(t, resp.Status.IsCustom())
	assert.Equal(t, "called the owner", resp.Notes)
}

func TestTrackingService_UpdateResponseErrors(t *testing.T) {
	ctx := context.Background()
	ts, repo := newTrackingService(t)
	seedResponse(t, repo, "7", quality.ActionFirstWarning, runTime)

	_, err := ts.UpdateResponse(ctx, "7", "suspension", "resolved", "")
	assert.ErrorIs(t, err, idb.ErrResponseNotFound)

	_, err = ts.UpdateResponse(ctx, "8", "first_warning", "resolved", "")
	assert.ErrorIs(t, err, idb.ErrResponseNotFound)

	_, err = ts.UpdateResponse(ctx, "7", "final_notice", "resolved", "")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = ts.UpdateResponse(ctx, "7", "first_warning", "", "")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = ts.UpdateResponse(ctx, "", "first_warning", "resolved", "")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestTrackingService_History(t *testing.T) {
	ctx := context.Background()
	ts, repo := newTrackingService(t)

	h, err := ts.History(ctx, "99")
	require.NoError(t, err)
	assert.False(t, h.Found())

	seedResponse(t, repo, "99", quality.ActionFirstWarning, runTime)
	require.NoError(t, repo.CreateRecord(ctx, &tracking.Record{TrackingID: "t1", SellerID: "99", SentAt: runTime}))

	h, err = ts.History(ctx, "99.0")
	require.NoError(t, err)
	assert.True(t, h.Found())
	assert.Equal(t, "99", h.SellerID)
	assert.Len(t, h.Records, 1)
	assert.Len(t, h.Responses, 1)
}

func TestOperatorService_RequiresAdmin(t *testing.T) {
	ctx := context.Background()
	ts, repo := newTrackingService(t)
	seedResponse(t, repo, "5", quality.ActionFirstWarning, runTime)
	op := NewOperatorService(ts, nil, 42)

	_, err := op.UpdateStatus(ctx, 7, "5", "first_warning", "resolved", "")
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	_, err = op.History(ctx, 7, "5")
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	_, err = op.TriggerRun(ctx, 7)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)

	resp, err := op.UpdateStatus(ctx, 42, "5", "first_warning", "resolved", "")
	require.NoError(t, err)
	assert.Equal(t, tracking.StatusResolved, resp.Status)
}
