package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seller_escalation_bot/internal/app"
	"seller_escalation_bot/internal/app/mocks"
	"seller_escalation_bot/internal/domain/quality"
	"seller_escalation_bot/internal/domain/tracking"
	"seller_escalation_bot/internal/infra/logger"
	"seller_escalation_bot/internal/infra/templates"
)

type countingEvents map[string]int

func (c countingEvents) TrackingEvent(action, result string) {
	c[action+"/"+result]++
}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return errors.New("connection refused") }

type testServer struct {
	handler http.Handler
	repo    *mocks.MemoryTrackingRepository
	events  countingEvents
}

func newTestServer(t *testing.T, burst int) *testServer {
	t.Helper()
	repo := mocks.NewMemoryTrackingRepository()
	pages, err := templates.New("")
	require.NoError(t, err)
	events := countingEvents{}

	exec := NewExecHandler(app.NewTrackingService(repo, logger.Discard()), pages, events, logger.Discard())
	return &testServer{
		handler: NewRouter(t.Context(), RouterDeps{
			Exec:           exec,
			Metrics:        http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
			RateLimitRPS:   1,
			RateLimitBurst: burst,
			Log:            logger.Discard(),
		}),
		repo:   repo,
		events: events,
	}
}

func (s *testServer) get(path string, params url.Values) *httptest.ResponseRecorder {
	target := path
	if params != nil {
		target += "?" + params.Encode()
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestExec_Open(t *testing.T) {
	s := newTestServer(t, 100)
	ctx := context.Background()
	require.NoError(t, s.repo.CreateRecord(ctx, &tracking.Record{TrackingID: "trk-1", SellerID: "42", SentAt: time.Now()}))

	rec := s.get("/exec", url.Values{"action": {"open"}, "id": {"trk-1"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/gif", rec.Header().Get("Content-Type"))
	assert.Equal(t, transparentGIF, rec.Body.Bytes())
	assert.NotEmpty(t, rec.Header().Get(logger.RequestIDHeader))

	stored, err := s.repo.GetRecord(ctx, "trk-1")
	require.NoError(t, err)
	assert.True(t, stored.Opened)

	rec = s.get("/exec", url.Values{"action": {"open"}, "id": {"unknown"}})
	assert.Equal(t, http.StatusOK, rec.Code, "unknown ids still get the pixel")
	assert.Equal(t, transparentGIF, rec.Body.Bytes())

	rec = s.get("/exec", url.Values{"action": {"open"}})
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1, s.events["open/ok"])
	assert.Equal(t, 2, s.events["open/not_found"])
}

func TestExec_UpdateResponse(t *testing.T) {
	s := newTestServer(t, 100)
	snap := quality.SellerSnapshot{SellerProfile: quality.SellerProfile{SellerID: "42"}, FinalAction: quality.ActionLastWarning}
	require.NoError(t, s.repo.CreateResponse(context.Background(), tracking.NewPendingResponse(snap, time.Now())))

	rec := s.get("/exec", url.Values{"action": {"updateResponse"}, "sellerId": {"42"}, "emailType": {"last_warning"}, "status": {"Resolved"}, "notes": {"refunded"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Resolved")
	assert.Contains(t, rec.Body.String(), "refunded")
	assert.Equal(t, tracking.StatusResolved, s.repo.Responses()[0].Status)

	rec = s.get("/exec", url.Values{"action": {"updateResponse"}, "sellerId": {"42"}, "emailType": {"suspension"}, "status": {"Resolved"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "seller 42")

	rec = s.get("/exec", url.Values{"action": {"updateResponse"}, "sellerId": {"42"}, "emailType": {"reminder"}, "status": {"Resolved"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExec_ViewHistory(t *testing.T) {
	s := newTestServer(t, 100)
	require.NoError(t, s.repo.CreateRecord(context.Background(), &tracking.Record{
		TrackingID: "trk-9", SellerID: "77", Email: "owner@seventy.example.com", EmailType: "first_warning", SentAt: time.Now(),
	}))

	rec := s.get("/exec", url.Values{"action": {"viewHistory"}, "sellerId": {"77"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "owner@seventy.example.com")

	rec = s.get("/exec", url.Values{"action": {"viewHistory"}, "sellerId": {"78"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.get("/exec", url.Values{"action": {"viewHistory"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.get("/exec", url.Values{"action": {"delete"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, 2)
	history := url.Values{"action": {"viewHistory"}, "sellerId": {"77"}}
	update := url.Values{"action": {"updateResponse"}, "sellerId": {"77"}, "emailType": {"first_warning"}, "status": {"Resolved"}}

	assert.Equal(t, http.StatusNotFound, s.get("/exec", history).Code)
	assert.Equal(t, http.StatusNotFound, s.get("/exec", update).Code)
	rec := s.get("/exec", history)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, s.get("/health", nil).Code, "health is not limited")
	assert.Equal(t, "# metrics", s.get("/metrics", nil).Body.String())
}

func TestRateLimit_OpenAlwaysServesPixel(t *testing.T) {
	s := newTestServer(t, 2)
	require.NoError(t, s.repo.CreateRecord(context.Background(), &tracking.Record{TrackingID: "trk-real", SellerID: "42", SentAt: time.Now()}))

	// Exhaust the limiter from the same address first.
	for i := 0; i < 20; i++ {
		s.get("/exec", url.Values{"action": {"open"}, "id": {"other"}})
	}
	assert.Equal(t, http.StatusTooManyRequests, s.get("/exec", url.Values{"action": {"viewHistory"}, "sellerId": {"1"}}).Code)

	rec := s.get("/exec", url.Values{"action": {"open"}, "id": {"trk-real"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/gif", rec.Header().Get("Content-Type"))
	assert.Equal(t, transparentGIF, rec.Body.Bytes())

	stored, err := s.repo.GetRecord(context.Background(), "trk-real")
	require.NoError(t, err)
	assert.True(t, stored.Opened)
	assert.Equal(t, 1, stored.ViewCount)
}

func TestRateLimiter_Prune(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	rl.prune(time.Now().Add(time.Minute))
	assert.Len(t, rl.visitors, 1, "recent visitors are kept")

	rl.prune(time.Now().Add(visitorTTL + time.Second))
	assert.Empty(t, rl.visitors)
	assert.True(t, rl.Allow("10.0.0.1"), "a pruned visitor starts with a fresh bucket")
}

func TestRateLimiter_CleanupStopsWithContext(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.RunCleanup(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup did not stop")
	}
}

func TestHealth_DatabaseDown(t *testing.T) {
	h := NewRouter(t.Context(), RouterDeps{Exec: http.NotFoundHandler(), DB: failingPinger{}, RateLimitRPS: 1, RateLimitBurst: 1, Log: logger.Discard()})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}
