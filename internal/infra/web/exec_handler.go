// internal/infra/web/exec_handler.go
package web

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"seller_escalation_bot/internal/app"
	"seller_escalation_bot/internal/domain/tracking"
	idb "seller_escalation_bot/internal/infra/database"
)

// transparentGIF is a 1x1 transparent GIF served for every open event.
var transparentGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00,
	0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// TrackingUseCases is what the /exec endpoint needs from the application.
type TrackingUseCases interface {
	RecordOpen(ctx context.Context, trackingID string) error
	UpdateResponse(ctx context.Context, sellerID, emailType, status, notes string) (*tracking.Response, error)
	History(ctx context.Context, sellerID string) (*tracking.History, error)
}

// PageRenderer renders the HTML pages returned by /exec.
type PageRenderer interface {
	StatusUpdated(w io.Writer, resp *tracking.Response) error
	History(w io.Writer, h *tracking.History) error
	NotFound(w io.Writer, message string) error
}

// EventCounter receives one call per /exec request.
type EventCounter interface {
	TrackingEvent(action, result string)
}

// ExecHandler serves GET /exec?action=open|updateResponse|viewHistory.
type ExecHandler struct {
	tracking TrackingUseCases
	pages    PageRenderer
	events   EventCounter
	log      *logrus.Entry
}

func NewExecHandler(t TrackingUseCases, pages PageRenderer, events EventCounter, log *logrus.Entry) *ExecHandler {
	return &ExecHandler{tracking: t, pages: pages, events: events, log: log.WithField("component", "web")}
}

func (h *ExecHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	action := q.Get("action")
	switch action {
	case "open":
		h.open(w, r, q.Get("id"))
	case "updateResponse":
		h.updateResponse(w, r, q.Get("sellerId"), q.Get("emailType"), q.Get("status"), q.Get("notes"))
	case "viewHistory":
		h.viewHistory(w, r, q.Get("sellerId"))
	default:
		h.count("unknown", "invalid")
		h.page(w, r, http.StatusBadRequest, func(w io.Writer) error {
			return h.pages.NotFound(w, "Unknown action.")
		})
	}
}

// open always answers with the pixel so mail clients never show a broken image.
func (h *ExecHandler) open(w http.ResponseWriter, r *http.Request, trackingID string) {
	err := h.tracking.RecordOpen(r.Context(), trackingID)
	switch {
	case err == nil:
		h.count("open", "ok")
	case errors.Is(err, idb.ErrTrackingNotFound), errors.Is(err, app.ErrInvalidRequest):
		h.count("open", "not_found")
	default:
		h.count("open", "error")
		requestLog(r, h.log).WithError(err).Error("Failed to record open")
	}

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(transparentGIF)
}

func (h *ExecHandler) updateResponse(w http.ResponseWriter, r *http.Request, sellerID, emailType, status, notes string) {
	resp, err := h.tracking.UpdateResponse(r.Context(), sellerID, emailType, status, notes)
	switch {
	case err == nil:
		h.count("updateResponse", "ok")
		h.page(w, r, http.StatusOK, func(w io.Writer) error { return h.pages.StatusUpdated(w, resp) })
	case errors.Is(err, idb.ErrResponseNotFound):
		h.count("updateResponse", "not_found")
		h.page(w, r, http.StatusNotFound, func(w io.Writer) error {
			return h.pages.NotFound(w, "No notification of this type was sent to seller "+sellerID+".")
		})
	case errors.Is(err, app.ErrInvalidRequest):
		h.count("updateResponse", "invalid")
		h.page(w, r, http.StatusBadRequest, func(w io.Writer) error { return h.pages.NotFound(w, err.Error()) })
	default:
		h.count("updateResponse", "error")
		requestLog(r, h.log).WithError(err).Error("Failed to update response")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *ExecHandler) viewHistory(w http.ResponseWriter, r *http.Request, sellerID string) {
	hist, err := h.tracking.History(r.Context(), sellerID)
	switch {
	case err == nil && hist.Found():
		h.count("viewHistory", "ok")
		h.page(w, r, http.StatusOK, func(w io.Writer) error { return h.pages.History(w, hist) })
	case err == nil:
		h.count("viewHistory", "not_found")
		h.page(w, r, http.StatusNotFound, func(w io.Writer) error {
			return h.pages.NotFound(w, "No notifications were sent to seller "+hist.SellerID+".")
		})
	case errors.Is(err, app.ErrInvalidRequest):
		h.count("viewHistory", "invalid")
		h.page(w, r, http.StatusBadRequest, func(w io.Writer) error { return h.pages.NotFound(w, err.Error()) })
	default:
		h.count("viewHistory", "error")
		requestLog(r, h.log).WithError(err).Error("Failed to load history")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *ExecHandler) page(w http.ResponseWriter, r *http.Request, status int, render func(io.Writer) error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := render(w); err != nil {
		requestLog(r, h.log).WithError(err).Error("Failed to render page")
	}
}

func (h *ExecHandler) count(action, result string) {
	if h.events != nil {
		h.events.TrackingEvent(action, result)
	}
}
