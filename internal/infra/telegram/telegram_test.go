package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"

	"seller_escalation_bot/internal/app"
	"seller_escalation_bot/internal/domain/tracking"
	"seller_escalation_bot/internal/infra/logger"
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeMessenger struct {
	sent []sentMessage
	err  error
}

func (f *fakeMessenger) SendMessage(chatID int64, text string, _ *telebot.SendOptions) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return f.err
}

func TestParseStatusArgs(t *testing.T) {
	cmd, err := parseStatusArgs([]string{"42", "last_warning", "resolved", "refund", "issued"})
	require.NoError(t, err)
	assert.Equal(t, statusCommand{sellerID: "42", emailType: "last_warning", status: "resolved", notes: "refund issued"}, cmd)

	cmd, err = parseStatusArgs([]string{"42", "first_warning", "in-progress"})
	require.NoError(t, err)
	assert.Empty(t, cmd.notes)

	_, err = parseStatusArgs([]string{"42", "first_warning"})
	assert.Error(t, err)
}

func TestHistoryMessage_NotFound(t *testing.T) {
	text, markup := historyMessage(&tracking.History{SellerID: "9"}, "")
	assert.Contains(t, text, "seller 9")
	assert.Nil(t, markup)
}

func TestHistoryMessage_ButtonsForOpenWarning(t *testing.T) {
	sent := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	h := &tracking.History{
		SellerID: "42",
		Records: []*tracking.Record{
			{TrackingID: "a", SellerID: "42", Email: "shop@example.com", EmailType: "first_warning", SentAt: sent, Opened: true, ViewCount: 2},
			{TrackingID: "b", SellerID: "42", Email: "shop@example.com", EmailType: "last_warning", SentAt: sent.AddDate(0, 0, 21)},
		},
		Responses: []*tracking.Response{
			{SellerID: "42", EmailType: "first_warning", WeekNumber: 10, SentAt: sent, Status: tracking.StatusResolved, Notes: "fixed listings"},
			{SellerID: "42", EmailType: "last_warning", WeekNumber: 13, SentAt: sent.AddDate(0, 0, 21), Status: tracking.StatusPending},
		},
	}

	text, markup := historyMessage(h, "https://quality.example.com/exec?action=viewHistory&sellerId=42")
	assert.Contains(t, text, "History for seller 42")
	assert.Contains(t, text, "2026-03-02 first_warning (week 10): Resolved, fixed listings")
	assert.Contains(t, text, "opened 2x")
	assert.Contains(t, text, "not opened")

	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 2)
	row := markup.InlineKeyboard[0]
	require.Len(t, row, 2)
	assert.Equal(t, statusBtnUnique, row[0].Unique)
	assert.Equal(t, "res|42|last_warning", row[0].Data)
	assert.Equal(t, "inp|42|last_warning", row[1].Data)

	link := markup.InlineKeyboard[1]
	require.Len(t, link, 1)
	assert.Equal(t, "https://quality.example.com/exec?action=viewHistory&sellerId=42", link[0].URL)
}

func TestHistoryMessage_NoButtonsWhenResolved(t *testing.T) {
	h := &tracking.History{
		SellerID:  "42",
		Responses: []*tracking.Response{{SellerID: "42", EmailType: "suspension", Status: tracking.StatusResolved}},
	}
	_, markup := historyMessage(h, "")
	assert.Nil(t, markup)

	_, markup = historyMessage(h, "https://quality.example.com/exec?action=viewHistory&sellerId=42")
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 1)
	assert.Empty(t, markup.InlineKeyboard[0][0].Data)
	assert.NotEmpty(t, markup.InlineKeyboard[0][0].URL)
}

func TestTail(t *testing.T) {
	assert.Equal(t, []int{1, 2}, tail([]int{1, 2}, 3))
	assert.Equal(t, []int{3, 4}, tail([]int{1, 2, 3, 4}, 2))
}

func TestStatusUpdatedText(t *testing.T) {
	text := statusUpdatedText(&tracking.Response{SellerID: "42", EmailType: "suspension", Status: tracking.StatusInProgress, Notes: "called"})
	assert.Equal(t, "Seller 42, suspension: status set to \"In Progress\".\nNotes: called", text)
}

func TestRunNotifier(t *testing.T) {
	m := &fakeMessenger{}
	n := NewRunNotifier(m, 555, logger.Discard())
	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	n.ObserveRun(context.Background(), &app.RunReport{StartedAt: started, FinishedAt: started.Add(time.Minute), Rows: 3, Notified: 2}, nil)
	n.ObserveRun(context.Background(), nil, errors.New("sheet missing"))

	require.Len(t, m.sent, 2)
	assert.Equal(t, int64(555), m.sent[0].chatID)
	assert.Contains(t, m.sent[0].text, "Rows: 3, notified: 2")
	assert.Equal(t, "Weekly run failed: sheet missing", m.sent[1].text)

	m.err = errors.New("blocked by user")
	assert.NotPanics(t, func() { n.ObserveRun(context.Background(), &app.RunReport{}, nil) })
}

func TestRunMessage_FailureWithReport(t *testing.T) {
	text := runMessage(&app.RunReport{Rows: 4}, errors.New("context deadline exceeded"))
	assert.Contains(t, text, "Weekly run failed: context deadline exceeded")
	assert.Contains(t, text, "Rows: 4")
}

type sendCall struct {
	to   string
	text string
	opts *telebot.SendOptions
}

type fakeSender struct {
	calls []sendCall
	err   error
}

func (f *fakeSender) Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	call := sendCall{to: to.Recipient(), text: what.(string)}
	if len(opts) > 0 {
		call.opts = opts[0].(*telebot.SendOptions)
	}
	f.calls = append(f.calls, call)
	return &telebot.Message{}, f.err
}

func TestChatMessenger_SplitsLongText(t *testing.T) {
	s := &fakeSender{}
	m := &ChatMessenger{bot: s, limit: 12}
	markup := &telebot.ReplyMarkup{}

	require.NoError(t, m.SendMessage(-100, "row 1 failed\nrow 2 failed\nok", &telebot.SendOptions{ReplyMarkup: markup}))

	require.Len(t, s.calls, 3)
	assert.Equal(t, "-100", s.calls[0].to)
	assert.Equal(t, "row 1 failed", s.calls[0].text)
	assert.Equal(t, "row 2 failed", s.calls[1].text)
	assert.Equal(t, "ok", s.calls[2].text)
	assert.Nil(t, s.calls[0].opts.ReplyMarkup)
	assert.Same(t, markup, s.calls[2].opts.ReplyMarkup)
}

func TestChatMessenger_ShortTextAndError(t *testing.T) {
	s := &fakeSender{}
	m := &ChatMessenger{bot: s, limit: maxMessageLen}

	require.NoError(t, m.SendMessage(555, "Rows: 3", nil))
	require.Len(t, s.calls, 1)
	assert.Equal(t, "555", s.calls[0].to)
	assert.True(t, s.calls[0].opts.DisableWebPagePreview)

	s.err = errors.New("chat not found")
	assert.EqualError(t, m.SendMessage(555, "again", nil), "chat not found")
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))
	assert.Equal(t, []string{"abcdefghij", "klm"}, splitMessage("abcdefghijklm", 10), "no line break to cut at")
	assert.Equal(t, []string{"ääää", "öö"}, splitMessage("ääää\nöö", 5), "limits count runes")
}
