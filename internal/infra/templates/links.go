package templates

import (
	"net/url"

	"seller_escalation_bot/internal/domain/quality"
	"seller_escalation_bot/internal/domain/tracking"
)

// Links builds the public URLs of the /exec endpoint: the pixel embedded in
// emails and the history page linked from the operator bot.
type Links struct {
	base string
}

func NewLinks(publicBaseURL string) Links {
	return Links{base: publicBaseURL}
}

func (l Links) exec(params url.Values) string {
	return l.base + "/exec?" + params.Encode()
}

func (l Links) Pixel(trackingID string) string {
	return l.exec(url.Values{"action": {"open"}, "id": {trackingID}})
}

// StatusQuery is the relative /exec query that sets a response status. It is
// linked from the operator history page, never from seller emails.
func StatusQuery(sellerID, emailType string, status tracking.ResolutionStatus) string {
	return "?" + url.Values{
		"action":    {"updateResponse"},
		"sellerId":  {sellerID},
		"emailType": {emailType},
		"status":    {string(status)},
	}.Encode()
}

func (l Links) History(sellerID string) string {
	return l.exec(url.Values{"action": {"viewHistory"}, "sellerId": {sellerID}})
}

// EmailData assembles the template data for one recipient. Seller emails
// only carry the tracking pixel; status changes are made by operators.
func (l Links) EmailData(trackingID string, snap quality.SellerSnapshot) EmailData {
	return EmailData{
		Snapshot: snap,
		PixelURL: l.Pixel(trackingID),
	}
}
