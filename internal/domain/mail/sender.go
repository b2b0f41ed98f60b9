package mail

import "context"

// Message is one rendered email to a single recipient.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Sender defines an interface for delivering email.
// This keeps the dispatcher independent from the SMTP library.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
