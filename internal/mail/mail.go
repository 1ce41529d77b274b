// Package mail provides outbound email delivery for vendor invitations.
package mail

import "context"

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages. The procurement workflow treats delivery as an
// external collaborator; failures surface to the caller unretried.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
