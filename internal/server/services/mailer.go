package services

import "context"

// Attachment is one file carried on an outbound message.
type Attachment struct {
	Name string
	MIME string
	Data []byte
}

// Message is the payload handed to the delivery collaborator.
type Message struct {
	To         string
	Subject    string
	Body       string
	Attachment Attachment
}

// Mailer delivers certificate emails. Implementations live outside this
// subsystem; a delivery failure must never roll back an issued certificate.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
