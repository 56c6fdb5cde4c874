package mail

import (
	"context"
	"io"
)

// Message represents an email payload.
type Message struct {
	// From is an optional explicit sender; the configured default is used otherwise.
	From string
	// FromName is an optional display name for the sender.
	FromName string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	// TextBody is the plain-text body. When both bodies are set, the HTML body
	// is sent as the alternative part.
	TextBody string
	HTMLBody string
}

// Mail abstracts an email provider.
type Mail interface {
	io.Closer
	// Send dispatches the given message using the underlying provider.
	Send(ctx context.Context, msg Message) error
}
