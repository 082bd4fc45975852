// Package report aggregates analyzed articles over a day or week window,
// tallies emotions, and emails a Vietnamese summary with a CSV detail
// attachment.
package report

import (
	"bytes"
	"context"
	"io"
)

// Attachment is a file attached to a report email.
type Attachment struct {
	Filename string
	Data     []byte
}

// Reader returns a fresh reader over the attachment bytes.
func (a *Attachment) Reader() io.Reader {
	return bytes.NewReader(a.Data)
}

// Mailer delivers a report email. Implementations swallow delivery problems:
// a report that cannot be sent is logged, not an error to the scheduler.
type Mailer interface {
	Send(ctx context.Context, subject, body string, attachment *Attachment) error
}
