package notify

import (
	"context"
	"errors"
	"fmt"
)

// MultiMailer fans one notification out to several mailers. Every
// mailer is attempted even when an earlier one fails; the errors are
// joined.
type MultiMailer struct {
	mailers []Mailer
}

// NewMultiMailer creates a fan-out mailer.
func NewMultiMailer(mailers ...Mailer) *MultiMailer {
	return &MultiMailer{mailers: mailers}
}

func (m *MultiMailer) Name() string { return "multi" }

func (m *MultiMailer) Send(ctx context.Context, recipients []string, subject, body string) error {
	var errs []error
	for _, mailer := range m.mailers {
		if err := mailer.Send(ctx, recipients, subject, body); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", mailer.Name(), err))
		}
	}
	return errors.Join(errs...)
}
