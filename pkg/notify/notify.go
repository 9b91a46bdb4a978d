// Package notify defines the delivery side of mailsink: the Mailer
// capability that carries a composed notification to its recipients,
// and the Site capability that supplies site identity.
package notify

import "context"

// Mailer delivers a composed notification to a list of recipients.
type Mailer interface {
	// Name returns the mailer identifier.
	Name() string

	// Send delivers one message. Implementations must be safe for
	// concurrent use.
	Send(ctx context.Context, recipients []string, subject, body string) error
}

// Site provides the identity of the installation a notification is
// about. Implementations are read-only.
type Site interface {
	// Name returns the human-readable site name used in subjects.
	Name() string

	// AdminURL returns the URL the notification body points readers at.
	AdminURL() string

	// DefaultRecipient returns the address used when a sink is
	// constructed with no recipients of its own.
	DefaultRecipient() string
}

// StaticSite is a Site backed by fixed values, typically from config.
type StaticSite struct {
	SiteName  string
	URL       string
	Recipient string
}

func (s StaticSite) Name() string             { return s.SiteName }
func (s StaticSite) AdminURL() string         { return s.URL }
func (s StaticSite) DefaultRecipient() string { return s.Recipient }
