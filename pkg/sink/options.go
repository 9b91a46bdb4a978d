package sink

import (
	"log/slog"

	"github.com/okanacar/mailsink/pkg/compose"
	"github.com/okanacar/mailsink/pkg/journal"
	"github.com/okanacar/mailsink/pkg/notify"
	"github.com/okanacar/mailsink/pkg/severity"
)

type options struct {
	threshold  severity.Level
	recipients []string
	mailer     notify.Mailer
	site       notify.Site
	composer   *compose.Composer
	registrar  Registrar
	journal    journal.Journal
	logger     *slog.Logger
}

// Option configures a Sink.
type Option func(*options)

// WithThreshold sets the minimum severity an entry needs to be
// retained. Default: severity.Alert.
func WithThreshold(l severity.Level) Option {
	return func(o *options) {
		o.threshold = l
	}
}

// WithRecipients sets the initial recipient list. When empty, the
// site's default recipient is used.
func WithRecipients(addrs ...string) Option {
	return func(o *options) {
		o.recipients = append(o.recipients, addrs...)
	}
}

// WithMailer sets the delivery transport. Required.
func WithMailer(m notify.Mailer) Option {
	return func(o *options) {
		o.mailer = m
	}
}

// WithSite sets the site-identity provider. Required.
func WithSite(s notify.Site) Option {
	return func(o *options) {
		o.site = s
	}
}

// WithComposer overrides the default message composer.
func WithComposer(c *compose.Composer) Option {
	return func(o *options) {
		o.composer = c
	}
}

// WithRegistrar binds the sink's Flush to a host lifecycle hook. The
// hook fires exactly once per unit of work.
func WithRegistrar(r Registrar) Option {
	return func(o *options) {
		o.registrar = r
	}
}

// WithJournal pairs the sink with a durable journal. Every offered
// entry is journaled, whether or not the threshold retains it.
func WithJournal(j journal.Journal) Option {
	return func(o *options) {
		o.journal = j
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func defaultOptions() options {
	return options{
		threshold: severity.Alert,
	}
}
