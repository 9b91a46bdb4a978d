// Package sink implements the severity-threshold aggregating log sink.
//
// A Sink buffers the log entries of one unit of work that meet its
// severity threshold and, when the unit of work ends, sends a single
// aggregated notification covering all of them. The sink is not
// durable: a flushed batch is gone whether or not delivery succeeded.
// Pair it with a journal when that loss is not acceptable.
package sink

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/okanacar/mailsink/pkg/compose"
	"github.com/okanacar/mailsink/pkg/journal"
	"github.com/okanacar/mailsink/pkg/notify"
	"github.com/okanacar/mailsink/pkg/severity"
)

// Sink accumulates rendered log entries above a severity threshold and
// flushes them as one notification. All methods are safe for
// concurrent use; Record and Flush share one critical section.
type Sink struct {
	mu         sync.Mutex
	threshold  severity.Level
	recipients []string
	buffer     []string
	max        severity.Level
	hasMax     bool

	mailer   notify.Mailer
	site     notify.Site
	composer *compose.Composer
	journal  journal.Journal
	logger   *slog.Logger
}

// New creates a sink. A mailer and a site provider are required; when
// no recipients are given, the site's default recipient is used. If a
// registrar is supplied, the sink's Flush is registered with it once,
// here.
func New(opts ...Option) (*Sink, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.mailer == nil {
		return nil, fmt.Errorf("sink: mailer is required")
	}
	if o.site == nil {
		return nil, fmt.Errorf("sink: site provider is required")
	}
	if !o.threshold.Valid() {
		return nil, fmt.Errorf("sink: invalid threshold %d", int(o.threshold))
	}
	if o.composer == nil {
		o.composer = compose.New()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	recipients := o.recipients
	if len(recipients) == 0 {
		recipients = []string{o.site.DefaultRecipient()}
	}

	s := &Sink{
		threshold:  o.threshold,
		recipients: recipients,
		mailer:     o.mailer,
		site:       o.site,
		composer:   o.composer,
		journal:    o.journal,
		logger:     o.logger,
	}

	if o.registrar != nil {
		o.registrar.OnComplete(func() {
			s.Flush(context.Background())
		})
	}

	return s, nil
}

// AddRecipient appends an address to the recipient list. Addresses are
// not validated and duplicates are kept.
func (s *Sink) AddRecipient(addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipients = append(s.recipients, addr)
}

// Recipients returns a copy of the current recipient list.
func (s *Sink) Recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.recipients))
	copy(out, s.recipients)
	return out
}

// SetThreshold changes the retention threshold. Already-buffered
// entries are unaffected.
func (s *Sink) SetThreshold(l severity.Level) error {
	if !l.Valid() {
		return fmt.Errorf("sink: invalid threshold %d", int(l))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threshold = l
	return nil
}

// SetThresholdName resolves a level name and changes the threshold.
// Unknown names are rejected.
func (s *Sink) SetThresholdName(name string) error {
	l, err := severity.ParseLevel(name)
	if err != nil {
		return err
	}
	return s.SetThreshold(l)
}

// Threshold returns the current retention threshold.
func (s *Sink) Threshold() severity.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threshold
}

// Record offers one entry to the sink. Entries below the threshold are
// dropped and Record returns false; that is normal operation, not an
// error. Retained entries are rendered, buffered in arrival order, and
// raise the running maximum severity. When a journal is paired, every
// offered entry is journaled first, dropped or not.
func (s *Sink) Record(ctx context.Context, e Entry) bool {
	if !e.Level.Valid() {
		s.logger.Error("entry with invalid severity dropped", "level", int(e.Level), "source", e.Source)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.journal != nil {
		rec := &journal.Record{
			Time:     e.Time,
			Level:    e.Level,
			Source:   e.Source,
			Message:  e.Message,
			Fields:   e.Fields,
			Retained: e.Level >= s.threshold,
		}
		if err := s.journal.Append(ctx, rec); err != nil {
			s.logger.Error("journal append failed", "error", err, "source", e.Source)
		}
	}

	if e.Level < s.threshold {
		return false
	}

	s.buffer = append(s.buffer, e.render())
	if !s.hasMax || e.Level > s.max {
		s.max = e.Level
		s.hasMax = true
	}
	return true
}

// Flush sends one notification covering everything buffered since the
// last flush, then resets the sink. An empty buffer is a no-op
// returning false. The buffer is cleared whether or not delivery
// succeeds; the return value is the delivery outcome.
func (s *Sink) Flush(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buffer) == 0 {
		return false
	}

	subject := s.composer.Subject(s.site.Name(), s.max, len(s.buffer))
	body := s.composer.Body(s.site.Name(), s.buffer, s.site.AdminURL())

	err := s.mailer.Send(ctx, s.recipients, subject, body)

	count := len(s.buffer)
	s.buffer = nil
	s.max = 0
	s.hasMax = false

	if err != nil {
		s.logger.Error("notification delivery failed, batch discarded",
			"mailer", s.mailer.Name(),
			"entries", count,
			"error", err,
		)
		return false
	}

	s.logger.Info("notification sent",
		"mailer", s.mailer.Name(),
		"entries", count,
		"recipients", len(s.recipients),
	)
	return true
}

// State reports the buffered entry count and the maximum severity
// observed since the last flush. ok is false when nothing is buffered.
func (s *Sink) State() (count int, max severity.Level, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buffer), s.max, s.hasMax
}
