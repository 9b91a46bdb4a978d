package sink_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/okanacar/mailsink/pkg/notify"
	"github.com/okanacar/mailsink/pkg/severity"
	"github.com/okanacar/mailsink/pkg/sink"
)

type sentMessage struct {
	recipients []string
	subject    string
	body       string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeMailer) Name() string { return "fake" }

func (f *fakeMailer) Send(_ context.Context, recipients []string, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rcpts := make([]string, len(recipients))
	copy(rcpts, recipients)
	f.sent = append(f.sent, sentMessage{recipients: rcpts, subject: subject, body: body})
	return f.err
}

func (f *fakeMailer) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

var testSite = notify.StaticSite{
	SiteName:  "example.org",
	URL:       "https://example.org/admin/logs",
	Recipient: "ops@example.org",
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 4}))
}

func newTestSink(t *testing.T, mailer *fakeMailer, opts ...sink.Option) *sink.Sink {
	t.Helper()
	all := append([]sink.Option{
		sink.WithMailer(mailer),
		sink.WithSite(testSite),
		sink.WithLogger(quietLogger()),
	}, opts...)
	s, err := sink.New(all...)
	require.NoError(t, err)
	return s
}

func entryAt(level severity.Level, msg string) sink.Entry {
	return sink.Entry{
		Time:    time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
		Level:   level,
		Message: msg,
		Source:  "worker",
	}
}

func TestNew_RequiresMailer(t *testing.T) {
	_, err := sink.New(sink.WithSite(testSite))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailer")
}

func TestNew_RequiresSite(t *testing.T) {
	_, err := sink.New(sink.WithMailer(&fakeMailer{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "site")
}

func TestNew_DefaultThresholdIsAlert(t *testing.T) {
	s := newTestSink(t, &fakeMailer{})
	assert.Equal(t, severity.Alert, s.Threshold())
}

func TestNew_DefaultRecipientFromSite(t *testing.T) {
	s := newTestSink(t, &fakeMailer{})
	assert.Equal(t, []string{"ops@example.org"}, s.Recipients())
}

func TestRecord_FilterDecision(t *testing.T) {
	mailer := &fakeMailer{}
	s := newTestSink(t, mailer, sink.WithThreshold(severity.Warning))
	ctx := context.Background()

	// The concrete filtering scenario: debug, warning, error, info.
	assert.False(t, s.Record(ctx, entryAt(severity.Debug, "noise")))
	assert.True(t, s.Record(ctx, entryAt(severity.Warning, "disk filling up")))
	assert.True(t, s.Record(ctx, entryAt(severity.Error, "connection refused")))
	assert.False(t, s.Record(ctx, entryAt(severity.Info, "heartbeat")))

	count, max, ok := s.State()
	assert.Equal(t, 2, count)
	assert.True(t, ok)
	assert.Equal(t, severity.Error, max)
}

func TestRecord_MaxSeverityTracksRetainedOnly(t *testing.T) {
	s := newTestSink(t, &fakeMailer{}, sink.WithThreshold(severity.Error))
	ctx := context.Background()

	// Warning is below the threshold; it must not influence the max.
	s.Record(ctx, entryAt(severity.Warning, "ignored"))
	s.Record(ctx, entryAt(severity.Error, "kept"))

	_, max, ok := s.State()
	require.True(t, ok)
	assert.Equal(t, severity.Error, max)
}

func TestRecord_MaxSeverityIsRankComparison(t *testing.T) {
	s := newTestSink(t, &fakeMailer{}, sink.WithThreshold(severity.Warning))
	ctx := context.Background()

	s.Record(ctx, entryAt(severity.Critical, "first"))
	s.Record(ctx, entryAt(severity.Warning, "second"))

	// Max stays at critical even though warning came last.
	_, max, ok := s.State()
	require.True(t, ok)
	assert.Equal(t, severity.Critical, max)
}

func TestRecord_InvalidLevelDropped(t *testing.T) {
	s := newTestSink(t, &fakeMailer{}, sink.WithThreshold(severity.Debug))
	ok := s.Record(context.Background(), sink.Entry{Level: severity.Level(99), Message: "bad"})
	assert.False(t, ok)

	count, _, _ := s.State()
	assert.Equal(t, 0, count)
}

func TestFlush_EmptyBufferIsNoOp(t *testing.T) {
	mailer := &fakeMailer{}
	s := newTestSink(t, mailer)

	assert.False(t, s.Flush(context.Background()))
	assert.Empty(t, mailer.messages())

	// Still a no-op the second time.
	assert.False(t, s.Flush(context.Background()))
}

func TestFlush_ComposesAndSends(t *testing.T) {
	mailer := &fakeMailer{}
	s := newTestSink(t, mailer, sink.WithThreshold(severity.Warning))
	ctx := context.Background()

	s.Record(ctx, entryAt(severity.Warning, "disk filling up"))
	s.Record(ctx, entryAt(severity.Error, "connection refused"))

	assert.True(t, s.Flush(ctx))

	msgs := mailer.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].subject, "2")
	assert.Contains(t, msgs[0].subject, "ERROR")
	assert.Contains(t, msgs[0].subject, "example.org")
	assert.Contains(t, msgs[0].body, "disk filling up")
	assert.Contains(t, msgs[0].body, "connection refused")
	// FIFO: the warning line precedes the error line in the body.
	warnIdx := strings.Index(msgs[0].body, "disk filling up")
	errIdx := strings.Index(msgs[0].body, "connection refused")
	assert.Less(t, warnIdx, errIdx)
	assert.Contains(t, msgs[0].body, "https://example.org/admin/logs")
}

func TestFlush_ResetsState(t *testing.T) {
	mailer := &fakeMailer{}
	s := newTestSink(t, mailer, sink.WithThreshold(severity.Warning))
	ctx := context.Background()

	s.Record(ctx, entryAt(severity.Error, "boom"))
	require.True(t, s.Flush(ctx))

	count, _, ok := s.State()
	assert.Equal(t, 0, count)
	assert.False(t, ok)

	// A second flush with nothing new is a no-op.
	assert.False(t, s.Flush(ctx))
	assert.Len(t, mailer.messages(), 1)
}

func TestFlush_FailedSendStillDiscardsBatch(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	s := newTestSink(t, mailer, sink.WithThreshold(severity.Warning))
	ctx := context.Background()

	s.Record(ctx, entryAt(severity.Error, "boom"))
	assert.False(t, s.Flush(ctx))

	count, _, ok := s.State()
	assert.Equal(t, 0, count)
	assert.False(t, ok)
	require.Len(t, mailer.messages(), 1)
}

func TestFlush_SingularWording(t *testing.T) {
	mailer := &fakeMailer{}
	s := newTestSink(t, mailer, sink.WithThreshold(severity.Warning))
	ctx := context.Background()

	s.Record(ctx, entryAt(severity.Alert, "single event"))
	require.True(t, s.Flush(ctx))

	msgs := mailer.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].subject, "1")
	assert.Contains(t, msgs[0].subject, "ALERT")
	assert.Contains(t, msgs[0].subject, "log entry")
	assert.NotContains(t, msgs[0].subject, "entries")
}

func TestAddRecipient_OrderAndDuplicates(t *testing.T) {
	mailer := &fakeMailer{}
	s := newTestSink(t, mailer,
		sink.WithThreshold(severity.Warning),
		sink.WithRecipients("first@example.org"),
	)
	s.AddRecipient("second@example.org")
	s.AddRecipient("first@example.org") // duplicates are kept

	ctx := context.Background()
	s.Record(ctx, entryAt(severity.Error, "boom"))
	require.True(t, s.Flush(ctx))

	msgs := mailer.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t,
		[]string{"first@example.org", "second@example.org", "first@example.org"},
		msgs[0].recipients)
}

func TestSetThreshold_DoesNotTouchBuffer(t *testing.T) {
	s := newTestSink(t, &fakeMailer{}, sink.WithThreshold(severity.Warning))
	ctx := context.Background()

	s.Record(ctx, entryAt(severity.Warning, "kept before raise"))
	require.NoError(t, s.SetThreshold(severity.Emergency))

	count, _, _ := s.State()
	assert.Equal(t, 1, count)

	// New entries are filtered by the raised threshold.
	assert.False(t, s.Record(ctx, entryAt(severity.Error, "now too low")))
}

func TestSetThresholdName(t *testing.T) {
	s := newTestSink(t, &fakeMailer{})
	require.NoError(t, s.SetThresholdName("warning"))
	assert.Equal(t, severity.Warning, s.Threshold())

	err := s.SetThresholdName("bogus")
	require.Error(t, err)
	assert.Equal(t, severity.Warning, s.Threshold())
}

func TestRegistrar_FlushOnCompletion(t *testing.T) {
	mailer := &fakeMailer{}
	hook := sink.NewCompletionHook()
	s := newTestSink(t, mailer,
		sink.WithThreshold(severity.Warning),
		sink.WithRegistrar(hook),
	)

	s.Record(context.Background(), entryAt(severity.Error, "boom"))

	hook.Complete()
	require.Len(t, mailer.messages(), 1)

	// Completion fires exactly once.
	hook.Complete()
	assert.Len(t, mailer.messages(), 1)
}

func TestRegistrar_NoEntriesNoSend(t *testing.T) {
	mailer := &fakeMailer{}
	hook := sink.NewCompletionHook()
	newTestSink(t, mailer, sink.WithRegistrar(hook))

	hook.Complete()
	assert.Empty(t, mailer.messages())
}

func TestRecord_ConcurrentProducers(t *testing.T) {
	mailer := &fakeMailer{}
	s := newTestSink(t, mailer, sink.WithThreshold(severity.Warning))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				s.Record(ctx, entryAt(severity.Error, fmt.Sprintf("g%d-%d", n, j)))
			}
		}(i)
	}
	wg.Wait()

	count, max, ok := s.State()
	assert.Equal(t, 200, count)
	require.True(t, ok)
	assert.Equal(t, severity.Error, max)

	require.True(t, s.Flush(ctx))
	require.Len(t, mailer.messages(), 1)
}
