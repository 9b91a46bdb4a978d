package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/okanacar/mailsink/pkg/notify"
)

type stubMailer struct {
	name  string
	err   error
	calls int
}

func (s *stubMailer) Name() string { return s.name }

func (s *stubMailer) Send(context.Context, []string, string, string) error {
	s.calls++
	return s.err
}

func TestMultiMailer_SendsToAll(t *testing.T) {
	a := &stubMailer{name: "a"}
	b := &stubMailer{name: "b"}
	m := notify.NewMultiMailer(a, b)

	err := m.Send(context.Background(), []string{"ops@example.org"}, "subject", "body")
	require.NoError(t, err)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestMultiMailer_ContinuesPastFailure(t *testing.T) {
	a := &stubMailer{name: "a", err: errors.New("down")}
	b := &stubMailer{name: "b"}
	m := notify.NewMultiMailer(a, b)

	err := m.Send(context.Background(), []string{"ops@example.org"}, "subject", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a:")
	assert.Equal(t, 1, b.calls)
}

func TestMultiMailer_Empty(t *testing.T) {
	m := notify.NewMultiMailer()
	assert.NoError(t, m.Send(context.Background(), nil, "subject", "body"))
}
