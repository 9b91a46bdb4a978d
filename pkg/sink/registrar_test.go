package sink_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/okanacar/mailsink/pkg/sink"
)

func TestCompletionHook_RunsCallbacksInOrder(t *testing.T) {
	hook := sink.NewCompletionHook()
	var order []int
	hook.OnComplete(func() { order = append(order, 1) })
	hook.OnComplete(func() { order = append(order, 2) })

	hook.Complete()
	assert.Equal(t, []int{1, 2}, order)
}

func TestCompletionHook_CompleteIsIdempotent(t *testing.T) {
	hook := sink.NewCompletionHook()
	calls := 0
	hook.OnComplete(func() { calls++ })

	hook.Complete()
	hook.Complete()
	assert.Equal(t, 1, calls)
}

func TestCompletionHook_LateRegistrationRunsImmediately(t *testing.T) {
	hook := sink.NewCompletionHook()
	hook.Complete()

	ran := false
	hook.OnComplete(func() { ran = true })
	assert.True(t, ran)
}
