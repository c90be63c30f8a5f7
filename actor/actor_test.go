package actor

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/amp-labs/amp-actors/optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStateConstructors(t *testing.T) {
	t.Parallel()

	get := Get[string]()
	assert.Equal(t, StateGet, get.Kind)

	wait := GetTimeout[string](50 * time.Millisecond)
	assert.Equal(t, StateGetTimeout, wait.Kind)
	assert.Equal(t, 50*time.Millisecond, wait.Timeout)

	term := Terminate(optional.Some("done"))
	assert.Equal(t, StateTerminate, term.Kind)
	assert.Equal(t, "done", term.Final.GetOrPanic())

	silent := Terminate(optional.None[string]())
	assert.Equal(t, StateTerminate, silent.Kind)
	assert.True(t, silent.Final.Empty())
}

func TestStateKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "get", StateGet.String())
	assert.Equal(t, "get-timeout", StateGetTimeout.String())
	assert.Equal(t, "terminate", StateTerminate.String())
	assert.Equal(t, "unknown", StateKind(99).String())
}

func TestSendError(t *testing.T) {
	t.Parallel()

	err := &SendError[int, string]{Peer: 7, Message: "lost"}

	require.ErrorContains(t, err, "7")
	assert.Equal(t, 7, err.Peer)
	assert.Equal(t, "lost", err.Message)

	// A SendError travels well through error wrapping.
	var sendErr *SendError[int, string]

	wrapped := fmt.Errorf("delivery: %w", err)
	require.ErrorAs(t, wrapped, &sendErr)
	assert.Equal(t, "lost", sendErr.Message)
}

func TestSentinelErrors(t *testing.T) {
	t.Parallel()

	assert.False(t, errors.Is(ErrExitedWithoutValue, ErrActorPanic))
	require.ErrorContains(t, ErrExitedWithoutValue, "terminate")
	require.ErrorContains(t, ErrSystemStarted, "running")
}
