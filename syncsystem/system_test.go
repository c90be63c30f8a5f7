package syncsystem

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amp-labs/amp-actors/actor"
	"github.com/amp-labs/amp-actors/optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cycleCore passes an incrementing counter around a ring of actors. Every
// actor terminates after its single step; the starter seeds the counter.
type cycleCore struct {
	starter bool
	out     optional.Value[int]
	in      optional.Value[int]
}

func (c *cycleCore) NewIncomingKey(peer int) {
	c.in = optional.Some(peer)
}

func (c *cycleCore) NewOutgoingKey(peer int) {
	c.out = optional.Some(peer)
}

func (c *cycleCore) Start(tx actor.Sender[int, int]) (actor.NextState[int], error) {
	if c.starter {
		if err := tx.Send(c.out.GetOrPanic(), 0); err != nil {
			return actor.NextState[int]{}, err
		}
	}

	return actor.Get[int](), nil
}

func (c *cycleCore) ProcessMessage(
	msg optional.Value[int],
	tx actor.Sender[int, int],
) (actor.NextState[int], error) {
	value, ok := msg.Get()
	if !ok {
		return actor.Terminate(optional.None[int]()), nil
	}

	// The last send of the ring targets an already-terminated actor; the
	// SendError is expected and swallowed.
	_ = tx.Send(c.out.GetOrPanic(), value+1)

	return actor.Terminate(optional.Some(value + 1)), nil
}

func buildCycle(t *testing.T, n int) *System[int, int] {
	t.Helper()

	sys := New[int, int](WithName(t.Name()))

	for i := range n {
		sys.AddActor(i, &cycleCore{starter: i == 0})
	}

	for i := 1; i < n; i++ {
		sys.AddChannel(i-1, i)
	}

	sys.AddChannel(n-1, 0)
	sys.AddTerminal(0)

	return sys
}

func TestCycleOfThree(t *testing.T) {
	t.Parallel()

	values, err := buildCycle(t, 3).Run(t.Context())

	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, optional.Some(3), values[0])
}

func TestCycleOfN(t *testing.T) {
	t.Parallel()

	for _, n := range []int{80, 1000} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			t.Parallel()

			values, err := buildCycle(t, n).Run(t.Context())

			require.NoError(t, err)
			assert.Equal(t, optional.Some(n), values[0])
		})
	}
}

// timeoutCore has no inbound channel; its single wait must expire.
type timeoutCore struct {
	wait    time.Duration
	started time.Time
	gotNull bool
	elapsed time.Duration
}

func (c *timeoutCore) NewIncomingKey(int) {}
func (c *timeoutCore) NewOutgoingKey(int) {}

func (c *timeoutCore) Start(actor.Sender[int, int]) (actor.NextState[int], error) {
	c.started = time.Now()

	return actor.GetTimeout[int](c.wait), nil
}

func (c *timeoutCore) ProcessMessage(
	msg optional.Value[int],
	_ actor.Sender[int, int],
) (actor.NextState[int], error) {
	c.elapsed = time.Since(c.started)
	c.gotNull = msg.Empty()

	return actor.Terminate(optional.Some(int(c.elapsed.Milliseconds()))), nil
}

func TestTimeoutFires(t *testing.T) {
	t.Parallel()

	core := &timeoutCore{wait: 50 * time.Millisecond}

	sys := New[int, int](WithName(t.Name()))
	sys.AddActor(0, core)
	sys.AddTerminal(0)

	values, err := sys.Run(t.Context())

	require.NoError(t, err)
	assert.True(t, core.gotNull)

	elapsed, ok := values[0].Get()
	require.True(t, ok)
	assert.InDelta(t, 50, elapsed, 20)
}

// sendToUnknownCore attempts a send to a peer that was never declared, then
// terminates normally carrying whether the error surfaced synchronously.
type sendToUnknownCore struct{}

func (sendToUnknownCore) NewIncomingKey(int) {}
func (sendToUnknownCore) NewOutgoingKey(int) {}

func (sendToUnknownCore) Start(tx actor.Sender[int, string]) (actor.NextState[string], error) {
	err := tx.Send(99, "into the void")

	var sendErr *actor.SendError[int, string]
	if !errors.As(err, &sendErr) {
		return actor.Terminate(optional.Some("no error")), nil
	}

	return actor.Terminate(optional.Some("got send error: " + sendErr.Message)), nil
}

func (sendToUnknownCore) ProcessMessage(
	optional.Value[string],
	actor.Sender[int, string],
) (actor.NextState[string], error) {
	return actor.Terminate(optional.None[string]()), nil
}

func TestSendToUnknownKey(t *testing.T) {
	t.Parallel()

	sys := New[int, string](WithName(t.Name()))
	sys.AddActor(0, sendToUnknownCore{})
	sys.AddTerminal(0)

	values, err := sys.Run(t.Context())

	require.NoError(t, err)
	assert.Equal(t, optional.Some("got send error: into the void"), values[0])
}

// recordingCore records the order of every hook invocation.
type recordingCore struct {
	mu     sync.Mutex
	events []string
	next   func(msg optional.Value[string]) actor.NextState[string]
}

func (c *recordingCore) record(event string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, event)
}

func (c *recordingCore) NewIncomingKey(int) { c.record("incoming") }
func (c *recordingCore) NewOutgoingKey(int) { c.record("outgoing") }

func (c *recordingCore) Start(actor.Sender[int, string]) (actor.NextState[string], error) {
	c.record("start")

	return c.next(optional.None[string]()), nil
}

func (c *recordingCore) ProcessMessage(
	msg optional.Value[string],
	_ actor.Sender[int, string],
) (actor.NextState[string], error) {
	c.record("process")

	return c.next(msg), nil
}

func TestLifecycleOrder(t *testing.T) {
	t.Parallel()

	recorder := &recordingCore{
		next: func(optional.Value[string]) actor.NextState[string] {
			return actor.Terminate(optional.None[string]())
		},
	}

	sys := New[int, string](WithName(t.Name()))
	sys.AddActor(0, recorder)
	sys.AddActor(1, &recordingCore{next: func(optional.Value[string]) actor.NextState[string] {
		return actor.Terminate(optional.None[string]())
	}})
	sys.AddChannel(1, 0)
	sys.AddChannel(0, 1)
	sys.AddTerminal(0)

	_, err := sys.Run(t.Context())
	require.NoError(t, err)

	// Both topology callbacks happened at assembly time, before start.
	assert.Equal(t, []string{"incoming", "outgoing", "start"}, recorder.events)
}

// fifoSender emits a burst of sequenced messages, then terminates.
type fifoSender struct {
	out   int
	count int
}

func (c *fifoSender) NewIncomingKey(int) {}
func (c *fifoSender) NewOutgoingKey(key int) {
	c.out = key
}

func (c *fifoSender) Start(tx actor.Sender[int, int]) (actor.NextState[int], error) {
	for i := range c.count {
		if err := tx.Send(c.out, i); err != nil {
			return actor.NextState[int]{}, err
		}
	}

	return actor.Terminate(optional.None[int]()), nil
}

func (c *fifoSender) ProcessMessage(
	optional.Value[int],
	actor.Sender[int, int],
) (actor.NextState[int], error) {
	return actor.Terminate(optional.None[int]()), nil
}

// fifoReceiver verifies arrival order, terminating with the count of in-order
// messages received.
type fifoReceiver struct {
	expect int
	seen   int
}

func (c *fifoReceiver) NewIncomingKey(int) {}
func (c *fifoReceiver) NewOutgoingKey(int) {}

func (c *fifoReceiver) Start(actor.Sender[int, int]) (actor.NextState[int], error) {
	return actor.Get[int](), nil
}

func (c *fifoReceiver) ProcessMessage(
	msg optional.Value[int],
	_ actor.Sender[int, int],
) (actor.NextState[int], error) {
	value, ok := msg.Get()
	if !ok || value != c.seen {
		return actor.Terminate(optional.Some(c.seen)), nil
	}

	c.seen++

	if c.seen == c.expect {
		return actor.Terminate(optional.Some(c.seen)), nil
	}

	return actor.Get[int](), nil
}

func TestChannelFIFO(t *testing.T) {
	t.Parallel()

	const n = 500

	sys := New[int, int](WithName(t.Name()))
	sys.AddActor(0, &fifoSender{count: n})
	sys.AddActor(1, &fifoReceiver{expect: n})
	sys.AddChannel(0, 1)
	sys.AddTerminal(1)

	values, err := sys.Run(t.Context())

	require.NoError(t, err)
	assert.Equal(t, optional.Some(n), values[1])
}

// failingCore returns an error from Start.
type failingCore struct {
	err error
}

func (c failingCore) NewIncomingKey(int) {}
func (c failingCore) NewOutgoingKey(int) {}

func (c failingCore) Start(actor.Sender[int, int]) (actor.NextState[int], error) {
	return actor.NextState[int]{}, c.err
}

func (c failingCore) ProcessMessage(
	optional.Value[int],
	actor.Sender[int, int],
) (actor.NextState[int], error) {
	return actor.NextState[int]{}, c.err
}

func TestTerminalFailureAggregated(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom") //nolint:err113

	sys := New[int, int](WithName(t.Name()))
	sys.AddActor(0, failingCore{err: errBoom})
	sys.AddActor(1, &timeoutCore{wait: 10 * time.Millisecond})
	sys.AddTerminal(0)
	sys.AddTerminal(1)

	values, err := sys.Run(t.Context())

	// The failing terminal contributes a None entry and its error; the
	// sibling still completes.
	require.ErrorIs(t, err, errBoom)
	require.Len(t, values, 2)
	assert.True(t, values[0].Empty())
	assert.True(t, values[1].NonEmpty())
}

// panickyCore panics inside Start.
type panickyCore struct{}

func (panickyCore) NewIncomingKey(int) {}
func (panickyCore) NewOutgoingKey(int) {}

func (panickyCore) Start(actor.Sender[int, int]) (actor.NextState[int], error) {
	panic("exploded on startup")
}

func (panickyCore) ProcessMessage(
	optional.Value[int],
	actor.Sender[int, int],
) (actor.NextState[int], error) {
	return actor.Get[int](), nil
}

func TestHookPanicBecomesError(t *testing.T) {
	t.Parallel()

	sys := New[int, int](WithName(t.Name()))
	sys.AddActor(0, panickyCore{})
	sys.AddTerminal(0)

	values, err := sys.Run(t.Context())

	require.ErrorIs(t, err, actor.ErrActorPanic)
	require.ErrorContains(t, err, "exploded on startup")
	assert.True(t, values[0].Empty())
}

// drainCore waits forever and terminates only when its inbox closes.
type drainCore struct {
	sawClosure atomic.Bool
}

func (c *drainCore) NewIncomingKey(int) {}
func (c *drainCore) NewOutgoingKey(int) {}

func (c *drainCore) Start(actor.Sender[int, int]) (actor.NextState[int], error) {
	return actor.Get[int](), nil
}

func (c *drainCore) ProcessMessage(
	msg optional.Value[int],
	_ actor.Sender[int, int],
) (actor.NextState[int], error) {
	if msg.Empty() {
		c.sawClosure.Store(true)

		return actor.Terminate(optional.None[int]()), nil
	}

	return actor.Get[int](), nil
}

func TestNonTerminalSeesClosureAfterRun(t *testing.T) {
	t.Parallel()

	drain := &drainCore{}

	sys := New[int, int](WithName(t.Name()))
	sys.AddActor(0, &timeoutCore{wait: 10 * time.Millisecond})
	sys.AddActor(1, drain)
	sys.AddChannel(0, 1)
	sys.AddTerminal(0)

	_, err := sys.Run(t.Context())
	require.NoError(t, err)

	// Teardown closed the non-terminal's inbox; its next wait resolves to a
	// None message.
	assert.Eventually(t, func() bool {
		return drain.sawClosure.Load()
	}, time.Second, 5*time.Millisecond)
}

func TestMutationAfterRunPanics(t *testing.T) {
	t.Parallel()

	sys := New[int, int](WithName(t.Name()))
	sys.AddActor(0, &timeoutCore{wait: time.Millisecond})
	sys.AddTerminal(0)

	_, err := sys.Run(t.Context())
	require.NoError(t, err)

	assert.Panics(t, func() {
		sys.AddActor(1, &timeoutCore{wait: time.Millisecond})
	})

	assert.Panics(t, func() {
		_, _ = sys.Run(t.Context())
	})
}

func TestAddChannelUnknownActorPanics(t *testing.T) {
	t.Parallel()

	sys := New[int, int]()
	sys.AddActor(0, &drainCore{})

	assert.Panics(t, func() {
		sys.AddChannel(0, 42)
	})

	assert.Panics(t, func() {
		sys.AddTerminal(42)
	})
}
