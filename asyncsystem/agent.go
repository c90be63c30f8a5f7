package asyncsystem

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/amp-labs/amp-actors/actor"
	"github.com/amp-labs/amp-actors/channels"
	"github.com/amp-labs/amp-actors/logger"
	"github.com/amp-labs/amp-actors/optional"
	"github.com/amp-labs/amp-actors/try"
)

// agent owns one actor's pair of halves and the channels between them:
//
//	core half  --instructions-->  interface half  --messages/null-->  core half
//
// The core half runs the user state machine in the actor's execution class.
// The interface half executes instructions against the transport and is
// always a plain goroutine. The split lets a Heavy core occupy an OS thread
// while its transport endpoint still participates in timers and bounded
// channel backpressure.
type agent[K comparable, M any] struct {
	key    K
	system string
	core   actor.Core[K, M]
	params Params

	inboxW chan<- M
	inboxR <-chan M

	instW chan<- instruction[K, M]
	instR <-chan instruction[K, M]

	feedW chan<- optional.Value[M]
	feedR <-chan optional.Value[M]

	// outbox holds the peer inbox handles (interface half side); peers holds
	// the declared outgoing keys (core half side, for synchronous validation).
	outbox map[K]chan<- M
	peers  map[K]struct{}
}

func newAgent[K comparable, M any](key K, system string, core actor.Core[K, M], params Params) *agent[K, M] {
	params = params.withDefaults()

	inboxW, inboxR, _ := channels.Create[M](params.InboxCapacity)
	instW, instR, _ := channels.Create[instruction[K, M]](params.InstructionCapacity)
	feedW, feedR, _ := channels.Create[optional.Value[M]](1)

	return &agent[K, M]{
		key:    key,
		system: system,
		core:   core,
		params: params,
		inboxW: inboxW,
		inboxR: inboxR,
		instW:  instW,
		instR:  instR,
		feedW:  feedW,
		feedR:  feedR,
		outbox: make(map[K]chan<- M),
		peers:  make(map[K]struct{}),
	}
}

// runCore drives the user state machine: start, then alternate between
// flushing the step's instructions and waiting for the interface half to feed
// back a message. A hook error or panic becomes an implicit Terminate with no
// value; the error is logged here and reported by the interface half.
func (a *agent[K, M]) runCore(ctx context.Context) {
	defer channels.CloseIgnorePanic(a.instW)

	tx := &queueSender[K, M]{peers: a.peers}

	next, err := a.step(ctx, func() (actor.NextState[M], error) {
		return a.core.Start(tx)
	})

	for {
		// Sends emitted during the step go out before the step's next-state.
		for _, inst := range tx.take() {
			a.instW <- inst
		}

		if err != nil {
			logger.Error(ctx, "actor aborted", "actor", a.key, "error", err)

			a.instW <- instruction[K, M]{op: opTerminate, final: optional.None[M](), err: err}

			return
		}

		inst := fromNextState[K](next)
		a.instW <- inst

		if inst.op == opTerminate {
			return
		}

		msg, ok := <-a.feedR
		if !ok {
			// Interface half is gone; nothing left to run against.
			return
		}

		next, err = a.step(ctx, func() (actor.NextState[M], error) {
			return a.core.ProcessMessage(msg, tx)
		})
	}
}

// runInterface executes the core half's instructions against the transport.
// For terminal actors the Terminate payload is published on the terminal
// channel; an instruction channel that closes without a Terminate is reported
// as ErrExitedWithoutValue.
func (a *agent[K, M]) runInterface(ctx context.Context, terminal bool, results chan<- terminalResult[K, M]) {
	actorsStarted.WithLabelValues(a.system, a.params.Class.String()).Inc()
	actorsAlive.WithLabelValues(a.system, a.params.Class.String()).Inc()

	defer actorsAlive.WithLabelValues(a.system, a.params.Class.String()).Dec()
	defer actorsStopped.WithLabelValues(a.system, a.params.Class.String()).Inc()

	defer a.shutdown()

	for inst := range a.instR {
		switch inst.op {
		case opSend:
			a.deliver(inst.peer, inst.msg)
		case opGet:
			msg, status := channels.Recv(a.inboxR)
			a.feed(msg, status)
		case opGetTimeout:
			msg, status := channels.RecvTimeout(a.inboxR, inst.timeout)
			if status == channels.RecvTimedOut {
				timeoutsExpired.WithLabelValues(a.system).Inc()
			}

			a.feed(msg, status)
		case opTerminate:
			if terminal {
				terminalsCollected.WithLabelValues(a.system).Inc()

				results <- terminalResult[K, M]{
					key:     a.key,
					outcome: try.Try[optional.Value[M]]{Value: inst.final, Error: inst.err},
				}
			}

			return
		}
	}

	// The instruction channel closed before a Terminate.
	logger.Warn(ctx, "actor exited without a terminate", "actor", a.key)

	if terminal {
		results <- terminalResult[K, M]{
			key:     a.key,
			outcome: try.Failure[optional.Value[M]](fmt.Errorf("actor %v: %w", a.key, actor.ErrExitedWithoutValue)),
		}
	}
}

// deliver enqueues a message on a peer's inbox, suspending while the bounded
// inbox is full. A peer torn down after the terminals finished has a closed
// inbox; that send is dropped.
func (a *agent[K, M]) deliver(peer K, msg M) {
	ch, ok := a.outbox[peer]
	if !ok {
		return
	}

	defer func() {
		_ = recover()
	}()

	ch <- msg

	messagesDelivered.WithLabelValues(a.system).Inc()
}

// feed forwards a receive outcome to the core half. Closure and timeout are
// both downgraded to a None message.
func (a *agent[K, M]) feed(msg M, status channels.RecvStatus) {
	if status == channels.RecvOK {
		a.feedW <- optional.Some(msg)

		return
	}

	a.feedW <- optional.None[M]()
}

// shutdown closes this actor's channels: the inbox so peers' sends fail fast,
// and the feedback channel so a core half blocked on it unwinds.
func (a *agent[K, M]) shutdown() {
	channels.CloseIgnorePanic(a.inboxW)
	channels.CloseIgnorePanic(a.feedW)
}

// step invokes one user hook with panic recovery in place.
func (a *agent[K, M]) step(
	ctx context.Context,
	hook func() (actor.NextState[M], error),
) (next actor.NextState[M], err error) {
	defer func() {
		if r := recover(); r != nil {
			hookPanics.WithLabelValues(a.system).Inc()

			logger.Error(ctx, "actor recovered from panic",
				"actor", a.key,
				"error", r,
				"stack", string(debug.Stack()))

			err = fmt.Errorf("%w: %v", actor.ErrActorPanic, r)
		}
	}()

	start := time.Now()
	defer func() {
		stepDuration.WithLabelValues(a.system).Observe(time.Since(start).Seconds())
	}()

	return hook()
}
