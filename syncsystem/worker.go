package syncsystem

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

// worker owns one actor: its core, its inbox, and its outbox. It runs the
// actor's event loop on a dedicated goroutine.
type worker[K comparable, M any] struct {
	key    K
	system string
	core   actor.Core[K, M]
	inboxW chan<- M
	inboxR <-chan M
	outbox *outbox[K, M]
}

// run drives the actor from Start to Terminate. For terminal actors the
// outcome is published to results; non-terminal outcomes are dropped.
func (w *worker[K, M]) run(ctx context.Context, terminal bool, results chan<- terminalResult[K, M]) {
	actorsStarted.WithLabelValues(w.system).Inc()
	actorsAlive.WithLabelValues(w.system).Inc()

	defer actorsAlive.WithLabelValues(w.system).Dec()
	defer actorsStopped.WithLabelValues(w.system).Inc()

	// Once the actor is done its inbox closes, so peers that keep sending
	// observe a SendError instead of filling a queue nobody drains.
	defer channels.CloseIgnorePanic(w.inboxW)

	final, err := w.loop(ctx)
	if err != nil {
		logger.Error(ctx, "actor aborted", "actor", w.key, "error", err)
	}

	if terminal {
		terminalsCollected.WithLabelValues(w.system).Inc()

		results <- terminalResult[K, M]{
			key:     w.key,
			outcome: try.Try[optional.Value[M]]{Value: final, Error: err},
		}
	}
}

// loop is the worker event loop: start, then alternate waiting and stepping
// until the core terminates. A hook error aborts the actor as an implicit
// Terminate with no value.
func (w *worker[K, M]) loop(ctx context.Context) (optional.Value[M], error) {
	next, err := w.step(ctx, func() (actor.NextState[M], error) {
		return w.core.Start(w.outbox)
	})

	for {
		if err != nil {
			return optional.None[M](), err
		}

		var (
			msg    M
			status channels.RecvStatus
		)

		switch next.Kind {
		case actor.StateTerminate:
			return next.Final, nil
		case actor.StateGet:
			msg, status = channels.Recv(w.inboxR)
		case actor.StateGetTimeout:
			msg, status = channels.RecvTimeout(w.inboxR, next.Timeout)
		default:
			return optional.None[M](), fmt.Errorf("unexpected next state %v", next.Kind) //nolint:err113
		}

		arg := optional.None[M]()

		switch status {
		case channels.RecvOK:
			arg = optional.Some(msg)

			messagesProcessed.WithLabelValues(w.system).Inc()
		case channels.RecvTimedOut:
			timeoutsExpired.WithLabelValues(w.system).Inc()
		case channels.RecvClosed:
			// Delivered as a None message; the core decides what closure means.
		}

		next, err = w.step(ctx, func() (actor.NextState[M], error) {
			return w.core.ProcessMessage(arg, w.outbox)
		})
	}
}

// step invokes one user hook with panic recovery in place.
func (w *worker[K, M]) step(
	ctx context.Context,
	hook func() (actor.NextState[M], error),
) (next actor.NextState[M], err error) {
	defer func() {
		if r := recover(); r != nil {
			hookPanics.WithLabelValues(w.system).Inc()

			logger.Error(ctx, "actor recovered from panic",
				"actor", w.key,
				"error", r,
				"stack", string(debug.Stack()))

			err = fmt.Errorf("%w: %v", actor.ErrActorPanic, r)
		}
	}()

	start := time.Now()
	defer func() {
		stepDuration.WithLabelValues(w.system).Observe(time.Since(start).Seconds())
	}()

	return hook()
}

// outbox maps peer keys to their inbox producer handles. It implements
// actor.Sender for the worker's core.
type outbox[K comparable, M any] struct {
	chans map[K]chan<- M
}

// Send enqueues the message on the channel to the given peer. An undeclared
// peer or a closed peer inbox yields a *actor.SendError carrying the message
// back to the caller.
func (o *outbox[K, M]) Send(peer K, msg M) (err error) {
	ch, ok := o.chans[peer]
	if !ok {
		return &actor.SendError[K, M]{Peer: peer, Message: msg}
	}

	// A send to a torn-down actor panics on its closed inbox; hand the
	// message back as a SendError instead.
	defer func() {
		if recover() != nil {
			err = &actor.SendError[K, M]{Peer: peer, Message: msg}
		}
	}()

	ch <- msg

	return nil
}
