// Package syncsystem executes an actor system on the synchronous backend: one
// dedicated goroutine per actor, unbounded FIFO inboxes, and blocking receives
// with an optional deadline.
//
// Build a system with New, register actors with AddActor, declare directed
// channels with AddChannel, mark terminals with AddTerminal, then call Run.
// Run drives every actor to termination and returns the final values of the
// terminal set.
package syncsystem

import (
	"context"
	"fmt"

	"github.com/amp-labs/amp-actors/actor"
	"github.com/amp-labs/amp-actors/channels"
	"github.com/amp-labs/amp-actors/errors"
	"github.com/amp-labs/amp-actors/logger"
	"github.com/amp-labs/amp-actors/optional"
	"github.com/amp-labs/amp-actors/try"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

// System assembles actors and directed channels, then runs them to completion.
// A System is not safe for concurrent mutation; build the topology from one
// goroutine, then call Run exactly once.
type System[K comparable, M any] struct {
	name      string
	actors    map[K]*worker[K, M]
	terminals map[K]struct{}
	started   *atomic.Bool
}

// Option configures a System.
type Option func(*options)

type options struct {
	name string
}

// WithName sets the system name used in logs, metrics, and trace attributes.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// New creates an empty synchronous system.
func New[K comparable, M any](opts ...Option) *System[K, M] {
	o := &options{
		name: "sync-" + uuid.NewString()[:8],
	}

	for _, opt := range opts {
		opt(o)
	}

	return &System[K, M]{
		name:      o.name,
		actors:    make(map[K]*worker[K, M]),
		terminals: make(map[K]struct{}),
		started:   atomic.NewBool(false),
	}
}

// AddActor registers an actor under the given key. Keys must be unique within
// the system and are never reused.
func (s *System[K, M]) AddActor(key K, core actor.Core[K, M]) {
	s.ensureMutable()

	inboxW, inboxR, _ := channels.Create[M](-1)

	s.actors[key] = &worker[K, M]{
		key:    key,
		system: s.name,
		core:   core,
		inboxW: inboxW,
		inboxR: inboxR,
		outbox: &outbox[K, M]{chans: make(map[K]chan<- M)},
	}
}

// AddChannel declares a directed edge from one actor to another. It installs a
// producer handle for the receiver's inbox on the sender's outbox and invokes
// the topology callbacks on both endpoints. Declaring the same edge twice
// overwrites the first handle.
func (s *System[K, M]) AddChannel(from, to K) {
	s.ensureMutable()

	sender := s.mustActor(from)
	receiver := s.mustActor(to)

	sender.outbox.chans[to] = receiver.inboxW
	sender.core.NewOutgoingKey(to)
	receiver.core.NewIncomingKey(from)
}

// AddTerminal marks an actor as gating system completion. Idempotent.
func (s *System[K, M]) AddTerminal(key K) {
	s.ensureMutable()
	s.mustActor(key)

	s.terminals[key] = struct{}{}
}

// Run starts every actor concurrently and blocks until all terminal actors
// have terminated. It returns one entry per terminal (None when the terminal
// produced no final value) and the joined errors of any terminals that failed.
// Non-terminal actors still running are torn down by closing their inboxes.
//
// Run consumes the system; calling it twice, or mutating the topology after
// calling it, panics.
func (s *System[K, M]) Run(ctx context.Context) (map[K]optional.Value[M], error) {
	if !s.started.CompareAndSwap(false, true) {
		panic(actor.ErrSystemStarted)
	}

	runID := uuid.NewString()
	ctx = logger.WithSubsystem(ctx, s.name)

	tracer := otel.Tracer("github.com/amp-labs/amp-actors/syncsystem")

	ctx, span := tracer.Start(ctx, "syncsystem.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Int("actors", len(s.actors)),
		attribute.Int("terminals", len(s.terminals)),
	))
	defer span.End()

	logger.Info(ctx, "starting system",
		"run_id", runID,
		"actors", len(s.actors),
		"terminals", len(s.terminals))

	results := make(chan terminalResult[K, M], len(s.terminals))

	for key, w := range s.actors {
		_, terminal := s.terminals[key]

		go w.run(ctx, terminal, results)
	}

	values := make(map[K]optional.Value[M], len(s.terminals))
	errs := errors.Collection{}

	for range len(s.terminals) {
		select {
		case <-ctx.Done():
			s.teardown()

			return values, ctx.Err()
		case res := <-results:
			final, err := res.outcome.Get()
			values[res.key] = final

			if err != nil {
				errs.Add(fmt.Errorf("terminal %v: %w", res.key, err))
			}
		}
	}

	// Terminals are done; everything else is best-effort from here on.
	s.teardown()

	logger.Info(ctx, "system finished", "run_id", runID)

	return values, errs.GetError()
}

// teardown closes every inbox. Actors blocked on a receive observe a None
// message; peers that keep sending get a SendError back.
func (s *System[K, M]) teardown() {
	for _, w := range s.actors {
		channels.CloseIgnorePanic(w.inboxW)
	}
}

func (s *System[K, M]) ensureMutable() {
	if s.started.Load() {
		panic(actor.ErrSystemStarted)
	}
}

func (s *System[K, M]) mustActor(key K) *worker[K, M] {
	w, ok := s.actors[key]
	if !ok {
		panic(fmt.Errorf("%w: %v", actor.ErrUnknownActor, key))
	}

	return w
}

// terminalResult carries one terminal actor's outcome to the driver.
type terminalResult[K comparable, M any] struct {
	key     K
	outcome try.Try[optional.Value[M]]
}
