// Package asyncsystem executes an actor system on the asynchronous backend.
//
// Every actor is split into a core half (the user state machine) and an
// interface half (the transport endpoint), joined by a bounded instruction
// channel. The core half runs in one of three execution classes (Light,
// Blocking, or Heavy) while the interface half is always a plain goroutine.
// Inboxes are bounded FIFOs: a send into a full inbox suspends the sender's
// interface half until space frees up.
package asyncsystem

import (
	"context"
	"fmt"
	goruntime "runtime"

	"github.com/alitto/pond/v2"
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

// defaultBlockingWorkers bounds the pool that Blocking-class cores run on.
const defaultBlockingWorkers = 256

// System assembles actors and directed channels for the asynchronous backend.
// A System is not safe for concurrent mutation; build the topology from one
// goroutine, then call Run exactly once.
type System[K comparable, M any] struct {
	name            string
	blockingWorkers int
	actors          map[K]*agent[K, M]
	terminals       map[K]struct{}
	results         chan terminalResult[K, M]
	started         *atomic.Bool
}

// Option configures a System.
type Option func(*options)

type options struct {
	name            string
	blockingWorkers int
}

// WithName sets the system name used in logs, metrics, and trace attributes.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithBlockingWorkers bounds the worker pool shared by all Blocking-class
// cores. Cores beyond the bound queue until a worker frees up.
func WithBlockingWorkers(n int) Option {
	return func(o *options) {
		o.blockingWorkers = n
	}
}

// New creates an empty asynchronous system. terminalCapacity sizes the
// terminal collection channel and should be at least the number of terminals
// the system will have.
func New[K comparable, M any](terminalCapacity int, opts ...Option) *System[K, M] {
	o := &options{
		name:            "async-" + uuid.NewString()[:8],
		blockingWorkers: defaultBlockingWorkers,
	}

	for _, opt := range opts {
		opt(o)
	}

	if terminalCapacity < 0 {
		terminalCapacity = 0
	}

	return &System[K, M]{
		name:            o.name,
		blockingWorkers: o.blockingWorkers,
		actors:          make(map[K]*agent[K, M]),
		terminals:       make(map[K]struct{}),
		results:         make(chan terminalResult[K, M], terminalCapacity),
		started:         atomic.NewBool(false),
	}
}

// AddActor registers an actor under the given key with its per-actor
// parameters. Keys must be unique within the system and are never reused.
func (s *System[K, M]) AddActor(key K, core actor.Core[K, M], params Params) {
	s.ensureMutable()

	s.actors[key] = newAgent(key, s.name, core, params)
}

// AddChannel declares a directed edge from one actor to another. It installs a
// producer handle for the receiver's inbox on the sender's outbox and invokes
// the topology callbacks on both endpoints. Declaring the same edge twice
// overwrites the first handle.
func (s *System[K, M]) AddChannel(from, to K) {
	s.ensureMutable()

	sender := s.mustActor(from)
	receiver := s.mustActor(to)

	sender.outbox[to] = receiver.inboxW
	sender.peers[to] = struct{}{}
	sender.core.NewOutgoingKey(to)
	receiver.core.NewIncomingKey(from)
}

// AddTerminal marks an actor as gating system completion. Idempotent.
func (s *System[K, M]) AddTerminal(key K) {
	s.ensureMutable()
	s.mustActor(key)

	s.terminals[key] = struct{}{}
}

// Run launches every actor's pair of halves and blocks until all terminal
// actors have published a result. The final values are returned in arrival
// order, one entry per terminal (None when the terminal produced no value),
// together with the joined errors of any terminals that failed. Non-terminal
// actors still running are torn down by closing their inboxes.
//
// Run consumes the system; calling it twice, or mutating the topology after
// calling it, panics.
func (s *System[K, M]) Run(ctx context.Context) ([]optional.Value[M], error) {
	if !s.started.CompareAndSwap(false, true) {
		panic(actor.ErrSystemStarted)
	}

	runID := uuid.NewString()
	ctx = logger.WithSubsystem(ctx, s.name)

	tracer := otel.Tracer("github.com/amp-labs/amp-actors/asyncsystem")

	ctx, span := tracer.Start(ctx, "asyncsystem.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Int("actors", len(s.actors)),
		attribute.Int("terminals", len(s.terminals)),
	))
	defer span.End()

	logger.Info(ctx, "starting system",
		"run_id", runID,
		"actors", len(s.actors),
		"terminals", len(s.terminals))

	blockingPool := s.launch(ctx)

	values := make([]optional.Value[M], 0, len(s.terminals))
	errs := errors.Collection{}

	for range len(s.terminals) {
		select {
		case <-ctx.Done():
			s.teardown()

			return values, ctx.Err()
		case res := <-s.results:
			final, err := res.outcome.Get()
			values = append(values, final)

			if err != nil {
				errs.Add(fmt.Errorf("terminal %v: %w", res.key, err))
			}
		}
	}

	s.teardown()

	if blockingPool != nil {
		// Cores already running finish their current step; nothing new is
		// admitted.
		blockingPool.Stop()
	}

	logger.Info(ctx, "system finished", "run_id", runID)

	return values, errs.GetError()
}

// launch spawns the interface halves and places each core half according to
// its class. The blocking pool is created only when some actor needs it.
func (s *System[K, M]) launch(ctx context.Context) pond.Pool { //nolint:ireturn
	var blockingPool pond.Pool

	for key, a := range s.actors {
		_, terminal := s.terminals[key]

		go a.runInterface(ctx, terminal, s.results)

		switch a.params.Class {
		case ClassBlocking:
			if blockingPool == nil {
				blockingPool = pond.NewPool(s.blockingWorkers)
			}

			core := a
			blockingPool.Submit(func() {
				core.runCore(ctx)
			})
		case ClassHeavy:
			core := a

			go func() {
				goruntime.LockOSThread()
				defer goruntime.UnlockOSThread()

				core.runCore(ctx)
			}()
		case ClassLight:
			fallthrough
		default:
			go a.runCore(ctx)
		}
	}

	return blockingPool
}

// teardown closes every inbox. Actors blocked on a receive observe a None
// message; peers that keep sending have their messages dropped.
func (s *System[K, M]) teardown() {
	for _, a := range s.actors {
		channels.CloseIgnorePanic(a.inboxW)
	}
}

func (s *System[K, M]) ensureMutable() {
	if s.started.Load() {
		panic(actor.ErrSystemStarted)
	}
}

func (s *System[K, M]) mustActor(key K) *agent[K, M] {
	a, ok := s.actors[key]
	if !ok {
		panic(fmt.Errorf("%w: %v", actor.ErrUnknownActor, key))
	}

	return a
}

// terminalResult carries one terminal actor's outcome to the driver.
type terminalResult[K comparable, M any] struct {
	key     K
	outcome try.Try[optional.Value[M]]
}
