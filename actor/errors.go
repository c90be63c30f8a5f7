package actor

import "errors"

var (
	// ErrExitedWithoutValue is reported by a driver when an actor's event loop
	// ended without producing a Terminate next-state.
	ErrExitedWithoutValue = errors.New("actor exited without a terminate")

	// ErrActorPanic wraps a panic recovered from a user hook.
	ErrActorPanic = errors.New("panic in actor")

	// ErrSystemStarted is the panic value used when the topology is mutated
	// after Run has been entered.
	ErrSystemStarted = errors.New("system already running")

	// ErrUnknownActor is the panic value used when AddChannel or AddTerminal
	// references a key that was never registered with AddActor.
	ErrUnknownActor = errors.New("unknown actor key")
)
