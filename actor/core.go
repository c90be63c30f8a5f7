// Package actor defines the contract between a user-defined actor and the
// execution backends: the Core state machine interface, the NextState
// vocabulary an actor answers with after each step, and the Sender capability
// it is handed during a step.
//
// An actor is an independently scheduled state machine with a private inbox.
// Its behavior is expressed once, against this package, and is portable
// between the synchronous backend (syncsystem) and the asynchronous backend
// (asyncsystem).
package actor

import "github.com/amp-labs/amp-actors/optional"

// Core is a user-defined actor state machine.
//
// The backends guarantee, for every actor:
//   - NewIncomingKey / NewOutgoingKey are invoked exactly once per declared
//     edge, before Start.
//   - Start is invoked exactly once.
//   - ProcessMessage is invoked zero or more times, strictly sequentially;
//     no two hooks of the same actor ever run concurrently.
//   - After the first Terminate next-state, the actor receives no further calls.
//
// An error returned from Start or ProcessMessage aborts the actor as if it had
// returned Terminate with no value; the error is logged and, for terminal
// actors, reported in the driver's aggregate outcome.
type Core[K comparable, M any] interface {
	// NewIncomingKey is called once per declared inbound edge, before Start.
	// Pure bookkeeping; may update local state.
	NewIncomingKey(peer K)

	// NewOutgoingKey is called once per declared outbound edge, before Start.
	NewOutgoingKey(peer K)

	// Start performs one-shot initialization. It may send any finite number of
	// messages via tx, then declares its wait discipline or terminates.
	Start(tx Sender[K, M]) (NextState[M], error)

	// ProcessMessage is called after each wait resolves. A None message
	// signals timeout expiry (only reachable from a prior GetTimeout) or
	// closure of the inbox. Sends via tx are allowed.
	ProcessMessage(msg optional.Value[M], tx Sender[K, M]) (NextState[M], error)
}
