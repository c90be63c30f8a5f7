package actor

import "fmt"

// Sender is the capability handed to an actor during Start and ProcessMessage.
// It addresses a peer by key and enqueues a message on the channel declared
// from this actor to that peer.
//
// A send never delivers messages into the current step: anything the actor
// receives arrives as the argument of the next ProcessMessage call.
type Sender[K comparable, M any] interface {
	// Send enqueues the message on the channel to the given peer. It fails
	// with a *SendError if the peer is not in this actor's outbox or the
	// peer's inbox has been closed. The actor chooses whether to swallow or
	// escalate the error.
	Send(peer K, msg M) error
}

// SendError reports a failed send, carrying the message back to the caller.
type SendError[K comparable, M any] struct {
	Peer    K
	Message M
}

func (e *SendError[K, M]) Error() string {
	return fmt.Sprintf("send to %v failed", e.Peer)
}
