package asyncsystem

import (
	"time"

	"github.com/amp-labs/amp-actors/actor"
	"github.com/amp-labs/amp-actors/optional"
)

// instrOp discriminates the instructions a core half hands its interface half.
type instrOp int

const (
	opSend instrOp = iota
	opGet
	opGetTimeout
	opTerminate
)

// instruction is one command on the wire between an actor's two halves: the
// sends emitted during a step, followed by the step's next-state.
type instruction[K comparable, M any] struct {
	op      instrOp
	peer    K
	msg     M
	timeout time.Duration
	final   optional.Value[M]
	// err is the hook error that aborted the actor (opTerminate only).
	err error
}

// fromNextState encodes a next-state as its instruction.
func fromNextState[K comparable, M any](next actor.NextState[M]) instruction[K, M] {
	switch next.Kind {
	case actor.StateGetTimeout:
		return instruction[K, M]{op: opGetTimeout, timeout: next.Timeout}
	case actor.StateTerminate:
		return instruction[K, M]{op: opTerminate, final: next.Final}
	case actor.StateGet:
		fallthrough
	default:
		return instruction[K, M]{op: opGet}
	}
}

// queueSender implements actor.Sender for a core half. Sends are validated
// against the declared outgoing keys synchronously, then queued as Send
// instructions to be executed by the interface half in emission order.
type queueSender[K comparable, M any] struct {
	peers map[K]struct{}
	queue []instruction[K, M]
}

func (s *queueSender[K, M]) Send(peer K, msg M) error {
	if _, ok := s.peers[peer]; !ok {
		return &actor.SendError[K, M]{Peer: peer, Message: msg}
	}

	s.queue = append(s.queue, instruction[K, M]{op: opSend, peer: peer, msg: msg})

	return nil
}

// take returns the queued sends and resets the queue for the next step.
func (s *queueSender[K, M]) take() []instruction[K, M] {
	q := s.queue
	s.queue = nil

	return q
}
