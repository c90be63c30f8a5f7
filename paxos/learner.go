package paxos

import (
	"fmt"

	"github.com/amp-labs/amp-actors/actor"
	"github.com/amp-labs/amp-actors/errors"
	"github.com/amp-labs/amp-actors/optional"
)

// Learner indexes votes by (ballot, value). Once strictly more than half of
// the acceptors have voted for the same pair, the value is decided and the
// learner terminates with it.
type Learner[V comparable] struct {
	id           ID
	value        optional.Value[V]
	votes        map[TimeStamp]map[V]map[int]struct{}
	numAcceptors int
}

// NewLearner creates the i-th learner.
func NewLearner[V comparable](i int) *Learner[V] {
	return &Learner[V]{
		id:    LearnerID(i),
		votes: make(map[TimeStamp]map[V]map[int]struct{}),
	}
}

// ID returns the learner's actor key.
func (l *Learner[V]) ID() ID {
	return l.id
}

// Value returns the decided value, if any.
func (l *Learner[V]) Value() optional.Value[V] {
	return l.value
}

// NewIncomingKey counts the acceptors feeding this learner; the quorum
// threshold is derived from it.
func (l *Learner[V]) NewIncomingKey(peer ID) {
	if peer.Role == RoleAcceptor {
		l.numAcceptors++
	}
}

func (l *Learner[V]) NewOutgoingKey(ID) {}

func (l *Learner[V]) Start(actor.Sender[ID, Message[V]]) (actor.NextState[Message[V]], error) {
	return actor.Get[Message[V]](), nil
}

func (l *Learner[V]) ProcessMessage(
	msg optional.Value[Message[V]],
	_ actor.Sender[ID, Message[V]],
) (actor.NextState[Message[V]], error) {
	m, ok := msg.Get()
	if !ok {
		// Inbox closed before a decision was reached.
		return actor.Terminate(optional.None[Message[V]]()), nil
	}

	if err := l.recordVote(m); err != nil {
		return actor.NextState[Message[V]]{}, err
	}

	if value, decided := l.value.Get(); decided {
		return actor.Terminate(optional.Some(MsgTerminated(l.id, value))), nil
	}

	return actor.Get[Message[V]](), nil
}

// recordVote tallies one NewVote and marks the value decided once its
// (ballot, value) pair holds a quorum.
func (l *Learner[V]) recordVote(m Message[V]) error {
	value, hasValue := m.Value.Get()
	if m.Kind != KindNewVote || m.From.Role != RoleAcceptor || !hasValue {
		return fmt.Errorf("%s: %w: %s from %s", l.id, errors.ErrWrongType, m.Kind, m.From)
	}

	byValue, ok := l.votes[m.Time]
	if !ok {
		byValue = make(map[V]map[int]struct{})
		l.votes[m.Time] = byValue
	}

	voters, ok := byValue[value]
	if !ok {
		voters = make(map[int]struct{})
		byValue[value] = voters
	}

	voters[m.From.Index] = struct{}{}

	if len(voters) > l.numAcceptors/2 {
		l.value = optional.Some(value)
	}

	return nil
}
