package paxos

import (
	"fmt"

	"github.com/amp-labs/amp-actors/actor"
	"github.com/amp-labs/amp-actors/errors"
	"github.com/amp-labs/amp-actors/optional"
)

// Acceptor tracks the highest ballot it has promised and the value it last
// accepted. It answers NewTime announcements with a promise and turns
// Proposals into votes broadcast to every learner.
type Acceptor[V comparable] struct {
	id            ID
	learners      map[ID]struct{}
	proposers     map[ID]struct{}
	acceptedValue optional.Value[V]
	acceptedTime  optional.Value[TimeStamp]
	time          TimeStamp
}

// NewAcceptor creates the i-th acceptor.
func NewAcceptor[V comparable](i int) *Acceptor[V] {
	return &Acceptor[V]{
		id:        AcceptorID(i),
		learners:  make(map[ID]struct{}),
		proposers: make(map[ID]struct{}),
	}
}

// ID returns the acceptor's actor key.
func (a *Acceptor[V]) ID() ID {
	return a.id
}

// Accepted returns the value the acceptor last accepted and its ballot.
func (a *Acceptor[V]) Accepted() (optional.Value[V], optional.Value[TimeStamp]) {
	return a.acceptedValue, a.acceptedTime
}

func (a *Acceptor[V]) NewIncomingKey(ID) {}

func (a *Acceptor[V]) NewOutgoingKey(peer ID) {
	if peer.Role == RoleLearner {
		a.learners[peer] = struct{}{}
	}
}

func (a *Acceptor[V]) Start(actor.Sender[ID, Message[V]]) (actor.NextState[Message[V]], error) {
	return actor.Get[Message[V]](), nil
}

func (a *Acceptor[V]) ProcessMessage(
	msg optional.Value[Message[V]],
	tx actor.Sender[ID, Message[V]],
) (actor.NextState[Message[V]], error) {
	m, ok := msg.Get()
	if !ok {
		// Inbox closed: the terminals are done, nothing left to accept.
		return actor.Terminate(optional.None[Message[V]]()), nil
	}

	switch m.Kind {
	case KindNewTime:
		a.proposers[m.From] = struct{}{}

		if reply, promised := a.promise(m.Time); promised {
			// The proposer may already be gone; its promise is then moot.
			_ = tx.Send(m.From, reply)
		}
	case KindProposal:
		value, hasValue := m.Value.Get()
		if !hasValue {
			return actor.NextState[Message[V]]{}, fmt.Errorf("%s: %w: proposal without a value", a.id, errors.ErrWrongType)
		}

		if a.accept(m.Time, value) {
			vote := MsgNewVote(a.id, m.Time, value)

			for id := range a.learners {
				_ = tx.Send(id, vote)
			}
		}
	case KindAccept, KindNewVote, KindUpdatedTime, KindTerminated:
		return actor.NextState[Message[V]]{}, fmt.Errorf("%s: %w: %s from %s", a.id, errors.ErrWrongType, m.Kind, m.From)
	}

	return actor.Get[Message[V]](), nil
}

// promise moves to the announced ballot if it is strictly newer, answering
// with the acceptor's current state. Stale announcements are ignored.
func (a *Acceptor[V]) promise(t TimeStamp) (Message[V], bool) {
	if t <= a.time {
		return Message[V]{}, false
	}

	a.time = t

	return MsgUpdatedTime(a.time, a.acceptedValue, a.acceptedTime, a.id), true
}

// accept records the proposal if its ballot is at least the current one.
// Equality is accepted: the promise that preceded the proposal already moved
// the acceptor to the proposal's ballot.
func (a *Acceptor[V]) accept(t TimeStamp, value V) bool {
	if t < a.time {
		return false
	}

	a.time = t
	a.acceptedValue = optional.Some(value)
	a.acceptedTime = optional.Some(t)

	return true
}
