package paxos

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/amp-labs/amp-actors/actor"
	"github.com/amp-labs/amp-actors/errors"
	"github.com/amp-labs/amp-actors/optional"
)

// ballot accumulates the promise replies for the proposer's current ballot.
type ballot[V comparable] struct {
	votes   map[int]struct{}
	maxTime optional.Value[TimeStamp]
	value   optional.Value[V]
	begun   time.Time
}

func newBallot[V comparable]() ballot[V] {
	return ballot[V]{
		votes: make(map[int]struct{}),
		begun: time.Now(),
	}
}

// Proposer drives ballots: it announces a random ballot number to every
// acceptor, collects promises, and once a quorum has answered proposes its
// value, adopting the value with the greatest accepted ballot among the
// promises, if any. If the deadline passes without a quorum it picks a higher
// ballot and starts over.
type Proposer[V comparable] struct {
	id        ID
	time      TimeStamp
	timeout   time.Duration
	rngRange  TimeStamp
	value     V
	ballot    ballot[V]
	acceptors map[ID]struct{}
}

// NewProposer creates the i-th proposer with its initial value. Ballots are
// drawn uniformly from [0, rngRange) and retried after timeout.
func NewProposer[V comparable](i int, initValue V, rngRange TimeStamp, timeout time.Duration) *Proposer[V] {
	if rngRange == 0 {
		rngRange = 1
	}

	return &Proposer[V]{
		id:        ProposerID(i),
		value:     initValue,
		timeout:   timeout,
		rngRange:  rngRange,
		ballot:    newBallot[V](),
		acceptors: make(map[ID]struct{}),
	}
}

// ID returns the proposer's actor key.
func (p *Proposer[V]) ID() ID {
	return p.id
}

// Value returns the value the proposer currently champions.
func (p *Proposer[V]) Value() V { //nolint:ireturn
	return p.value
}

func (p *Proposer[V]) NewIncomingKey(ID) {}

func (p *Proposer[V]) NewOutgoingKey(peer ID) {
	if peer.Role == RoleAcceptor {
		p.acceptors[peer] = struct{}{}
	}
}

func (p *Proposer[V]) Start(tx actor.Sender[ID, Message[V]]) (actor.NextState[Message[V]], error) {
	return p.newTime(TimeStamp(rand.N(uint32(p.rngRange))), tx)
}

func (p *Proposer[V]) ProcessMessage(
	msg optional.Value[Message[V]],
	tx actor.Sender[ID, Message[V]],
) (actor.NextState[Message[V]], error) {
	if m, ok := msg.Get(); ok {
		quorum, err := p.observe(m)
		if err != nil {
			return actor.NextState[Message[V]]{}, err
		}

		if quorum {
			proposal := MsgProposal(p.time, p.value, p.id)

			for id := range p.acceptors {
				// An acceptor that is already gone is not our problem.
				_ = tx.Send(id, proposal)
			}
		}

		if elapsed := time.Since(p.ballot.begun); elapsed < p.timeout {
			return actor.GetTimeout[Message[V]](p.timeout - elapsed), nil
		}
	} else if time.Since(p.ballot.begun) < p.timeout {
		// A null message before the deadline means the inbox closed:
		// the terminals are done and this proposer is being torn down.
		return actor.Terminate(optional.None[Message[V]]()), nil
	}

	// Deadline passed without a quorum; move to a higher ballot.
	return p.newTime(p.time+TimeStamp(rand.N(uint32(p.rngRange))), tx)
}

// newTime adopts the given ballot, resets the promise buffer, and announces
// the ballot to every acceptor.
func (p *Proposer[V]) newTime(
	t TimeStamp,
	tx actor.Sender[ID, Message[V]],
) (actor.NextState[Message[V]], error) {
	p.setTime(t)

	announce := MsgNewTime[V](p.time, p.id)

	for id := range p.acceptors {
		_ = tx.Send(id, announce)
	}

	return actor.GetTimeout[Message[V]](p.timeout), nil
}

// setTime moves to a new ballot, discarding the promises of the old one. A
// re-announcement of the current ballot keeps its buffer.
func (p *Proposer[V]) setTime(t TimeStamp) {
	if t == p.time && len(p.ballot.votes) > 0 {
		return
	}

	p.time = t
	p.ballot = newBallot[V]()
}

// observe records one promise reply. It reports whether the current ballot
// just reached a quorum, adopting the buffered value if one was promised.
func (p *Proposer[V]) observe(m Message[V]) (bool, error) {
	if m.Kind != KindUpdatedTime || m.From.Role != RoleAcceptor {
		return false, fmt.Errorf("%s: %w: %s from %s", p.id, errors.ErrWrongType, m.Kind, m.From)
	}

	if m.Time != p.time {
		// A reply for a stale ballot.
		return false, nil
	}

	p.ballot.votes[m.From.Index] = struct{}{}

	if at, ok := m.AcceptedTime.Get(); ok {
		if maxSoFar, has := p.ballot.maxTime.Get(); !has || at > maxSoFar {
			p.ballot.maxTime = optional.Some(at)
			p.ballot.value = m.Value
		}
	}

	if len(p.ballot.votes) > len(p.acceptors)/2 {
		if v, ok := p.ballot.value.Get(); ok {
			p.value = v
		}

		return true, nil
	}

	return false, nil
}
