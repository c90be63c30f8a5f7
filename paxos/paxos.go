// Package paxos implements single-decree Paxos consensus on top of the actor
// runtime: Proposers issue ballots to Acceptors, Acceptors vote, and Learners
// terminate once a quorum of acceptors has voted for the same value.
//
// The package doubles as the runtime's reference workload: it exercises
// timeouts, broadcast, quorum counting, message dispatch, and teardown of
// non-terminal actors (proposers and acceptors are non-terminal; learners are
// terminal).
package paxos

import (
	"fmt"

	"github.com/amp-labs/amp-actors/optional"
)

// TimeStamp is a Paxos ballot number. Proposals are ordered by it.
type TimeStamp uint32

// Role distinguishes the three actor kinds of the protocol.
type Role int

const (
	RoleProposer Role = iota
	RoleAcceptor
	RoleLearner
)

func (r Role) String() string {
	switch r {
	case RoleProposer:
		return "proposer"
	case RoleAcceptor:
		return "acceptor"
	case RoleLearner:
		return "learner"
	default:
		return "unknown"
	}
}

// ID identifies one actor of the system: a role plus an index within it.
type ID struct {
	Role  Role
	Index int
}

// ProposerID returns the ID of the i-th proposer.
func ProposerID(i int) ID {
	return ID{Role: RoleProposer, Index: i}
}

// AcceptorID returns the ID of the i-th acceptor.
func AcceptorID(i int) ID {
	return ID{Role: RoleAcceptor, Index: i}
}

// LearnerID returns the ID of the i-th learner.
func LearnerID(i int) ID {
	return ID{Role: RoleLearner, Index: i}
}

func (id ID) String() string {
	return fmt.Sprintf("%s-%d", id.Role, id.Index)
}

// Kind discriminates the protocol messages.
type Kind int

const (
	// KindNewTime announces a proposer's new ballot to the acceptors.
	KindNewTime Kind = iota
	// KindProposal carries a proposer's value for its current ballot.
	KindProposal
	// KindAccept acknowledges a ballot.
	KindAccept
	// KindNewVote is an acceptor's vote, broadcast to the learners.
	KindNewVote
	// KindUpdatedTime is an acceptor's promise reply to a NewTime, carrying
	// any previously accepted value and its ballot.
	KindUpdatedTime
	// KindTerminated is a learner's final message carrying the decided value.
	KindTerminated
)

func (k Kind) String() string {
	switch k {
	case KindNewTime:
		return "new-time"
	case KindProposal:
		return "proposal"
	case KindAccept:
		return "accept"
	case KindNewVote:
		return "new-vote"
	case KindUpdatedTime:
		return "updated-time"
	case KindTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Message is the protocol message vocabulary, generic over the proposed value
// type. Unused fields are zero; optional fields use optional.Value.
type Message[V comparable] struct {
	Kind Kind

	// Time is the ballot the message belongs to.
	Time TimeStamp

	// From identifies the sending actor.
	From ID

	// Value carries the proposed, voted, or decided value.
	Value optional.Value[V]

	// AcceptedTime is the ballot at which Value was accepted (UpdatedTime only).
	AcceptedTime optional.Value[TimeStamp]
}

// MsgNewTime announces a proposer's new ballot.
func MsgNewTime[V comparable](t TimeStamp, from ID) Message[V] {
	return Message[V]{Kind: KindNewTime, Time: t, From: from}
}

// MsgProposal carries the proposer's value for ballot t.
func MsgProposal[V comparable](t TimeStamp, value V, from ID) Message[V] {
	return Message[V]{Kind: KindProposal, Time: t, From: from, Value: optional.Some(value)}
}

// MsgAccept acknowledges ballot t.
func MsgAccept[V comparable](t TimeStamp) Message[V] {
	return Message[V]{Kind: KindAccept, Time: t}
}

// MsgNewVote is an acceptor's vote for value at ballot t.
func MsgNewVote[V comparable](from ID, t TimeStamp, value V) Message[V] {
	return Message[V]{Kind: KindNewVote, Time: t, From: from, Value: optional.Some(value)}
}

// MsgUpdatedTime is an acceptor's promise reply for ballot t, carrying its
// previously accepted value and ballot, if any.
func MsgUpdatedTime[V comparable](
	t TimeStamp,
	accepted optional.Value[V],
	acceptedAt optional.Value[TimeStamp],
	from ID,
) Message[V] {
	return Message[V]{
		Kind:         KindUpdatedTime,
		Time:         t,
		From:         from,
		Value:        accepted,
		AcceptedTime: acceptedAt,
	}
}

// MsgTerminated is a learner's final message carrying the decided value.
func MsgTerminated[V comparable](from ID, value V) Message[V] {
	return Message[V]{Kind: KindTerminated, From: from, Value: optional.Some(value)}
}
