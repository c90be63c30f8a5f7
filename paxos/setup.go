package paxos

import (
	"time"

	"github.com/amp-labs/amp-actors/asyncsystem"
	"github.com/amp-labs/amp-actors/syncsystem"
	"github.com/amp-labs/amp-actors/variant"
)

// Core is the closed sum of the three actor kinds: exactly one of a
// proposer, an acceptor, or a learner, held as its concrete type.
type Core[V comparable] = variant.Of3[ID, Message[V], *Proposer[V], *Acceptor[V], *Learner[V]]

// ProposerCore wraps a proposer as the shared Core sum.
func ProposerCore[V comparable](p *Proposer[V]) *Core[V] {
	return variant.First3[ID, Message[V], *Proposer[V], *Acceptor[V], *Learner[V]](p)
}

// AcceptorCore wraps an acceptor as the shared Core sum.
func AcceptorCore[V comparable](a *Acceptor[V]) *Core[V] {
	return variant.Second3[ID, Message[V], *Proposer[V], *Acceptor[V], *Learner[V]](a)
}

// LearnerCore wraps a learner as the shared Core sum.
func LearnerCore[V comparable](l *Learner[V]) *Core[V] {
	return variant.Third3[ID, Message[V], *Proposer[V], *Acceptor[V], *Learner[V]](l)
}

// Config describes one Paxos run: who proposes what, how many acceptors and
// learners there are, and the proposers' retry behavior.
type Config[V comparable] struct {
	// ProposerValues holds one initial value per proposer.
	ProposerValues []V

	// Acceptors is the number of acceptors. An odd count avoids split votes.
	Acceptors int

	// Learners is the number of learners; every learner is a terminal.
	Learners int

	// Timeout is how long a proposer waits on a ballot before retrying.
	Timeout time.Duration

	// BallotRange bounds the random increments ballots are drawn from.
	BallotRange TimeStamp
}

// Inbox and instruction channel sizing for the asynchronous backend.
const (
	asyncInboxCapacity       = 10000
	asyncInstructionCapacity = 1000
)

// SetupSync assembles the full Paxos topology on the synchronous backend.
// Learners are the terminals; run the returned system to obtain one
// Terminated message per learner.
func SetupSync[V comparable](
	cfg Config[V],
	opts ...syncsystem.Option,
) *syncsystem.System[ID, Message[V]] {
	sys := syncsystem.New[ID, Message[V]](opts...)

	wire(cfg, addFuncs[V]{
		addActor:    func(id ID, core *Core[V]) { sys.AddActor(id, core) },
		addChannel:  sys.AddChannel,
		addTerminal: sys.AddTerminal,
	})

	return sys
}

// SetupAsync assembles the full Paxos topology on the asynchronous backend,
// with every core half placed in the given execution class.
func SetupAsync[V comparable](
	cfg Config[V],
	class asyncsystem.Class,
	opts ...asyncsystem.Option,
) *asyncsystem.System[ID, Message[V]] {
	sys := asyncsystem.New[ID, Message[V]](cfg.Learners, opts...)

	params := asyncsystem.Params{
		Class:               class,
		InboxCapacity:       asyncInboxCapacity,
		InstructionCapacity: asyncInstructionCapacity,
	}

	wire(cfg, addFuncs[V]{
		addActor:    func(id ID, core *Core[V]) { sys.AddActor(id, core, params) },
		addChannel:  sys.AddChannel,
		addTerminal: sys.AddTerminal,
	})

	return sys
}

// addFuncs abstracts the assembler surface the two backends share, so the
// topology is declared once.
type addFuncs[V comparable] struct {
	addActor    func(ID, *Core[V])
	addChannel  func(from, to ID)
	addTerminal func(ID)
}

func wire[V comparable](cfg Config[V], sys addFuncs[V]) {
	// Acceptors first; every other kind connects to them.
	for i := range cfg.Acceptors {
		sys.addActor(AcceptorID(i), AcceptorCore(NewAcceptor[V](i)))
	}

	// Learners, fed by every acceptor, gate completion.
	for i := range cfg.Learners {
		id := LearnerID(i)
		sys.addActor(id, LearnerCore(NewLearner[V](i)))
		sys.addTerminal(id)

		for j := range cfg.Acceptors {
			sys.addChannel(AcceptorID(j), id)
		}
	}

	// Proposers talk to every acceptor in both directions.
	for i, value := range cfg.ProposerValues {
		id := ProposerID(i)
		sys.addActor(id, ProposerCore(NewProposer(i, value, cfg.BallotRange, cfg.Timeout)))

		for j := range cfg.Acceptors {
			sys.addChannel(id, AcceptorID(j))
			sys.addChannel(AcceptorID(j), id)
		}
	}
}
