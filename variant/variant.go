// Package variant provides sum types for systems whose actors belong to a
// small closed set of kinds. A sum wraps exactly one concrete member core,
// stored in a tagged union, and synthesizes the actor contract on the sum
// with a hand-written match on the tag that forwards to the active variant.
//
// The member type parameters are the concrete core types themselves; the
// actor.Core constraint is compile-time only, so no member is stored behind
// an interface and dispatch never goes through interface indirection or
// reflection. All members of a sum must agree on the key and message types.
//
// Of2 and Of3 cover the common arities; the pattern extends mechanically.
package variant

import (
	"github.com/amp-labs/amp-actors/actor"
	"github.com/amp-labs/amp-actors/optional"
)

// Kind tags the active variant of a sum.
type Kind uint8

const (
	KindFirst Kind = iota
	KindSecond
	KindThird
)

func (k Kind) String() string {
	switch k {
	case KindFirst:
		return "first"
	case KindSecond:
		return "second"
	case KindThird:
		return "third"
	default:
		return "unknown"
	}
}

// Of2 is a sum of two concrete actor-core kinds; exactly one is active.
// Construct values with First2 or Second2; the zero value is invalid.
type Of2[K comparable, M any, A, B actor.Core[K, M]] struct {
	kind Kind
	a    A
	b    B
}

// First2 wraps a member of the first kind.
func First2[K comparable, M any, A, B actor.Core[K, M]](member A) *Of2[K, M, A, B] {
	return &Of2[K, M, A, B]{kind: KindFirst, a: member}
}

// Second2 wraps a member of the second kind.
func Second2[K comparable, M any, A, B actor.Core[K, M]](member B) *Of2[K, M, A, B] {
	return &Of2[K, M, A, B]{kind: KindSecond, b: member}
}

// Kind returns the tag of the active variant.
func (c *Of2[K, M, A, B]) Kind() Kind {
	return c.kind
}

// First returns the first-kind member and whether it is the active variant.
func (c *Of2[K, M, A, B]) First() (A, bool) { //nolint:ireturn
	return c.a, c.kind == KindFirst
}

// Second returns the second-kind member and whether it is the active variant.
func (c *Of2[K, M, A, B]) Second() (B, bool) { //nolint:ireturn
	return c.b, c.kind == KindSecond
}

func (c *Of2[K, M, A, B]) NewIncomingKey(peer K) {
	switch c.kind {
	case KindFirst:
		c.a.NewIncomingKey(peer)
	case KindSecond:
		c.b.NewIncomingKey(peer)
	default:
		panic("variant: invalid kind")
	}
}

func (c *Of2[K, M, A, B]) NewOutgoingKey(peer K) {
	switch c.kind {
	case KindFirst:
		c.a.NewOutgoingKey(peer)
	case KindSecond:
		c.b.NewOutgoingKey(peer)
	default:
		panic("variant: invalid kind")
	}
}

func (c *Of2[K, M, A, B]) Start(tx actor.Sender[K, M]) (actor.NextState[M], error) {
	switch c.kind {
	case KindFirst:
		return c.a.Start(tx)
	case KindSecond:
		return c.b.Start(tx)
	default:
		panic("variant: invalid kind")
	}
}

func (c *Of2[K, M, A, B]) ProcessMessage(
	msg optional.Value[M],
	tx actor.Sender[K, M],
) (actor.NextState[M], error) {
	switch c.kind {
	case KindFirst:
		return c.a.ProcessMessage(msg, tx)
	case KindSecond:
		return c.b.ProcessMessage(msg, tx)
	default:
		panic("variant: invalid kind")
	}
}

// Of3 is a sum of three concrete actor-core kinds; exactly one is active.
// Construct values with First3, Second3, or Third3; the zero value is invalid.
type Of3[K comparable, M any, A, B, C actor.Core[K, M]] struct {
	kind Kind
	a    A
	b    B
	c    C
}

// First3 wraps a member of the first kind.
func First3[K comparable, M any, A, B, C actor.Core[K, M]](member A) *Of3[K, M, A, B, C] {
	return &Of3[K, M, A, B, C]{kind: KindFirst, a: member}
}

// Second3 wraps a member of the second kind.
func Second3[K comparable, M any, A, B, C actor.Core[K, M]](member B) *Of3[K, M, A, B, C] {
	return &Of3[K, M, A, B, C]{kind: KindSecond, b: member}
}

// Third3 wraps a member of the third kind.
func Third3[K comparable, M any, A, B, C actor.Core[K, M]](member C) *Of3[K, M, A, B, C] {
	return &Of3[K, M, A, B, C]{kind: KindThird, c: member}
}

// Kind returns the tag of the active variant.
func (c *Of3[K, M, A, B, C]) Kind() Kind {
	return c.kind
}

// First returns the first-kind member and whether it is the active variant.
func (c *Of3[K, M, A, B, C]) First() (A, bool) { //nolint:ireturn
	return c.a, c.kind == KindFirst
}

// Second returns the second-kind member and whether it is the active variant.
func (c *Of3[K, M, A, B, C]) Second() (B, bool) { //nolint:ireturn
	return c.b, c.kind == KindSecond
}

// Third returns the third-kind member and whether it is the active variant.
func (c *Of3[K, M, A, B, C]) Third() (C, bool) { //nolint:ireturn
	return c.c, c.kind == KindThird
}

func (c *Of3[K, M, A, B, C]) NewIncomingKey(peer K) {
	switch c.kind {
	case KindFirst:
		c.a.NewIncomingKey(peer)
	case KindSecond:
		c.b.NewIncomingKey(peer)
	case KindThird:
		c.c.NewIncomingKey(peer)
	default:
		panic("variant: invalid kind")
	}
}

func (c *Of3[K, M, A, B, C]) NewOutgoingKey(peer K) {
	switch c.kind {
	case KindFirst:
		c.a.NewOutgoingKey(peer)
	case KindSecond:
		c.b.NewOutgoingKey(peer)
	case KindThird:
		c.c.NewOutgoingKey(peer)
	default:
		panic("variant: invalid kind")
	}
}

func (c *Of3[K, M, A, B, C]) Start(tx actor.Sender[K, M]) (actor.NextState[M], error) {
	switch c.kind {
	case KindFirst:
		return c.a.Start(tx)
	case KindSecond:
		return c.b.Start(tx)
	case KindThird:
		return c.c.Start(tx)
	default:
		panic("variant: invalid kind")
	}
}

func (c *Of3[K, M, A, B, C]) ProcessMessage(
	msg optional.Value[M],
	tx actor.Sender[K, M],
) (actor.NextState[M], error) {
	switch c.kind {
	case KindFirst:
		return c.a.ProcessMessage(msg, tx)
	case KindSecond:
		return c.b.ProcessMessage(msg, tx)
	case KindThird:
		return c.c.ProcessMessage(msg, tx)
	default:
		panic("variant: invalid kind")
	}
}
