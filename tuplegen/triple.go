// Package tuplegen implements two Beaver-triple generation paths:
// NPartyGenerator for N >= 2 using the quadratic product-share construction,
// and TwoPartyGenerator, a dedicated N=2 path that consumes RCOT directly.
// Both produce the same output type and satisfy the same Generator
// interface, so engine.Engine never needs to know which one it was wired
// with.
package tuplegen

import "fmt"

// Triple is a Boolean multiplication triple, packed three bits into one
// byte (top five bits unused) as (a<<2)^(b<<1)^c.
type Triple struct {
	value byte
}

// NewTriple packs (a, b, c) bits (each 0 or 1) into a Triple.
func NewTriple(a, b, c int) Triple {
	return Triple{value: byte((a << 2) ^ (b << 1) ^ c)}
}

// A returns the triple's a share.
func (t Triple) A() int { return int((t.value >> 2) & 1) }

// B returns the triple's b share.
func (t Triple) B() int { return int((t.value >> 1) & 1) }

// C returns the triple's c share.
func (t Triple) C() int { return int(t.value & 1) }

func (t Triple) String() string {
	return fmt.Sprintf("(%d,%d,%d)", t.A(), t.B(), t.C())
}

// Generator is the common surface both tuple-generation paths satisfy; it is
// the only thing engine.Engine depends on, with everything below it
// dependency-injected.
type Generator interface {
	// GetBooleanTuple returns size fresh Boolean triples.
	GetBooleanTuple(size int) ([]Triple, error)
	// TrafficStatistics reports (sent, received) bytes across this
	// generator's entire dependency graph.
	TrafficStatistics() (sent, received uint64)
}
