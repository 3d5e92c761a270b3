// Package insecure collects "for testing only" dummy components that let an
// application exercise the engine's gate logic in a single-process test
// without paying for real cryptography, so tests can assert on circuit
// semantics instead of protocol correctness. Every constructor here is
// prefixed NewInsecure so it can never be reached by production wiring code
// by accident.
//
// Only the genuinely pluggable seams get a parallel fake: tuplegen.Generator
// and bidirot's SenderRCOT/ReceiverRCOT are Go interfaces, so a dummy slots
// in without touching real code. baseot, spcot, mpcot, and ferret are
// concrete types rather than factory interfaces, by design: one interface
// per pluggable protocol stage, not a matrix of generic types across every
// internal step. They have no seam for a parallel implementation to occupy;
// see DESIGN.md for the per-component rationale.
package insecure

import (
	"fmt"

	"github.com/summitto/boolmpc/block"
	"github.com/summitto/boolmpc/comm"
	"github.com/summitto/boolmpc/entropy"
	"github.com/summitto/boolmpc/tuplegen"
)

// DummyTupleGenerator always returns all-zero triples: a valid (if useless)
// Beaver triple, since 0*0 = 0. It never touches the network, so it's only
// correct when every party shares it (every party then holds all-zero
// a/b/c shares, AND gates still evaluate correctly, and the opened values
// equal the AND operands themselves, so nothing stays secret) or when the
// test cares about circuit shape, not AND-gate values.
type DummyTupleGenerator struct{}

// NewInsecureTupleGenerator builds a DummyTupleGenerator.
func NewInsecureTupleGenerator() *DummyTupleGenerator { return &DummyTupleGenerator{} }

func (*DummyTupleGenerator) GetBooleanTuple(size int) ([]tuplegen.Triple, error) {
	return make([]tuplegen.Triple, size), nil
}

func (*DummyTupleGenerator) TrafficStatistics() (sent, received uint64) { return 0, 0 }

// NullTupleGenerator is a tuplegen.Generator with no supply at all: any
// request for a nonzero number of triples is an error. Useful for catching
// engines that were wired without a real tuple generator but still schedule
// AND gates.
type NullTupleGenerator struct{}

// NewNullTupleGenerator builds a NullTupleGenerator.
func NewNullTupleGenerator() *NullTupleGenerator { return &NullTupleGenerator{} }

func (*NullTupleGenerator) GetBooleanTuple(size int) ([]tuplegen.Triple, error) {
	if size > 0 {
		return nil, fmt.Errorf("insecure: NullTupleGenerator cannot produce %d triples", size)
	}
	return []tuplegen.Triple{}, nil
}

func (*NullTupleGenerator) TrafficStatistics() (sent, received uint64) { return 0, 0 }

// DummyProductShareGenerator is the insecure analogue of
// prodshare.BoolGenerator: instead of a bidirectional OT, it sends its
// share of the right-hand operand in the clear and lets the peer compute
// left[i] & partnerRight[i] directly. Two parties running this against each
// other still XOR to the correct cross term, but each learns the other's
// right operand: fine for a unit test of engine gate-scheduling, never for
// anything that touches real inputs.
type DummyProductShareGenerator struct {
	agent *comm.Agent
}

// NewInsecureProductShareGenerator builds a DummyProductShareGenerator
// communicating over agent.
func NewInsecureProductShareGenerator(agent *comm.Agent) *DummyProductShareGenerator {
	return &DummyProductShareGenerator{agent: agent}
}

func (g *DummyProductShareGenerator) GenerateBooleanProductShares(left, right []int) ([]int, error) {
	if len(left) != len(right) {
		return nil, fmt.Errorf("insecure: inconsistent length in inputs: %d != %d", len(left), len(right))
	}
	sendErr := make(chan error, 1)
	go func() { sendErr <- g.agent.SendBool(right) }()
	partnerRight, err := g.agent.ReceiveBool(len(right))
	if err != nil {
		return nil, fmt.Errorf("insecure: receiving peer's right operand: %w", err)
	}
	if err := <-sendErr; err != nil {
		return nil, fmt.Errorf("insecure: sending right operand in the clear: %w", err)
	}
	result := make([]int, len(left))
	for i := range result {
		result[i] = left[i] & partnerRight[i]
	}
	return result, nil
}

// DummySenderRCOT and DummyReceiverRCOT satisfy bidirot.SenderRCOT and
// bidirot.ReceiverRCOT without any real OT math: the sender draws x0 at
// random and ships it in the clear; the receiver bakes in its own random
// choice bit b from the entropy source it was handed and derives
// x_b = x0 XOR (b*delta) locally. Only the receiver takes a delta, and for
// bidirectional OT derandomization to come out correct it must be the delta
// the sending party passes to its own bidirot core.
type DummySenderRCOT struct {
	agent *comm.Agent
	ent   entropy.Source
}

// NewInsecureSenderRCOT builds a DummySenderRCOT communicating over agent.
func NewInsecureSenderRCOT(agent *comm.Agent, ent entropy.Source) *DummySenderRCOT {
	if ent == nil {
		ent = entropy.System
	}
	return &DummySenderRCOT{agent: agent, ent: ent}
}

func (s *DummySenderRCOT) Rcot(n int) (block.Vector, error) {
	x0 := make(block.Vector, n)
	for i := range x0 {
		// Real senders (iknp, ferret) always hand back an x0 with LSB 0;
		// bidirot's flip-based derandomization relies on that to correctly
		// cancel, so the dummy must preserve it even though it carries no
		// other correlation.
		x0[i] = s.ent.Block().SetLsbTo(0)
	}
	if err := s.agent.Send(block.ToBytes(x0)); err != nil {
		return nil, fmt.Errorf("insecure: sending rcot outputs in the clear: %w", err)
	}
	return x0, nil
}

// DummyReceiverRCOT is DummySenderRCOT's peer: it receives x0 in the clear,
// samples its own choice bit per slot, and computes x_b = x0 XOR (b·Δ).
type DummyReceiverRCOT struct {
	agent *comm.Agent
	ent   entropy.Source
	delta block.Block
}

// NewInsecureReceiverRCOT builds a DummyReceiverRCOT communicating over
// agent. delta must match the peer DummySenderRCOT's (fake) correlation;
// in a real RCOT this would never be shared, but the dummy is exempt by
// design.
func NewInsecureReceiverRCOT(agent *comm.Agent, delta block.Block, ent entropy.Source) *DummyReceiverRCOT {
	if ent == nil {
		ent = entropy.System
	}
	return &DummyReceiverRCOT{agent: agent, ent: ent, delta: delta}
}

func (r *DummyReceiverRCOT) Rcot(n int) (block.Vector, error) {
	raw, err := r.agent.Receive(n * block.Size)
	if err != nil {
		return nil, fmt.Errorf("insecure: receiving rcot outputs in the clear: %w", err)
	}
	x0 := block.VectorFromBytes(raw)
	xb := make(block.Vector, n)
	for i := range xb {
		b := r.ent.Block().Lsb()
		xb[i] = x0[i]
		if b == 1 {
			xb[i] = xb[i].Xor(r.delta)
		}
	}
	return xb, nil
}
