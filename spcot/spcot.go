// Package spcot implements single-point correlated OT: a GGM-tree PPRF
// punctured at one secret leaf. A sender holding the global correlation
// delta derives 2^d pseudorandom leaves; the receiver derives every leaf
// except one, plus that leaf's sender-side counterpart XOR delta, without
// either party learning the other's half. See
// https://eprint.iacr.org/2020/924.pdf section 3.
package spcot

import (
	"fmt"

	"github.com/summitto/boolmpc/block"
	"github.com/summitto/boolmpc/comm"
	"github.com/summitto/boolmpc/entropy"
	"github.com/summitto/boolmpc/utils"
)

// Sender runs the GGM-tree sender role.
type Sender struct {
	agent *comm.Agent
	delta block.Block
	ent   entropy.Source
	index int64
}

// NewSender builds a SPCOT sender. delta's LSB must be 1.
func NewSender(agent *comm.Agent, delta block.Block, ent entropy.Source) *Sender {
	utils.Assertf(delta.Lsb() == 1, "spcot: delta must have LSB 1")
	if ent == nil {
		ent = entropy.System
	}
	return &Sender{agent: agent, delta: delta, ent: ent}
}

// Extend runs one SPCOT instance. baseCOT holds one correlated block per
// tree level (len(baseCOT) == log2(output size)). Returns the full leaf
// layer, each leaf's LSB cleared.
func (s *Sender) Extend(baseCOT block.Vector) (block.Vector, error) {
	exp := newExpander(s.index)
	hash := newMaskHasher(s.index)

	rst := block.Vector{s.ent.Block()}
	for i, baseCot := range baseCOT {
		rst = exp.expand(rst)

		m0 := hash.hash(baseCot).Xor(baseCot)
		deltaCot := baseCot.Xor(s.delta)
		m1 := hash.hash(deltaCot).Xor(deltaCot)
		for j := 0; j < len(rst); j += 2 {
			m0 = m0.Xor(rst[j])
			m1 = m1.Xor(rst[j+1])
		}
		if err := s.agent.Send(block.ToBytes(block.Vector{m0, m1})); err != nil {
			return nil, fmt.Errorf("spcot: sending layer %d masks: %w", i, err)
		}
	}

	totalXor := s.delta
	for i := range rst {
		rst[i] = rst[i].SetLsbTo(0)
		totalXor = totalXor.Xor(rst[i])
	}
	if err := s.agent.Send(totalXor.Bytes()); err != nil {
		return nil, fmt.Errorf("spcot: sending total-xor correction: %w", err)
	}
	s.index++
	return rst, nil
}

// Receiver runs the GGM-tree receiver role.
type Receiver struct {
	agent *comm.Agent
	index int64
}

// NewReceiver builds a SPCOT receiver.
func NewReceiver(agent *comm.Agent) *Receiver {
	return &Receiver{agent: agent}
}

// Extend runs one SPCOT instance, returning the leaf layer (the missing
// leaf holds its sender-side counterpart XOR Δ instead of the real value)
// and the index of the punctured leaf, which is encoded in baseCOT's LSBs:
// if baseCOT's choice bits read 1,0,0,1,0 the punctured position is
// (01101)_2 = 13.
func (r *Receiver) Extend(baseCOT block.Vector) (block.Vector, int, error) {
	exp := newExpander(r.index)
	hash := newMaskHasher(r.index)

	rst := block.Vector{block.Zero}
	position := 0
	for i, baseCot := range baseCOT {
		var err error
		rst, err = r.constructLayer(exp, hash, rst, baseCot, position)
		if err != nil {
			return nil, 0, fmt.Errorf("spcot: reconstructing layer %d: %w", i, err)
		}
		position <<= 1
		if baseCot.Lsb() == 0 {
			position ^= 1
		}
	}

	totalXorRaw, err := r.agent.Receive(block.Size)
	if err != nil {
		return nil, 0, fmt.Errorf("spcot: receiving total-xor correction: %w", err)
	}
	totalXor := block.FromBytes(totalXorRaw)

	rst[position] = block.Zero
	for i := range rst {
		rst[i] = rst[i].SetLsbTo(0)
		totalXor = totalXor.Xor(rst[i])
	}
	rst[position] = totalXor

	r.index++
	return rst, position, nil
}

func (r *Receiver) constructLayer(exp *expander, hash *maskHasher, prev block.Vector, baseCot block.Block, missingPosition int) (block.Vector, error) {
	rst := exp.expand(prev)

	lsb := int(baseCot.Lsb())
	positionToFix := missingPosition<<1 + lsb

	rst[positionToFix] = hash.hash(baseCot).Xor(baseCot)

	masksRaw, err := r.agent.Receive(2 * block.Size)
	if err != nil {
		return nil, err
	}
	masks := block.VectorFromBytes(masksRaw)

	rst[positionToFix] = rst[positionToFix].Xor(masks[lsb])
	for i := lsb; i < len(rst); i += 2 {
		if i != positionToFix {
			rst[positionToFix] = rst[positionToFix].Xor(rst[i])
		}
	}
	return rst, nil
}

// expander turns n pseudorandom keys into 2n: key i controls the 2i-th and
// (2i+1)-th output keys, each via a fixed-key Davies-Meyer AES hash keyed
// off the tree's index so independent Extend calls never share a GGM tree.
type expander struct {
	c0, c1 *block.Cipher
}

func newExpander(index int64) *expander {
	k0 := block.FromUint64s(uint64(index)<<1, 0)
	k1 := block.FromUint64s(1+uint64(index)<<1, 0)
	return &expander{c0: block.New(k0), c1: block.New(k1)}
}

func (e *expander) expand(src block.Vector) block.Vector {
	rst := make(block.Vector, len(src)*2)
	for i, s := range src {
		rst[2*i] = e.c0.Encrypt(s).Xor(s)
		rst[2*i+1] = e.c1.Encrypt(s).Xor(s)
	}
	return rst
}

// maskHasher is the correlation-robust hash used to blind each layer's two
// candidate children before they go on the wire.
type maskHasher struct {
	cipher *block.Cipher
}

func newMaskHasher(index int64) *maskHasher {
	return &maskHasher{cipher: block.New(block.FromUint64s(uint64(index), 0))}
}

func (h *maskHasher) hash(x block.Block) block.Block {
	return h.cipher.Encrypt(x).Xor(x)
}
