// Package mpcot implements multi-point COT under the regular-error LPN
// assumption: weight independent single-point COTs, each covering its own
// length/weight-sized bucket, so the combined error vector has exactly one
// error per bucket instead of weight errors spread freely across the whole
// length: the "regular" half of regular-error LPN. See
// https://eprint.iacr.org/2019/1159.pdf.
package mpcot

import (
	"fmt"
	"math"

	"github.com/summitto/boolmpc/block"
	"github.com/summitto/boolmpc/comm"
	"github.com/summitto/boolmpc/entropy"
	"github.com/summitto/boolmpc/spcot"
)

// Sender composes weight SPCOT sender instances.
type Sender struct {
	agent *comm.Agent
	delta block.Block
	ent   entropy.Source

	spcotLength int
	weight      int
	baseCotSize int
}

// NewSender builds a multi-point COT sender producing a length-bit error
// vector split into weight regularly-spaced buckets. length must be an
// exact multiple of weight, and length/weight must be a power of two.
func NewSender(agent *comm.Agent, delta block.Block, ent entropy.Source, length, weight int) (*Sender, error) {
	spcotLength, baseCotSize, err := bucketShape(length, weight)
	if err != nil {
		return nil, err
	}
	return &Sender{agent: agent, delta: delta, ent: ent, spcotLength: spcotLength, weight: weight, baseCotSize: baseCotSize}, nil
}

// BaseCotNeeds is the number of base-COT blocks each Extend call consumes.
func (s *Sender) BaseCotNeeds() int { return s.baseCotSize * s.weight }

// Extend runs weight SPCOT instances and concatenates their leaf layers.
func (s *Sender) Extend(baseCOT block.Vector) (block.Vector, error) {
	if len(baseCOT) != s.BaseCotNeeds() {
		return nil, fmt.Errorf("mpcot: base COT size mismatch: got %d, want %d", len(baseCOT), s.BaseCotNeeds())
	}
	out := make(block.Vector, 0, s.weight*s.spcotLength)
	sp := spcot.NewSender(s.agent, s.delta, s.ent)
	for i := 0; i < s.weight; i++ {
		slice := baseCOT[i*s.baseCotSize : (i+1)*s.baseCotSize]
		leaves, err := sp.Extend(slice)
		if err != nil {
			return nil, fmt.Errorf("mpcot: bucket %d: %w", i, err)
		}
		out = append(out, leaves...)
	}
	return out, nil
}

// Receiver composes weight SPCOT receiver instances.
type Receiver struct {
	agent *comm.Agent

	spcotLength int
	weight      int
	baseCotSize int
}

// NewReceiver builds a multi-point COT receiver with the same shape rules
// as NewSender.
func NewReceiver(agent *comm.Agent, length, weight int) (*Receiver, error) {
	spcotLength, baseCotSize, err := bucketShape(length, weight)
	if err != nil {
		return nil, err
	}
	return &Receiver{agent: agent, spcotLength: spcotLength, weight: weight, baseCotSize: baseCotSize}, nil
}

// BaseCotNeeds is the number of base-COT blocks each Extend call consumes.
func (r *Receiver) BaseCotNeeds() int { return r.baseCotSize * r.weight }

// Extend runs weight SPCOT instances and concatenates their leaf layers,
// along with the global index (bucket offset plus in-bucket position) of
// each bucket's error position.
func (r *Receiver) Extend(baseCOT block.Vector) (out block.Vector, errorPositions []int, err error) {
	if len(baseCOT) != r.BaseCotNeeds() {
		return nil, nil, fmt.Errorf("mpcot: base COT size mismatch: got %d, want %d", len(baseCOT), r.BaseCotNeeds())
	}
	out = make(block.Vector, 0, r.weight*r.spcotLength)
	errorPositions = make([]int, r.weight)
	sp := spcot.NewReceiver(r.agent)
	for i := 0; i < r.weight; i++ {
		slice := baseCOT[i*r.baseCotSize : (i+1)*r.baseCotSize]
		leaves, position, err := sp.Extend(slice)
		if err != nil {
			return nil, nil, fmt.Errorf("mpcot: bucket %d: %w", i, err)
		}
		out = append(out, leaves...)
		errorPositions[i] = i*r.spcotLength + position
	}
	return out, errorPositions, nil
}

func bucketShape(length, weight int) (spcotLength, baseCotSize int, err error) {
	if weight <= 0 || length <= 0 || length%weight != 0 {
		return 0, 0, fmt.Errorf("mpcot: length %d must be a positive multiple of weight %d", length, weight)
	}
	spcotLength = length / weight
	baseCotSize = int(math.Log2(float64(spcotLength)))
	if 1<<baseCotSize != spcotLength {
		return 0, 0, fmt.Errorf("mpcot: length/weight = %d is not a power of two", spcotLength)
	}
	return spcotLength, baseCotSize, nil
}
