// Package ferret implements the Ferret RCOT extender: one seeded
// local-linear matrix multiplication plus one regular-error multi-point COT,
// XORed together so the result inherits both the LPN assumption's hardness
// and the MPCOT's exact error locations. See
// https://eprint.iacr.org/2019/1159.pdf.
package ferret

import (
	"fmt"

	"github.com/summitto/boolmpc/block"
	"github.com/summitto/boolmpc/comm"
	"github.com/summitto/boolmpc/config"
	"github.com/summitto/boolmpc/entropy"
	"github.com/summitto/boolmpc/mpcot"
)

// Sender runs the RCOT-extender sender role, holding the global
// correlation delta.
type Sender struct {
	agent *comm.Agent
	mm    MatrixMultiplier
	mp    *mpcot.Sender

	matrixBaseSize int
	extendedSize   int
}

// NewSender builds a Ferret sender from opts.
func NewSender(agent *comm.Agent, delta block.Block, ent entropy.Source, opts config.SDKOptions) (*Sender, error) {
	mp, err := mpcot.NewSender(agent, delta, ent, opts.ExtendedSize, opts.Weight)
	if err != nil {
		return nil, fmt.Errorf("ferret: %w", err)
	}
	return &Sender{agent: agent, mm: TenLocalLinearMatrixMultiplier{}, mp: mp, matrixBaseSize: opts.BaseSize, extendedSize: opts.ExtendedSize}, nil
}

// BaseCotSize is the number of base-COT blocks ExtendRcot needs per call.
func (s *Sender) BaseCotSize() int { return s.matrixBaseSize + s.mp.BaseCotNeeds() }

// ExtendRcot turns BaseCotSize base-COT blocks into ExtendedSize random
// correlated OTs.
func (s *Sender) ExtendRcot(baseCOT block.Vector) (block.Vector, error) {
	if len(baseCOT) != s.BaseCotSize() {
		return nil, fmt.Errorf("ferret: base COT size mismatch: got %d, want %d", len(baseCOT), s.BaseCotSize())
	}
	seedRaw, err := s.agent.Receive(block.Size)
	if err != nil {
		return nil, fmt.Errorf("ferret: receiving matrix seed: %w", err)
	}
	seed := block.FromBytes(seedRaw)

	matrixPart := baseCOT[:s.matrixBaseSize]
	mpcotPart := baseCOT[s.matrixBaseSize:]

	rst := s.mm.MultiplyWithRandomMatrix(seed, s.extendedSize, matrixPart)
	mpRst, err := s.mp.Extend(mpcotPart)
	if err != nil {
		return nil, fmt.Errorf("ferret: mpcot extend: %w", err)
	}
	for i := range rst {
		rst[i] = rst[i].Xor(mpRst[i])
	}
	return rst, nil
}

// Receiver runs the RCOT-extender receiver role.
type Receiver struct {
	agent *comm.Agent
	ent   entropy.Source
	mm    MatrixMultiplier
	mp    *mpcot.Receiver

	matrixBaseSize int
	extendedSize   int
}

// NewReceiver builds a Ferret receiver from opts.
func NewReceiver(agent *comm.Agent, ent entropy.Source, opts config.SDKOptions) (*Receiver, error) {
	mp, err := mpcot.NewReceiver(agent, opts.ExtendedSize, opts.Weight)
	if err != nil {
		return nil, fmt.Errorf("ferret: %w", err)
	}
	if ent == nil {
		ent = entropy.System
	}
	return &Receiver{agent: agent, ent: ent, mm: TenLocalLinearMatrixMultiplier{}, mp: mp, matrixBaseSize: opts.BaseSize, extendedSize: opts.ExtendedSize}, nil
}

// BaseCotSize is the number of base-COT blocks ExtendRcot needs per call.
func (r *Receiver) BaseCotSize() int { return r.matrixBaseSize + r.mp.BaseCotNeeds() }

// ExtendRcot turns BaseCotSize base-COT blocks into ExtendedSize random
// correlated OTs, along with the indices where the MPCOT error (and hence
// delta-correlation) actually landed; callers needing the choice string for
// downstream product sharing read it off here.
func (r *Receiver) ExtendRcot(baseCOT block.Vector) (out block.Vector, errorPositions []int, err error) {
	if len(baseCOT) != r.BaseCotSize() {
		return nil, nil, fmt.Errorf("ferret: base COT size mismatch: got %d, want %d", len(baseCOT), r.BaseCotSize())
	}
	seed := r.ent.Block()
	if err := r.agent.Send(seed.Bytes()); err != nil {
		return nil, nil, fmt.Errorf("ferret: sending matrix seed: %w", err)
	}

	matrixPart := baseCOT[:r.matrixBaseSize]
	mpcotPart := baseCOT[r.matrixBaseSize:]

	rst := r.mm.MultiplyWithRandomMatrix(seed, r.extendedSize, matrixPart)
	mpRst, positions, err := r.mp.Extend(mpcotPart)
	if err != nil {
		return nil, nil, fmt.Errorf("ferret: mpcot extend: %w", err)
	}
	for i := range rst {
		rst[i] = rst[i].Xor(mpRst[i])
	}
	return rst, positions, nil
}
