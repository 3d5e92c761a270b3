package ferret

import (
	"fmt"

	"github.com/summitto/boolmpc/block"
	"github.com/summitto/boolmpc/config"
)

// BaseCOTSource supplies the mpcot-sized slice of fresh base COTs every
// iteration needs to run the multi-point COT. In practice this is an IKNP
// extension (iknp.SenderRCOT / iknp.ReceiverRCOT): cheap enough to refresh
// every iteration, unlike the matrix part, which self-bootstraps from
// Ferret's own output.
type BaseCOTSource interface {
	Rcot(n int) (block.Vector, error)
}

// SenderExtender turns one-shot *Sender.ExtendRcot calls into a continuous
// stream: the last BaseSize blocks of every iteration's output reseed the
// next iteration's matrix part, so after the very first bootstrap the
// extender never needs outside randomness for that half again. The
// remaining extended-minus-base blocks are what Rcot(n) hands back.
type SenderExtender struct {
	sender     *Sender
	baseSize   int
	mpcotNeeds int
	src        BaseCOTSource
	matrixSeed block.Vector
	queue      block.Vector
}

// NewSenderExtender builds a continuous extender. bootstrapMatrixSeed must
// hold exactly opts.BaseSize blocks (e.g. drawn from a one-time IKNP
// extension at session start); src supplies the mpcot-sized base-COT slice
// consumed fresh every iteration thereafter.
func NewSenderExtender(sender *Sender, opts config.SDKOptions, bootstrapMatrixSeed block.Vector, src BaseCOTSource) (*SenderExtender, error) {
	if len(bootstrapMatrixSeed) != opts.BaseSize {
		return nil, fmt.Errorf("ferret: bootstrap matrix seed has %d blocks, want %d", len(bootstrapMatrixSeed), opts.BaseSize)
	}
	seed := make(block.Vector, len(bootstrapMatrixSeed))
	copy(seed, bootstrapMatrixSeed)
	return &SenderExtender{
		sender:     sender,
		baseSize:   opts.BaseSize,
		mpcotNeeds: sender.mp.BaseCotNeeds(),
		src:        src,
		matrixSeed: seed,
	}, nil
}

// Rcot produces n fresh random correlated OTs, running as many Ferret
// iterations as needed. Each iteration's trailing BaseSize output blocks
// become the next iteration's matrix seed and are never handed to the
// caller: those blocks are private seed material, not output.
func (e *SenderExtender) Rcot(n int) (block.Vector, error) {
	for len(e.queue) < n {
		mpcotPart, err := e.src.Rcot(e.mpcotNeeds)
		if err != nil {
			return nil, fmt.Errorf("ferret: refilling mpcot base COT: %w", err)
		}
		full := make(block.Vector, 0, len(e.matrixSeed)+len(mpcotPart))
		full = append(full, e.matrixSeed...)
		full = append(full, mpcotPart...)

		out, err := e.sender.ExtendRcot(full)
		if err != nil {
			return nil, fmt.Errorf("ferret: extending iteration: %w", err)
		}
		e.matrixSeed = append(block.Vector(nil), out[len(out)-e.baseSize:]...)
		e.queue = append(e.queue, out[:len(out)-e.baseSize]...)
	}
	out := e.queue[:n]
	e.queue = e.queue[n:]
	return out, nil
}

// ReceiverExtender is SenderExtender's peer-side counterpart.
type ReceiverExtender struct {
	receiver   *Receiver
	baseSize   int
	mpcotNeeds int
	src        BaseCOTSource
	matrixSeed block.Vector
	queue      block.Vector
	positions  []int // error positions held back alongside queue's head
}

// NewReceiverExtender mirrors NewSenderExtender on the receiver side.
func NewReceiverExtender(receiver *Receiver, opts config.SDKOptions, bootstrapMatrixSeed block.Vector, src BaseCOTSource) (*ReceiverExtender, error) {
	if len(bootstrapMatrixSeed) != opts.BaseSize {
		return nil, fmt.Errorf("ferret: bootstrap matrix seed has %d blocks, want %d", len(bootstrapMatrixSeed), opts.BaseSize)
	}
	seed := make(block.Vector, len(bootstrapMatrixSeed))
	copy(seed, bootstrapMatrixSeed)
	return &ReceiverExtender{
		receiver:   receiver,
		baseSize:   opts.BaseSize,
		mpcotNeeds: receiver.mp.BaseCotNeeds(),
		src:        src,
		matrixSeed: seed,
	}, nil
}

// Rcot produces n fresh random correlated OTs, discarding the per-iteration
// error positions; callers that need the choice string (e.g. product
// sharing) use ExtendWithPositions directly instead.
func (e *ReceiverExtender) Rcot(n int) (block.Vector, error) {
	out, _, err := e.ExtendWithPositions(n)
	return out, err
}

// ExtendWithPositions is Rcot, additionally returning the index (within the
// n returned blocks) of every bucket's Δ-correlated error position.
func (e *ReceiverExtender) ExtendWithPositions(n int) (block.Vector, []int, error) {
	for len(e.queue) < n {
		mpcotPart, err := e.src.Rcot(e.mpcotNeeds)
		if err != nil {
			return nil, nil, fmt.Errorf("ferret: refilling mpcot base COT: %w", err)
		}
		full := make(block.Vector, 0, len(e.matrixSeed)+len(mpcotPart))
		full = append(full, e.matrixSeed...)
		full = append(full, mpcotPart...)

		out, positions, err := e.receiver.ExtendRcot(full)
		if err != nil {
			return nil, nil, fmt.Errorf("ferret: extending iteration: %w", err)
		}
		base := len(e.queue)
		cut := len(out) - e.baseSize
		for _, p := range positions {
			if p < cut {
				e.positions = append(e.positions, base+p)
			}
		}
		e.matrixSeed = append(block.Vector(nil), out[cut:]...)
		e.queue = append(e.queue, out[:cut]...)
	}

	out := e.queue[:n]
	e.queue = e.queue[n:]

	var retPositions []int
	kept := e.positions[:0:0]
	for _, p := range e.positions {
		if p < n {
			retPositions = append(retPositions, p)
		} else {
			kept = append(kept, p-n)
		}
	}
	e.positions = kept
	return out, retPositions, nil
}
