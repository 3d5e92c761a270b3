// Package iknp implements the IKNP OT extension protocol (Ishai, Kilian,
// Nissim, Petrank, "Extending Oblivious Transfers Efficiently"): bootstrap
// 127 base OTs once, then stretch them into arbitrarily many random
// correlated OTs per extension call.
package iknp

import (
	"fmt"

	"github.com/summitto/boolmpc/baseot"
	"github.com/summitto/boolmpc/block"
	"github.com/summitto/boolmpc/comm"
	"github.com/summitto/boolmpc/entropy"
	"github.com/summitto/boolmpc/prg"
	"github.com/summitto/boolmpc/utils"
)

// realRows is the number of base OTs actually run: bits 1..127 of Δ. Bit 0
// is forced to 1 and carries no hiding requirement (it is public, not
// secret), so Sender fixes its row 0 to all-zero and Receiver sets its row
// 0 to its own choice column r directly, with no OT and no extra round
// trip; see transposeMatrix.
const realRows = Rows - 1

// Sender holds the global correlation delta and, after extension, the
// "s_i with LSB 0" side of each RCOT output: for every i, either
// sender[i] == receiver[i] or sender[i] XOR delta == receiver[i].
type Sender struct {
	agent *comm.Agent
	delta block.Block
	rowPRG [realRows]*prg.PRG
}

// NewSender bootstraps the IKNP sender: it plays the base-OT *receiver*
// role (IKNP extension flips the base-OT roles relative to its own output
// roles), using the bits 1..127 of delta as its choice string.
func NewSender(agent *comm.Agent, delta block.Block, ent entropy.Source) (*Sender, error) {
	utils.Assertf(delta.Lsb() == 1, "iknp: global correlation delta must have LSB 1")
	choice := make([]int, realRows)
	for j := 0; j < realRows; j++ {
		choice[j] = int(deltaBit(delta, j+1))
	}
	recv := baseot.NewReceiver(agent, ent)
	seeds, err := recv.Receive(choice)
	if err != nil {
		return nil, fmt.Errorf("iknp: base-OT bootstrap (sender side): %w", err)
	}
	s := &Sender{agent: agent, delta: delta}
	for j := 0; j < realRows; j++ {
		s.rowPRG[j] = prg.New(seeds[j])
	}
	return s, nil
}

// Extend produces m random correlated OTs, m padded up internally to a
// multiple of 128. Returns exactly m blocks.
func (s *Sender) Extend(m int) (block.Vector, error) {
	mPadded := padTo128(m)
	mBytes := mPadded / 8

	var rows [Rows][]byte
	rows[0] = make([]byte, mBytes) // all-zero synthetic row, see realRows.

	for j := 0; j < realRows; j++ {
		stream := s.rowPRG[j].RandomBytes(mBytes)
		if deltaBit(s.delta, j+1) == 1 {
			u, err := s.agent.Receive(mBytes)
			if err != nil {
				return nil, fmt.Errorf("iknp: receiving row %d correction: %w", j, err)
			}
			utils.XorBytesInPlace(stream, u)
		} else {
			if _, err := s.agent.Receive(mBytes); err != nil {
				return nil, fmt.Errorf("iknp: receiving row %d correction: %w", j, err)
			}
			// Δ bit 0: sender's row is its stream unmodified; the
			// correction is still read off the wire (Receiver always
			// sends one) to keep both sides' message counts aligned.
		}
		rows[j+1] = stream
	}

	out := transposeMatrix(rows, mPadded)
	return out[:m], nil
}

// Receiver holds the random choice column r and, after extension, the
// "s_i XOR r_i·Δ" side of each RCOT output.
type Receiver struct {
	agent  *comm.Agent
	rowG0  [realRows]*prg.PRG
	rowG1  [realRows]*prg.PRG
	selfR  *prg.PRG
}

// NewReceiver bootstraps the IKNP receiver: it plays the base-OT *sender*
// role, handing the peer 127 (seed0, seed1) pairs and sampling its own
// random-choice PRG from ent.
func NewReceiver(agent *comm.Agent, ent entropy.Source) (*Receiver, error) {
	if ent == nil {
		ent = entropy.System
	}
	send := baseot.NewSender(agent, ent)
	m0, m1, err := send.Send(realRows)
	if err != nil {
		return nil, fmt.Errorf("iknp: base-OT bootstrap (receiver side): %w", err)
	}
	r := &Receiver{agent: agent, selfR: prg.New(ent.Block())}
	for j := 0; j < realRows; j++ {
		r.rowG0[j] = prg.New(m0[j])
		r.rowG1[j] = prg.New(m1[j])
	}
	return r, nil
}

// Extend produces m random correlated OTs, returning the output blocks and
// the random choice bits r that correlate them to the sender's Δ.
func (r *Receiver) Extend(m int) (out block.Vector, choice []int, err error) {
	mPadded := padTo128(m)
	mBytes := mPadded / 8

	rCol := r.selfR.RandomBytes(mBytes)

	var rows [Rows][]byte
	rows[0] = rCol // synthetic row 0, see realRows.

	for j := 0; j < realRows; j++ {
		t0 := r.rowG0[j].RandomBytes(mBytes)
		t1 := r.rowG1[j].RandomBytes(mBytes)
		u := utils.XorBytes(utils.XorBytes(t0, t1), rCol)
		if err := r.agent.Send(u); err != nil {
			return nil, nil, fmt.Errorf("iknp: sending row %d correction: %w", j, err)
		}
		rows[j+1] = t0
	}

	out = transposeMatrix(rows, mPadded)
	choiceBits := utils.BytesToBits(rCol)
	return out[:m], choiceBits[:m], nil
}

func deltaBit(d block.Block, bitIndex int) byte {
	byteIdx, bit := bitIndex/8, uint(bitIndex%8)
	return (d[byteIdx] >> bit) & 1
}

func padTo128(m int) int {
	return ((m + 127) / 128) * 128
}
