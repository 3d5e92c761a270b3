// Package baseot implements Naor-Pinkas 1-out-of-2 random OT (Naor, Pinkas,
// "Efficient Oblivious Transfer Protocols") over the ristretto255 group, a
// prime-order group offering the same discrete-log hardness assumption as
// the scheme's original P-256 instantiation.
package baseot

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/bwesterb/go-ristretto"

	"github.com/summitto/boolmpc/block"
	"github.com/summitto/boolmpc/comm"
	"github.com/summitto/boolmpc/entropy"
	"github.com/summitto/boolmpc/utils"
)

// MaxK is the largest number of parallel base OTs this implementation will
// run in one call.
const MaxK = 128

// Sender runs the Naor–Pinkas sender role.
type Sender struct {
	agent *comm.Agent
	ent   entropy.Source
}

// NewSender builds a base-OT sender communicating over agent.
func NewSender(agent *comm.Agent, ent entropy.Source) *Sender {
	if ent == nil {
		ent = entropy.System
	}
	return &Sender{agent: agent, ent: ent}
}

// Send runs k ≤ MaxK parallel random OTs and returns the k (m0, m1) message
// pairs.
func (s *Sender) Send(k int) (m0, m1 block.Vector, err error) {
	if k <= 0 || k > MaxK {
		return nil, nil, fmt.Errorf("baseot: k=%d out of range (1..%d)", k, MaxK)
	}
	m0 = make(block.Vector, k)
	m1 = make(block.Vector, k)

	for i := 0; i < k; i++ {
		var cScalar ristretto.Scalar
		cScalar.Rand()
		var c ristretto.Point
		c.ScalarMultBase(&cScalar)
		if err := sendPoint(s.agent, &c); err != nil {
			return nil, nil, err
		}

		pk0, err := receivePoint(s.agent)
		if err != nil {
			return nil, nil, err
		}

		var rScalar ristretto.Scalar
		rScalar.Rand()
		var gr ristretto.Point
		gr.ScalarMultBase(&rScalar)
		if err := sendPoint(s.agent, &gr); err != nil {
			return nil, nil, err
		}

		var t0, t1 ristretto.Point
		t0.ScalarMult(pk0, &rScalar)
		t1.ScalarMult(&c, &rScalar)
		t1.Sub(&t1, &t0)

		m0[i] = hashPoint(&t0)
		m1[i] = hashPoint(&t1)
	}
	return m0, m1, nil
}

// Receiver runs the Naor–Pinkas receiver role.
type Receiver struct {
	agent *comm.Agent
	ent   entropy.Source
}

// NewReceiver builds a base-OT receiver communicating over agent.
func NewReceiver(agent *comm.Agent, ent entropy.Source) *Receiver {
	if ent == nil {
		ent = entropy.System
	}
	return &Receiver{agent: agent, ent: ent}
}

// Receive runs len(choice) parallel random OTs, returning m_{choice[i]}[i]
// for each i.
func (r *Receiver) Receive(choice []int) (block.Vector, error) {
	k := len(choice)
	if k <= 0 || k > MaxK {
		return nil, fmt.Errorf("baseot: k=%d out of range (1..%d)", k, MaxK)
	}
	out := make(block.Vector, k)

	for i := 0; i < k; i++ {
		utils.Assertf(choice[i] == 0 || choice[i] == 1, "baseot: choice bit must be 0/1, got %d", choice[i])

		c, err := receivePoint(r.agent)
		if err != nil {
			return nil, err
		}

		var dScalar ristretto.Scalar
		dScalar.Rand()
		var pkChoice ristretto.Point
		pkChoice.ScalarMultBase(&dScalar)

		var pk0 ristretto.Point
		if choice[i] == 0 {
			pk0 = pkChoice
		} else {
			pk0.Sub(c, &pkChoice)
		}
		if err := sendPoint(r.agent, &pk0); err != nil {
			return nil, err
		}

		gr, err := receivePoint(r.agent)
		if err != nil {
			return nil, err
		}

		var tChoice ristretto.Point
		tChoice.ScalarMult(gr, &dScalar)

		out[i] = hashPoint(&tChoice)
	}
	return out, nil
}

// hashPoint derives a 128-bit OT output by hashing a group element with
// SHA-256 and truncating to block.Size bytes.
func hashPoint(p *ristretto.Point) block.Block {
	enc, err := p.MarshalBinary()
	if err != nil {
		panic(err) // encoding a valid group element cannot fail; a crypto library failure is fatal
	}
	digest := utils.Sha256(enc)
	return block.FromBytes(digest[:block.Size])
}

// sendPoint and receivePoint implement this base OT's wire format: each
// point as a length-prefixed hex string (2-byte length, then ASCII bytes).
func sendPoint(agent *comm.Agent, p *ristretto.Point) error {
	raw, err := p.MarshalBinary()
	if err != nil {
		return fmt.Errorf("baseot: encoding point: %w", err)
	}
	enc := hex.EncodeToString(raw)
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(enc)))
	if err := agent.Send(lenBuf[:]); err != nil {
		return fmt.Errorf("baseot: sending point length: %w", err)
	}
	if err := agent.Send([]byte(enc)); err != nil {
		return fmt.Errorf("baseot: sending point: %w", err)
	}
	return nil
}

func receivePoint(agent *comm.Agent) (*ristretto.Point, error) {
	lenBuf, err := agent.Receive(2)
	if err != nil {
		return nil, fmt.Errorf("baseot: receiving point length: %w", err)
	}
	n := binary.BigEndian.Uint16(lenBuf)
	raw, err := agent.Receive(int(n))
	if err != nil {
		return nil, fmt.Errorf("baseot: receiving point: %w", err)
	}
	dec, err := hex.DecodeString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("baseot: decoding point hex: %w", err)
	}
	var p ristretto.Point
	if err := p.UnmarshalBinary(dec); err != nil {
		return nil, fmt.Errorf("baseot: point not on curve (group operation error): %w", err)
	}
	return &p, nil
}
