// Package bidirot builds chosen-input, chosen-choice oblivious transfer out
// of a pair of random correlated OTs: the two parties run RCOT in both
// directions, then "derandomize" the receiver's baked-in random choice bit
// into whatever choice bit it actually wants via one public XOR correction
// per OT, and mask the sender's two real inputs under hashes of the two
// RCOT keys.
package bidirot

import (
	"fmt"

	"github.com/summitto/boolmpc/block"
	"github.com/summitto/boolmpc/comm"
)

// SenderRCOT produces the sender side (x0, implicitly correlated to Δ) of n
// random correlated OTs.
type SenderRCOT interface {
	Rcot(n int) (block.Vector, error)
}

// ReceiverRCOT produces the receiver side (x_b for an RCOT-fixed random b)
// of n random correlated OTs.
type ReceiverRCOT interface {
	Rcot(n int) (block.Vector, error)
}

// core runs the shared RCOT-then-derandomize machinery: both legs of RCOT,
// the Δ-shifted second sender key, and the public flip bits that turn each
// RCOT's baked-in random bit into the caller's chosen bit.
type core struct {
	agent        *comm.Agent
	delta        block.Block
	senderRcot   SenderRCOT
	receiverRcot ReceiverRCOT
}

func (c *core) setup(choice []int) (x0h, x1h, xbh block.Vector, flip []int, err error) {
	n := len(choice)

	// The peer runs the two RCOTs in the opposite roles, so both legs run
	// concurrently.
	var x0 block.Vector
	senderErr := make(chan error, 1)
	go func() {
		var err error
		x0, err = c.senderRcot.Rcot(n)
		senderErr <- err
	}()
	xb, err := c.receiverRcot.Rcot(n)
	if serr := <-senderErr; serr != nil {
		return nil, nil, nil, nil, fmt.Errorf("bidirot: sender rcot: %w", serr)
	}
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("bidirot: receiver rcot: %w", err)
	}

	x1 := make(block.Vector, n)
	maskedChoice := make([]int, n)
	for i := 0; i < n; i++ {
		x1[i] = x0[i].Xor(c.delta)
		maskedChoice[i] = int(xb[i].Lsb()) ^ choice[i]
	}
	choiceErr := make(chan error, 1)
	go func() { choiceErr <- c.agent.SendBool(maskedChoice) }()
	flip, err = c.agent.ReceiveBool(n)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("bidirot: receiving flip indicator: %w", err)
	}
	if err := <-choiceErr; err != nil {
		return nil, nil, nil, nil, fmt.Errorf("bidirot: sending masked choice: %w", err)
	}

	return block.HashVector(x0), block.HashVector(x1), block.HashVector(xb), flip, nil
}

// BitOT is the bool-valued bidirectional OT, used to product-share single
// secret bits.
type BitOT struct{ core core }

func NewBitOT(agent *comm.Agent, delta block.Block, senderRcot SenderRCOT, receiverRcot ReceiverRCOT) *BitOT {
	return &BitOT{core: core{agent: agent, delta: delta, senderRcot: senderRcot, receiverRcot: receiverRcot}}
}

// BiDirectionOT runs len(input0) OTs at once: for each i the peer receives
// input0[i] if their choice[i] is 0, input1[i] if 1; this call receives the
// corresponding output for its own choice[i] from the peer's inputs.
func (o *BitOT) BiDirectionOT(input0, input1 []int, choice []int) ([]int, error) {
	x0h, x1h, xbh, flip, err := o.core.setup(choice)
	if err != nil {
		return nil, err
	}
	n := len(choice)

	masked0 := make([]int, n)
	masked1 := make([]int, n)
	for i := 0; i < n; i++ {
		k0, k1 := x0h[i], x1h[i]
		if flip[i] == 1 {
			k0, k1 = x1h[i], x0h[i]
		}
		masked0[i] = input0[i] ^ int(k0.Lsb())
		masked1[i] = input1[i] ^ int(k1.Lsb())
	}
	sendErr := make(chan error, 1)
	go func() {
		if err := o.core.agent.SendBool(masked0); err != nil {
			sendErr <- fmt.Errorf("bidirot: sending masked input0: %w", err)
		} else if err := o.core.agent.SendBool(masked1); err != nil {
			sendErr <- fmt.Errorf("bidirot: sending masked input1: %w", err)
		} else {
			sendErr <- nil
		}
	}()
	correction0, err := o.core.agent.ReceiveBool(n)
	if err != nil {
		return nil, fmt.Errorf("bidirot: receiving correction0: %w", err)
	}
	correction1, err := o.core.agent.ReceiveBool(n)
	if err != nil {
		return nil, fmt.Errorf("bidirot: receiving correction1: %w", err)
	}
	if err := <-sendErr; err != nil {
		return nil, err
	}

	out := make([]int, n)
	for i := 0; i < n; i++ {
		c := correction0[i]
		if choice[i] == 1 {
			c = correction1[i]
		}
		out[i] = int(xbh[i].Lsb()) ^ c
	}
	return out, nil
}

// U64OT is the uint64-valued bidirectional OT, used to product-share
// additive-mod-2^64 values.
type U64OT struct{ core core }

func NewU64OT(agent *comm.Agent, delta block.Block, senderRcot SenderRCOT, receiverRcot ReceiverRCOT) *U64OT {
	return &U64OT{core: core{agent: agent, delta: delta, senderRcot: senderRcot, receiverRcot: receiverRcot}}
}

func (o *U64OT) BiDirectionOT(input0, input1 []uint64, choice []int) ([]uint64, error) {
	x0h, x1h, xbh, flip, err := o.core.setup(choice)
	if err != nil {
		return nil, err
	}
	n := len(choice)

	masked0 := make([]uint64, n)
	masked1 := make([]uint64, n)
	for i := 0; i < n; i++ {
		k0, k1 := x0h[i], x1h[i]
		if flip[i] == 1 {
			k0, k1 = x1h[i], x0h[i]
		}
		lo0, _ := k0.Uint64s()
		lo1, _ := k1.Uint64s()
		masked0[i] = input0[i] - lo0
		masked1[i] = input1[i] - lo1
	}
	sendErr := make(chan error, 1)
	go func() {
		if err := o.core.agent.SendTyped(masked0); err != nil {
			sendErr <- fmt.Errorf("bidirot: sending masked input0: %w", err)
		} else if err := o.core.agent.SendTyped(masked1); err != nil {
			sendErr <- fmt.Errorf("bidirot: sending masked input1: %w", err)
		} else {
			sendErr <- nil
		}
	}()
	correction0, err := o.core.agent.ReceiveTyped(n)
	if err != nil {
		return nil, fmt.Errorf("bidirot: receiving correction0: %w", err)
	}
	correction1, err := o.core.agent.ReceiveTyped(n)
	if err != nil {
		return nil, fmt.Errorf("bidirot: receiving correction1: %w", err)
	}
	if err := <-sendErr; err != nil {
		return nil, err
	}

	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		lo, _ := xbh[i].Uint64s()
		c := correction0[i]
		if choice[i] == 1 {
			c = correction1[i]
		}
		out[i] = lo + c
	}
	return out, nil
}
