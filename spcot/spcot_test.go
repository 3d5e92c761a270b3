package spcot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/summitto/boolmpc/block"
	"github.com/summitto/boolmpc/comm"
	"github.com/summitto/boolmpc/entropy"
)

// genBaseCOT builds depth correlated base-OT blocks: the sender's share
// always carries LSB 0 (the invariant every real RCOT sender preserves), so
// the receiver's share's LSB equals its choice bit directly. choice lists
// the receiver's per-level bit, MSB first in iteration order.
func genBaseCOT(choice []int, delta block.Block) (sender, receiver block.Vector) {
	sender = make(block.Vector, len(choice))
	receiver = make(block.Vector, len(choice))
	for i, c := range choice {
		sender[i] = entropy.System.Block().SetLsbTo(0)
		receiver[i] = sender[i]
		if c == 1 {
			receiver[i] = receiver[i].Xor(delta)
		}
	}
	return sender, receiver
}

func bootstrapAgents(t *testing.T) (senderAgent, receiverAgent *comm.Agent) {
	t.Helper()
	host := comm.NewInMemoryHost()
	var err error
	senderAgent, err = host.Create(1, "spcot")
	require.NoError(t, err)
	receiverAgent, err = host.Create(0, "spcot")
	require.NoError(t, err)
	return senderAgent, receiverAgent
}

// TestExtendAgreesExceptPuncturedLeaf checks that every leaf the receiver
// reconstructs matches the sender's except the punctured one, which
// instead equals the sender's leaf XOR delta.
func TestExtendAgreesExceptPuncturedLeaf(t *testing.T) {
	senderAgent, receiverAgent := bootstrapAgents(t)
	delta := entropy.System.Block().SetLsbTo(1)

	choice := []int{1, 0, 0, 1}
	senderBase, receiverBase := genBaseCOT(choice, delta)

	sender := NewSender(senderAgent, delta, entropy.System)
	receiver := NewReceiver(receiverAgent)

	type senderResult struct {
		out block.Vector
		err error
	}
	senderCh := make(chan senderResult, 1)
	go func() {
		out, err := sender.Extend(senderBase)
		senderCh <- senderResult{out, err}
	}()

	receiverOut, position, rErr := receiver.Extend(receiverBase)
	require.NoError(t, rErr)
	sRes := <-senderCh
	require.NoError(t, sRes.err)

	require.Len(t, sRes.out, 1<<len(choice))
	require.Len(t, receiverOut, 1<<len(choice))

	for i := range sRes.out {
		if i == position {
			require.Equal(t, sRes.out[i].Xor(delta), receiverOut[i], "punctured leaf %d", i)
		} else {
			require.Equal(t, sRes.out[i], receiverOut[i], "leaf %d", i)
		}
	}
}

// TestExtendPuncturePositionMatchesBaseCOTChoiceBits checks the documented
// bit-encoding rule: choice bits 1,0,0,1,0 (MSB first) puncture position
// (01101)_2 = 13; each position bit is the complement of the matching
// choice bit.
func TestExtendPuncturePositionMatchesBaseCOTChoiceBits(t *testing.T) {
	senderAgent, receiverAgent := bootstrapAgents(t)
	delta := entropy.System.Block().SetLsbTo(1)

	choice := []int{1, 0, 0, 1, 0}
	senderBase, receiverBase := genBaseCOT(choice, delta)

	receiver := NewReceiver(receiverAgent)

	senderDone := make(chan error, 1)
	go func() {
		sender := NewSender(senderAgent, delta, entropy.System)
		_, err := sender.Extend(senderBase)
		senderDone <- err
	}()

	_, position, rErr := receiver.Extend(receiverBase)
	require.NoError(t, rErr)
	<-senderDone

	require.Equal(t, 13, position)
}
