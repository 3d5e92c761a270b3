package baseot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/summitto/boolmpc/block"
	"github.com/summitto/boolmpc/comm"
	"github.com/summitto/boolmpc/entropy"
)

func pairedAgents(t *testing.T, tag string) (sender, receiver *comm.Agent) {
	t.Helper()
	host := comm.NewInMemoryHost()
	var err error
	sender, err = host.Create(1, tag)
	require.NoError(t, err)
	receiver, err = host.Create(0, tag)
	require.NoError(t, err)
	return sender, receiver
}

func TestReceiveYieldsChosenMessage(t *testing.T) {
	senderAgent, receiverAgent := pairedAgents(t, "np-ot")
	sender := NewSender(senderAgent, entropy.System)
	receiver := NewReceiver(receiverAgent, entropy.System)

	choice := []int{0, 1, 1, 0, 1, 0, 0, 1}

	var m0, m1 block.Vector
	var sendErr error
	done := make(chan struct{})
	go func() {
		m0, m1, sendErr = sender.Send(len(choice))
		close(done)
	}()

	out, err := receiver.Receive(choice)
	<-done
	require.NoError(t, sendErr)
	require.NoError(t, err)
	require.Len(t, out, len(choice))

	for i, b := range choice {
		if b == 0 {
			require.Equal(t, m0[i], out[i], "index %d", i)
		} else {
			require.Equal(t, m1[i], out[i], "index %d", i)
		}
	}
}

func TestSendRejectsOutOfRangeK(t *testing.T) {
	senderAgent, _ := pairedAgents(t, "np-ot-range")
	sender := NewSender(senderAgent, entropy.System)
	_, _, err := sender.Send(0)
	require.Error(t, err)
	_, _, err = sender.Send(MaxK + 1)
	require.Error(t, err)
}

func TestReceiveRejectsOutOfRangeK(t *testing.T) {
	_, receiverAgent := pairedAgents(t, "np-ot-range-2")
	receiver := NewReceiver(receiverAgent, entropy.System)
	_, err := receiver.Receive(nil)
	require.Error(t, err)
	_, err = receiver.Receive(make([]int, MaxK+1))
	require.Error(t, err)
}

func TestReceivePanicsOnInvalidChoiceBit(t *testing.T) {
	_, receiverAgent := pairedAgents(t, "np-ot-invalid")
	receiver := NewReceiver(receiverAgent, entropy.System)
	require.Panics(t, func() { receiver.Receive([]int{2}) })
}
