package seedagree

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/summitto/boolmpc/block"
	"github.com/summitto/boolmpc/comm"
	"github.com/summitto/boolmpc/entropy"
	"github.com/summitto/boolmpc/utils"
)

func TestAgreeMatchesAndXors(t *testing.T) {
	host := comm.NewInMemoryHost()
	a0, err := host.Create(1, "seed-test")
	require.NoError(t, err)
	a1, err := host.Create(0, "seed-test")
	require.NoError(t, err)

	var senderSeed, receiverSeed block.Block
	var senderErr, receiverErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		senderSeed, senderErr = Agree(a0, nil, true)
	}()
	go func() {
		defer wg.Done()
		receiverSeed, receiverErr = Agree(a1, nil, false)
	}()
	wg.Wait()

	require.NoError(t, senderErr)
	require.NoError(t, receiverErr)
	require.Equal(t, senderSeed, receiverSeed)
}

// TestAgreeTamperedShareAborts checks that when the sender commits to (s1,
// salt) but then opens a different s1', the receiver aborts with a
// hash-mismatch error instead of silently accepting s1'.
func TestAgreeTamperedShareAborts(t *testing.T) {
	host := comm.NewInMemoryHost()
	a0, err := host.Create(1, "seed-tamper")
	require.NoError(t, err)
	a1, err := host.Create(0, "seed-tamper")
	require.NoError(t, err)

	var receiverErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = tamperingSender(a0)
	}()
	go func() {
		defer wg.Done()
		_, receiverErr = Agree(a1, nil, false)
	}()
	wg.Wait()

	require.Error(t, receiverErr)
}

// tamperingSender replays agreeSender's wire steps but substitutes a
// different share than the one it committed to, then discards its own
// result (this party deviated from the protocol; only the honest receiver's
// return value matters for the assertion above).
func tamperingSender(agent *comm.Agent) error {
	ent := entropy.System
	share := ent.Block()
	tampered := ent.Block()
	salt := ent.Block()
	digest := utils.Sha256(utils.Concat(share.Bytes(), salt.Bytes()))

	if err := agent.Send(digest); err != nil {
		return err
	}
	if _, err := agent.Receive(block.Size); err != nil {
		return err
	}
	return agent.Send(block.ToBytes(block.Vector{tampered, salt}))
}
