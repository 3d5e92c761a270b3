package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/summitto/boolmpc/comm"
	"github.com/summitto/boolmpc/insecure"
)

// buildEngines wires numParties Engines into a full mesh of comm.Agent pairs
// and a DummyTupleGenerator per party. These tests exercise gate-scheduling
// semantics, not triple-generation cryptography: see
// insecure.DummyTupleGenerator's doc comment for why an all-zero triple is a
// valid, if useless, Beaver triple, so AND-gate correctness still holds end
// to end.
func buildEngines(t *testing.T, numParties int) []*Engine {
	t.Helper()
	host := comm.NewInMemoryHost()

	peerAgents := make([]map[int]*comm.Agent, numParties)
	for i := range peerAgents {
		peerAgents[i] = make(map[int]*comm.Agent, numParties-1)
	}
	for i := 0; i < numParties; i++ {
		for j := i + 1; j < numParties; j++ {
			tag := fmt.Sprintf("engine-%d-%d", i, j)
			ai, err := host.Create(j, tag)
			require.NoError(t, err)
			aj, err := host.Create(i, tag)
			require.NoError(t, err)
			peerAgents[i][j] = ai
			peerAgents[j][i] = aj
		}
	}

	engines := make([]*Engine, numParties)
	errs := make([]error, numParties)
	done := make(chan int, numParties)
	for i := 0; i < numParties; i++ {
		go func(i int) {
			e, err := New(i, numParties, insecure.NewInsecureTupleGenerator(), peerAgents[i], nil, nil)
			engines[i], errs[i] = e, err
			done <- i
		}(i)
	}
	for range engines {
		<-done
	}
	for i, err := range errs {
		require.NoErrorf(t, err, "party %d", i)
	}
	return engines
}

// twoPartyAND has party 0 input a and party 1 input b, schedules a single
// scalar AND of the two masked inputs, executes it, and reveals the result
// to party 0. Returns party 0's reconstructed bit.
func twoPartyAND(t *testing.T, a, b int) int {
	t.Helper()
	engines := buildEngines(t, 2)

	results := make([]int, 2)
	errs := make([]error, 2)
	done := make(chan int, 2)
	for i, e := range engines {
		go func(i int, e *Engine) {
			defer func() { done <- i }()
			var mine *int
			if i == 0 {
				v := a
				mine = &v
			} else {
				v := b
				mine = &v
			}
			share0 := e.SetInput(0, ternary(i == 0, mine, nil))
			share1 := e.SetInput(1, ternary(i == 1, mine, nil))
			idx := e.ScheduleAND(share0, share1)
			if err := e.ExecuteScheduledAND(); err != nil {
				errs[i] = err
				return
			}
			out, err := e.RevealToParty(0, []int{e.GetANDResult(idx)})
			if err != nil {
				errs[i] = err
				return
			}
			if i == 0 {
				results[i] = out[0]
			}
		}(i, e)
	}
	for range engines {
		<-done
	}
	for i, err := range errs {
		require.NoErrorf(t, err, "party %d", i)
	}
	return results[0]
}

func ternary(cond bool, v *int, fallback *int) *int {
	if cond {
		return v
	}
	return fallback
}

// TestTwoPartyAND checks a single non-free AND gate end to end: P0 sets
// a=1, P1 sets b=1, one non-free AND revealed to P0 is 1; with b=0 it is 0.
func TestTwoPartyAND(t *testing.T) {
	require.Equal(t, 1, twoPartyAND(t, 1, 1))
	require.Equal(t, 0, twoPartyAND(t, 1, 0))
}

// TestThreePartyBatchXORThenAND checks a free-XOR-then-AND batch gate chain
// across three parties: x = P0 XOR P1, y = x AND P2, revealed to party 0,
// expecting [1,1,0,1].
func TestThreePartyBatchXORThenAND(t *testing.T) {
	engines := buildEngines(t, 3)

	inputs := [][]int{
		{1, 0, 1, 1},
		{0, 1, 1, 0},
		{1, 1, 0, 1},
	}
	want := []int{1, 1, 0, 1}

	results := make([][]int, 3)
	errs := make([]error, 3)
	done := make(chan int, 3)
	for i, e := range engines {
		go func(i int, e *Engine) {
			defer func() { done <- i }()
			p0 := e.SetBatchInput(0, cloneOrNil(i == 0, inputs[0]))
			p1 := e.SetBatchInput(1, cloneOrNil(i == 1, inputs[1]))
			p2 := e.SetBatchInput(2, cloneOrNil(i == 2, inputs[2]))

			x := e.BatchSymmetricXOR(p0, p1)
			y, err := e.ComputeBatchAND(x, p2)
			if err != nil {
				errs[i] = err
				return
			}
			out, err := e.RevealToParty(0, y)
			if err != nil {
				errs[i] = err
				return
			}
			if i == 0 {
				results[i] = out
			}
		}(i, e)
	}
	for range engines {
		<-done
	}
	for i, err := range errs {
		require.NoErrorf(t, err, "party %d", i)
	}
	require.Equal(t, want, results[0])
}

// cloneOrNil returns v's owner-supplied value when mine is true; otherwise
// it returns a same-length placeholder, since SetBatchInput only reads the
// length of a peer's input: the incoming-mask PRG's content, not the
// placeholder's, is what's actually consumed.
func cloneOrNil(mine bool, v []int) []int {
	if mine {
		return append([]int(nil), v...)
	}
	return make([]int, len(v))
}

// TestRevealToPartyFourParties checks reveal-to-one-party with four parties:
// each inputs one bit so their XOR is 1; revealing to party 2 gives party 2
// the value 1, while every other party's own share is echoed back unchanged.
func TestRevealToPartyFourParties(t *testing.T) {
	engines := buildEngines(t, 4)
	inputBits := []int{1, 0, 0, 0} // XOR = 1

	shares := make([]int, 4)
	results := make([][]int, 4)
	errs := make([]error, 4)
	done := make(chan int, 4)
	for i, e := range engines {
		go func(i int, e *Engine) {
			defer func() { done <- i }()
			// Every party takes part in every input, so shares[i] is party
			// i's share of the XOR of all four inputs.
			for j := range engines {
				var mine *int
				if j == i {
					v := inputBits[i]
					mine = &v
				}
				shares[i] ^= e.SetInput(j, mine)
			}
			out, err := e.RevealToParty(2, []int{shares[i]})
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = out
		}(i, e)
	}
	for range engines {
		<-done
	}
	for i, err := range errs {
		require.NoErrorf(t, err, "party %d", i)
	}

	require.Equal(t, []int{1}, results[2])
	for i := range engines {
		if i == 2 {
			continue
		}
		require.Equal(t, []int{shares[i]}, results[i], "party %d should see its own share echoed back", i)
	}
}

// TestExecuteScheduledANDEmptyIsNoOp checks the boundary case: calling
// ExecuteScheduledAND with nothing queued does not error or block, and
// SetBatchInput with an empty value returns an empty slice without
// advancing any PRG or touching the network.
func TestExecuteScheduledANDEmptyIsNoOp(t *testing.T) {
	engines := buildEngines(t, 2)
	for _, e := range engines {
		require.NoError(t, e.ExecuteScheduledAND())
		require.Equal(t, []int{}, e.SetBatchInput(0, nil))
	}
}
