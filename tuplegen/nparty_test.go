package tuplegen

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/summitto/boolmpc/bidirot"
	"github.com/summitto/boolmpc/comm"
	"github.com/summitto/boolmpc/entropy"
	"github.com/summitto/boolmpc/insecure"
	"github.com/summitto/boolmpc/prg"
	"github.com/summitto/boolmpc/prodshare"
)

// buildNPartyMesh wires numParties NPartyGenerator instances into a full
// mesh of one prodshare.BoolGenerator pair per unordered {i, j}, each pair
// built the same way bidirot_test.go's crossedPair builds one: for every
// ordered pair (i, j) with i != j, parties i and j invoke the product-share
// generator against each other.
func buildNPartyMesh(t *testing.T, numParties int) []*NPartyGenerator {
	t.Helper()
	host := comm.NewInMemoryHost()

	peersByParty := make([]map[int]*PeerShare, numParties)
	for i := range peersByParty {
		peersByParty[i] = make(map[int]*PeerShare, numParties-1)
	}

	for i := 0; i < numParties; i++ {
		for j := i + 1; j < numParties; j++ {
			pairTag := fmt.Sprintf("%d-%d", i, j)

			ijChan, err := host.Create(j, pairTag+"-ij")
			require.NoError(t, err)
			jiChanForI, err := host.Create(j, pairTag+"-ji")
			require.NoError(t, err)
			coreChanI, err := host.Create(j, pairTag+"-core")
			require.NoError(t, err)

			jiChan, err := host.Create(i, pairTag+"-ji")
			require.NoError(t, err)
			ijChanForJ, err := host.Create(i, pairTag+"-ij")
			require.NoError(t, err)
			coreChanJ, err := host.Create(i, pairTag+"-core")
			require.NoError(t, err)

			deltaI := entropy.System.Block().SetLsbTo(1)
			deltaJ := entropy.System.Block().SetLsbTo(1)

			bitOTi := bidirot.NewBitOT(coreChanI, deltaI,
				insecure.NewInsecureSenderRCOT(ijChan, entropy.System),
				insecure.NewInsecureReceiverRCOT(jiChanForI, deltaJ, entropy.System))
			bitOTj := bidirot.NewBitOT(coreChanJ, deltaJ,
				insecure.NewInsecureSenderRCOT(jiChan, entropy.System),
				insecure.NewInsecureReceiverRCOT(ijChanForJ, deltaI, entropy.System))

			peersByParty[i][j] = &PeerShare{
				Gen:   prodshare.NewBoolGenerator(prg.New(entropy.System.Block()), bitOTi),
				Agent: coreChanI,
			}
			peersByParty[j][i] = &PeerShare{
				Gen:   prodshare.NewBoolGenerator(prg.New(entropy.System.Block()), bitOTj),
				Agent: coreChanJ,
			}
		}
	}

	gens := make([]*NPartyGenerator, numParties)
	for i := 0; i < numParties; i++ {
		gens[i] = NewNPartyGenerator(prg.New(entropy.System.Block()), peersByParty[i], 4, nil)
	}
	return gens
}

// TestNPartyGeneratorProducesValidTriples checks the correctness claim
// (XOR_i a_i * XOR_i b_i == XOR_i c_i) for N=3.
func TestNPartyGeneratorProducesValidTriples(t *testing.T) {
	const numParties = 3
	const n = 12
	gens := buildNPartyMesh(t, numParties)

	results := make([][]Triple, numParties)
	errs := make([]error, numParties)
	done := make(chan int, numParties)
	for i := range gens {
		go func(i int) {
			results[i], errs[i] = gens[i].GetBooleanTuple(n)
			done <- i
		}(i)
	}
	for range gens {
		<-done
	}
	for i, err := range errs {
		require.NoErrorf(t, err, "party %d", i)
	}
	for i := range results {
		require.Len(t, results[i], n)
	}

	for k := 0; k < n; k++ {
		a, b, c := 0, 0, 0
		for i := 0; i < numParties; i++ {
			a ^= results[i][k].A()
			b ^= results[i][k].B()
			c ^= results[i][k].C()
		}
		require.Equalf(t, a&b, c, "triple %d: c != a AND b", k)
	}
}
