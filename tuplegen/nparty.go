package tuplegen

import (
	"fmt"
	"sort"

	"github.com/summitto/boolmpc/asyncbuf"
	"github.com/summitto/boolmpc/comm"
	"github.com/summitto/boolmpc/metrics"
	"github.com/summitto/boolmpc/prg"
	"github.com/summitto/boolmpc/prodshare"
	"github.com/summitto/boolmpc/utils"
)

// PeerShare pairs one peer's product-share generator with the comm.Agent it
// runs over, the latter kept only so NPartyGenerator can fold its traffic
// into TrafficStatistics.
type PeerShare struct {
	Gen   *prodshare.BoolGenerator
	Agent *comm.Agent
}

// NPartyGenerator generates Beaver triples for N >= 2 parties: every
// iteration samples fresh (a, b) locally, then folds in one product-share
// exchange per peer, run in ascending peer-id order for deterministic
// iteration, to assemble each triple's c share.
type NPartyGenerator struct {
	myPRG   *prg.PRG
	peers   map[int]*PeerShare
	peerIDs []int
	buf     *asyncbuf.Buffer[Triple]
	rec     metrics.Recorder
}

// NewNPartyGenerator builds an N-party generator. seed is this party's own
// PRG seed for sampling a/b (distinct from any peer product-share seed).
// bufferSize is the async buffer depth (16384 is a reasonable default).
func NewNPartyGenerator(seed *prg.PRG, peers map[int]*PeerShare, bufferSize int, rec metrics.Recorder) *NPartyGenerator {
	if rec == nil {
		rec = metrics.Noop
	}
	ids := make([]int, 0, len(peers))
	for id := range peers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	g := &NPartyGenerator{myPRG: seed, peers: peers, peerIDs: ids, rec: rec}
	g.buf = asyncbuf.New(bufferSize, g.generateTuples)
	return g
}

// GetBooleanTuple returns size fresh triples, per the Generator interface.
func (g *NPartyGenerator) GetBooleanTuple(size int) ([]Triple, error) {
	return g.buf.GetData(size)
}

func (g *NPartyGenerator) generateTuples(size int) ([]Triple, error) {
	a := g.myPRG.RandomBits(size)
	b := g.myPRG.RandomBits(size)
	c := make([]int, size)

	for _, id := range g.peerIDs {
		shares, err := g.peers[id].Gen.GenerateBooleanProductShares(a, b)
		if err != nil {
			return nil, fmt.Errorf("tuplegen: product shares with peer %d: %w", id, err)
		}
		utils.Assertf(len(shares) == size, "tuplegen: peer %d returned %d shares, want %d", id, len(shares), size)
		for i := range c {
			c[i] ^= shares[i]
		}
	}

	triples := make([]Triple, size)
	for i := range triples {
		triples[i] = NewTriple(a[i], b[i], (a[i]&b[i])^c[i])
	}
	g.rec.AddTuples(size)
	return triples, nil
}

// TrafficStatistics sums every peer agent's traffic counters.
func (g *NPartyGenerator) TrafficStatistics() (sent, received uint64) {
	for _, p := range g.peers {
		s, r := p.Agent.TrafficStats()
		sent += s
		received += r
	}
	return sent, received
}

// Close releases the async buffer's in-flight refill.
func (g *NPartyGenerator) Close() error {
	return g.buf.Close()
}
