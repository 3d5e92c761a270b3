package tuplegen

import (
	"fmt"

	"github.com/summitto/boolmpc/asyncbuf"
	"github.com/summitto/boolmpc/block"
	"github.com/summitto/boolmpc/comm"
	"github.com/summitto/boolmpc/metrics"
	"github.com/summitto/boolmpc/utils"
)

// RCOTSource is the minimal surface TwoPartyGenerator needs from whatever
// RCOT implementation it's wired with (iknp, ferret, ...): produce n random
// correlated OT outputs.
type RCOTSource interface {
	Rcot(n int) (block.Vector, error)
}

// TwoPartyGenerator is the dedicated N=2 path that skips the quadratic
// product-share construction and derives each triple directly from one
// RCOT exchange in each direction.
type TwoPartyGenerator struct {
	senderRcot   RCOTSource
	receiverRcot RCOTSource
	senderAgent  *comm.Agent
	receiverAgent *comm.Agent
	delta        block.Block

	buf *asyncbuf.Buffer[Triple]
	rec metrics.Recorder
}

// NewTwoPartyGenerator builds a two-party generator. senderRcot/receiverRcot
// are this party's two independent RCOT roles against the single peer (this
// party plays RCOT sender once and RCOT receiver once); senderAgent/
// receiverAgent are the comm.Agent instances backing them, kept only for
// TrafficStatistics.
func NewTwoPartyGenerator(senderRcot, receiverRcot RCOTSource, senderAgent, receiverAgent *comm.Agent, delta block.Block, bufferSize int, rec metrics.Recorder) *TwoPartyGenerator {
	utils.Assertf(delta.Lsb() == 1, "tuplegen: global correlation delta must have LSB 1")
	if rec == nil {
		rec = metrics.Noop
	}
	g := &TwoPartyGenerator{
		senderRcot: senderRcot, receiverRcot: receiverRcot,
		senderAgent: senderAgent, receiverAgent: receiverAgent,
		delta: delta, rec: rec,
	}
	g.buf = asyncbuf.New(bufferSize, g.generateTuples)
	return g
}

// GetBooleanTuple returns size fresh triples.
func (g *TwoPartyGenerator) GetBooleanTuple(size int) ([]Triple, error) {
	return g.buf.GetData(size)
}

// generateTuples derives each triple from one RCOT exchange per direction:
// each party computes a = lsb(H(k0)) ^ lsb(H(k1)), b = p, c = (a&b) ^
// lsb(H(k0)) ^ lsb(H(l_p)); XORing the two parties' outputs yields
// (A, B, A*B).
func (g *TwoPartyGenerator) generateTuples(size int) ([]Triple, error) {
	type recvResult struct {
		msgs block.Vector
		err  error
	}
	recvCh := make(chan recvResult, 1)
	go func() {
		msgs, err := g.receiverRcot.Rcot(size)
		recvCh <- recvResult{msgs, err}
	}()

	sender0, err := g.senderRcot.Rcot(size)
	if err != nil {
		return nil, fmt.Errorf("tuplegen: sender rcot: %w", err)
	}
	recv := <-recvCh
	if recv.err != nil {
		return nil, fmt.Errorf("tuplegen: receiver rcot: %w", recv.err)
	}
	receiverMessages := recv.msgs

	sender1 := make(block.Vector, size)
	choiceBits := make([]int, size)
	for i := 0; i < size; i++ {
		sender1[i] = sender0[i].Xor(g.delta)
		choiceBits[i] = int(receiverMessages[i].Lsb())
	}

	h0 := block.HashVector(sender0)
	h1 := block.HashVector(sender1)
	hr := block.HashVector(receiverMessages)

	triples := make([]Triple, size)
	for i := 0; i < size; i++ {
		a := int(h0[i].Lsb() ^ h1[i].Lsb())
		b := choiceBits[i]
		c := (a & b) ^ int(h0[i].Lsb()) ^ int(hr[i].Lsb())
		triples[i] = NewTriple(a, b, c)
	}
	g.rec.AddTuples(size)
	return triples, nil
}

// TrafficStatistics reports the sender- and receiver-role RCOT traffic,
// summed: sent is senderStats.sent + receiverStats.sent, and received is
// senderStats.received + receiverStats.received.
func (g *TwoPartyGenerator) TrafficStatistics() (sent, received uint64) {
	sentSender, recvSender := g.senderAgent.TrafficStats()
	sentReceiver, recvReceiver := g.receiverAgent.TrafficStats()
	sent = sentSender + sentReceiver
	received = recvSender + recvReceiver
	return sent, received
}

// Close releases the async buffer's in-flight refill.
func (g *TwoPartyGenerator) Close() error {
	return g.buf.Close()
}
