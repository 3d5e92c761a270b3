package tuplegen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/summitto/boolmpc/block"
	"github.com/summitto/boolmpc/comm"
	"github.com/summitto/boolmpc/entropy"
	"github.com/summitto/boolmpc/insecure"
)

// TestTwoPartyGeneratorTrafficStatisticsUsesCorrectedFormula checks that
// received traffic is senderStats.received + receiverStats.received, not a
// copy-paste swap with the sent counter. This test picks sent/received
// counts that diverge from each other so the two formulas give different
// answers.
func TestTwoPartyGeneratorTrafficStatisticsUsesCorrectedFormula(t *testing.T) {
	host := comm.NewInMemoryHost()
	sAgent, err := host.Create(1, "s")
	require.NoError(t, err)
	sPeer, err := host.Create(0, "s")
	require.NoError(t, err)
	rAgent, err := host.Create(1, "r")
	require.NoError(t, err)
	rPeer, err := host.Create(0, "r")
	require.NoError(t, err)

	go func() {
		_, _ = sPeer.Receive(10)
		_ = sPeer.Send(make([]byte, 20))
	}()
	require.NoError(t, sAgent.Send(make([]byte, 10)))
	_, err = sAgent.Receive(20)
	require.NoError(t, err)

	go func() {
		_, _ = rPeer.Receive(300)
		_ = rPeer.Send(make([]byte, 4000))
	}()
	require.NoError(t, rAgent.Send(make([]byte, 300)))
	_, err = rAgent.Receive(4000)
	require.NoError(t, err)

	g := &TwoPartyGenerator{senderAgent: sAgent, receiverAgent: rAgent}
	sent, received := g.TrafficStatistics()

	require.Equal(t, uint64(310), sent)      // 10 (sender sent) + 300 (receiver sent)
	require.Equal(t, uint64(4020), received) // 20 (sender recv) + 4000 (receiver recv), corrected

	buggyReceived := uint64(10 + 4000) // senderStats.sent + receiverStats.received, the swapped reading
	require.NotEqual(t, buggyReceived, received)
}

// crossedTwoParty wires two TwoPartyGenerator instances, P and Q, each
// playing RCOT sender toward the other on one channel and RCOT receiver on
// the other: each party acts as RCOT sender once and RCOT receiver once
// against the peer.
func crossedTwoParty(t *testing.T) (p, q *TwoPartyGenerator) {
	t.Helper()
	host := comm.NewInMemoryHost()

	pSendsQ, err := host.Create(1, "p-sends")
	require.NoError(t, err)
	qRecvsP, err := host.Create(0, "p-sends")
	require.NoError(t, err)

	qSendsP, err := host.Create(0, "q-sends")
	require.NoError(t, err)
	pRecvsQ, err := host.Create(1, "q-sends")
	require.NoError(t, err)

	deltaP := entropy.System.Block().SetLsbTo(1)
	deltaQ := entropy.System.Block().SetLsbTo(1)

	p = NewTwoPartyGenerator(
		insecure.NewInsecureSenderRCOT(pSendsQ, entropy.System),
		insecure.NewInsecureReceiverRCOT(pRecvsQ, deltaQ, entropy.System),
		pSendsQ, pRecvsQ, deltaP, 8, nil,
	)
	q = NewTwoPartyGenerator(
		insecure.NewInsecureSenderRCOT(qSendsP, entropy.System),
		insecure.NewInsecureReceiverRCOT(qRecvsP, deltaP, entropy.System),
		qSendsP, qRecvsP, deltaQ, 8, nil,
	)
	return p, q
}

// TestTwoPartyGeneratorProducesValidTriples checks that XOR-ing the two
// parties' (a, b, c) shares yields a valid Beaver triple, c = a AND b.
func TestTwoPartyGeneratorProducesValidTriples(t *testing.T) {
	p, q := crossedTwoParty(t)

	const n = 20
	var pTriples, qTriples []Triple
	var pErr, qErr error
	done := make(chan struct{}, 2)
	go func() { pTriples, pErr = p.GetBooleanTuple(n); done <- struct{}{} }()
	go func() { qTriples, qErr = q.GetBooleanTuple(n); done <- struct{}{} }()
	<-done
	<-done

	require.NoError(t, pErr)
	require.NoError(t, qErr)
	require.Len(t, pTriples, n)
	require.Len(t, qTriples, n)

	for i := 0; i < n; i++ {
		a := pTriples[i].A() ^ qTriples[i].A()
		b := pTriples[i].B() ^ qTriples[i].B()
		c := pTriples[i].C() ^ qTriples[i].C()
		require.Equalf(t, a&b, c, "triple %d: c != a AND b", i)
	}
}

// TestNewTwoPartyGeneratorRejectsBadDelta checks that the global correlation
// delta invariant (LSB forced to 1) is enforced as a construction-time
// configuration error.
func TestNewTwoPartyGeneratorRejectsBadDelta(t *testing.T) {
	host := comm.NewInMemoryHost()
	a, err := host.Create(1, "x")
	require.NoError(t, err)
	_, err = host.Create(0, "x")
	require.NoError(t, err)

	badDelta := block.Block{}.SetLsbTo(0)
	require.Panics(t, func() {
		NewTwoPartyGenerator(
			insecure.NewInsecureSenderRCOT(a, entropy.System),
			insecure.NewInsecureReceiverRCOT(a, badDelta, entropy.System),
			a, a, badDelta, 8, nil,
		)
	})
}
