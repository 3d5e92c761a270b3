package comm

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/summitto/boolmpc/metrics"
)

func pipeAgents() (a, b *Agent) {
	c1, c2 := net.Pipe()
	rec := metrics.NewCounting()
	return New(1, "t", c1, rec), New(0, "t", c2, metrics.Noop)
}

func TestSendReceiveRoundTrip(t *testing.T) {
	a, b := pipeAgents()
	payload := []byte{1, 2, 3, 4, 5}
	errCh := make(chan error, 1)
	go func() { errCh <- a.Send(payload) }()
	got, err := b.Receive(len(payload))
	require.NoError(t, err)
	require.NoError(t, <-errCh)
	require.Equal(t, payload, got)
}

func TestSendBoolReceiveBoolRoundTrip(t *testing.T) {
	a, b := pipeAgents()
	bits := []int{1, 0, 1, 1, 0, 0, 1, 0, 1}
	errCh := make(chan error, 1)
	go func() { errCh <- a.SendBool(bits) }()
	got, err := b.ReceiveBool(len(bits))
	require.NoError(t, err)
	require.NoError(t, <-errCh)
	require.Equal(t, bits, got)
}

func TestSendTypedReceiveTypedRoundTrip(t *testing.T) {
	a, b := pipeAgents()
	values := []uint64{1, 0xffffffffffffffff, 0x0102030405060708}
	errCh := make(chan error, 1)
	go func() { errCh <- a.SendTyped(values) }()
	got, err := b.ReceiveTyped(len(values))
	require.NoError(t, err)
	require.NoError(t, <-errCh)
	require.Equal(t, values, got)
}

func TestTrafficStatsTracksBytes(t *testing.T) {
	a, b := pipeAgents()
	payload := make([]byte, 32)
	go a.Send(payload)
	_, err := b.Receive(len(payload))
	require.NoError(t, err)

	sent, received := a.TrafficStats()
	require.Equal(t, uint64(32), sent)
	require.Equal(t, uint64(0), received)
}

func TestPackUnpackBitsMSBFirst(t *testing.T) {
	bits := []int{1, 1, 0, 0, 1, 0, 1, 0, 1}
	packed := PackBitsMSBFirst(bits)
	require.Equal(t, bits, UnpackBitsMSBFirst(packed, len(bits)))
}

func TestNewAutoTaggedProducesDistinctTags(t *testing.T) {
	c1, _ := net.Pipe()
	a1, err := NewAutoTagged(0, "ferret", c1, metrics.Noop)
	require.NoError(t, err)
	c2, _ := net.Pipe()
	a2, err := NewAutoTagged(0, "ferret", c2, metrics.Noop)
	require.NoError(t, err)
	require.NotEqual(t, a1.Tag(), a2.Tag())
}

func TestSessionDigestMatchesAcrossPeersAndAdvances(t *testing.T) {
	a, b := pipeAgents()
	before := a.SessionDigest()
	require.Equal(t, before, b.SessionDigest()) // both start from an empty transcript

	payload := []byte("correlated transcript bytes")
	errCh := make(chan error, 1)
	go func() { errCh <- a.Send(payload) }()
	_, err := b.Receive(len(payload))
	require.NoError(t, err)
	require.NoError(t, <-errCh)

	after := a.SessionDigest()
	require.NotEqual(t, before, after)
	require.Equal(t, after, b.SessionDigest()) // sender and receiver observed the same bytes
}

func TestInMemoryHostPairsAgentsByTag(t *testing.T) {
	host := NewInMemoryHost()
	a, err := host.Create(1, "pair-a")
	require.NoError(t, err)
	b, err := host.Create(0, "pair-a")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- a.Send([]byte("hi")) }()
	got, err := b.Receive(2)
	require.NoError(t, err)
	require.NoError(t, <-errCh)
	require.Equal(t, []byte("hi"), got)
}
