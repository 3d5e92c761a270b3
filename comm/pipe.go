package comm

import (
	"fmt"
	"net"
	"sync"

	"github.com/summitto/boolmpc/metrics"
)

// Factory builds a communication Agent on demand: Create(peerID,
// channelTag) -> agent. Concrete implementations decide how peerID maps
// to an actual byte stream (TCP dial/listen, an in-memory pipe for tests,
// ...); the engine and everything below it only ever sees the Agent
// interface methods.
type Factory interface {
	Create(peerID int, channelTag string) (*Agent, error)
}

// InMemoryHost hands out Agent pairs backed by net.Pipe, for unit tests and
// single-process demos that exercise the protocol without real networking.
type InMemoryHost struct {
	mu    sync.Mutex
	slots map[string]net.Conn // channelTag -> the half waiting to be paired
}

func NewInMemoryHost() *InMemoryHost {
	return &InMemoryHost{slots: make(map[string]net.Conn)}
}

// Create returns an Agent for channelTag. The first caller for a given tag
// gets one end of a fresh net.Pipe and returns at once; the second caller
// with the same tag gets the other end, connecting the two back to back.
// The tag is then free again: a third Create with it starts a new pair, and
// such reuse is not reported as an error.
func (h *InMemoryHost) Create(peerID int, channelTag string) (*Agent, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if half, ok := h.slots[channelTag]; ok {
		delete(h.slots, channelTag)
		return New(peerID, channelTag, half, metrics.NewCounting()), nil
	}

	a, b := net.Pipe()
	if _, taken := h.slots[channelTag]; taken {
		return nil, fmt.Errorf("comm: channel tag %q already pending", channelTag)
	}
	h.slots[channelTag] = b
	return New(peerID, channelTag, a, metrics.NewCounting()), nil
}

// TCPFactory dials or listens for a single peer over plain TCP. Layering
// TLS or another confidentiality/integrity guarantee on top is the caller's
// responsibility.
type TCPFactory struct {
	peerID int
	dial   func() (net.Conn, error)
}

// NewTCPDialFactory creates a Factory that dials addr for every channel.
func NewTCPDialFactory(peerID int, addr string) *TCPFactory {
	return &TCPFactory{peerID: peerID, dial: func() (net.Conn, error) { return net.Dial("tcp", addr) }}
}

// NewTCPListenFactory creates a Factory that accepts one connection per
// Create call on ln.
func NewTCPListenFactory(peerID int, ln net.Listener) *TCPFactory {
	return &TCPFactory{peerID: peerID, dial: func() (net.Conn, error) { return ln.Accept() }}
}

func (f *TCPFactory) Create(peerID int, channelTag string) (*Agent, error) {
	conn, err := f.dial()
	if err != nil {
		return nil, fmt.Errorf("comm: establishing channel %q with peer %d: %w", channelTag, peerID, err)
	}
	return New(peerID, channelTag, conn, metrics.NewCounting()), nil
}
