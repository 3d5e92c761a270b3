// Package comm implements a pairwise party communication agent: typed
// send/recv of byte/bit/block vectors over an abstract reliable,
// confidential byte stream, plus the traffic counters every layer above it
// reports through.
package comm

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/sixafter/nanoid"
	"github.com/zeebo/blake3"

	"github.com/summitto/boolmpc/metrics"
	"github.com/summitto/boolmpc/utils"
)

// Agent is a pairwise byte-oriented channel. All sends are FIFO; the
// receiver observes the same sequence of logical messages the sender wrote.
type Agent struct {
	peerID    int
	tag       string
	rw        io.ReadWriter
	rec       metrics.Recorder
	mu        sync.Mutex // serializes writes; reads are single-reader by contract
	digestMu  sync.Mutex // digest is fed from both Send and Receive, on different goroutines
	digest    *blake3.Hasher
}

// New wraps rw (a reliable, confidential byte stream; transport and TLS are
// the caller's responsibility) as an Agent for peerID, tagged for logging.
func New(peerID int, tag string, rw io.ReadWriter, rec metrics.Recorder) *Agent {
	if rec == nil {
		rec = metrics.Noop
	}
	return &Agent{peerID: peerID, tag: tag, rw: rw, rec: rec, digest: blake3.New()}
}

// NewAutoTagged is New with a nanoid-suffixed tag, used when a component
// (e.g. the Ferret extender handing its channel to the next bootstrap
// owner) needs a fresh, collision-free log tag without a caller-supplied
// name.
func NewAutoTagged(peerID int, prefix string, rw io.ReadWriter, rec metrics.Recorder) (*Agent, error) {
	suffix, err := nanoid.New()
	if err != nil {
		return nil, fmt.Errorf("comm: generating channel tag: %w", err)
	}
	return New(peerID, prefix+"-"+suffix, rw, rec), nil
}

// PeerID returns the id of the party on the other end of this agent.
func (a *Agent) PeerID() int { return a.peerID }

// Tag returns the free-form channel tag, and its short fingerprint for
// compact logging.
func (a *Agent) Tag() string             { return a.tag }
func (a *Agent) TagFingerprint() string  { return metrics.Fingerprint(a.tag) }

// Send writes the exact bytes of b to the peer.
func (a *Agent) Send(b []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	n, err := a.rw.Write(b)
	a.rec.AddBytesSent(n)
	a.feedDigest(b[:n])
	if err != nil {
		return fmt.Errorf("comm: send to peer %d (%s): %w", a.peerID, a.tag, err)
	}
	if n != len(b) {
		return fmt.Errorf("comm: short write to peer %d: wrote %d of %d bytes", a.peerID, n, len(b))
	}
	return nil
}

// Receive reads exactly n bytes from the peer.
func (a *Agent) Receive(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(a.rw, buf)
	a.rec.AddBytesReceived(read)
	a.feedDigest(buf[:read])
	if err != nil {
		return nil, fmt.Errorf("comm: receive from peer %d (%s): %w", a.peerID, a.tag, err)
	}
	return buf, nil
}

// feedDigest mixes b into the agent's running session digest.
func (a *Agent) feedDigest(b []byte) {
	a.digestMu.Lock()
	a.digest.Write(b) //nolint:errcheck // blake3.Hasher.Write never returns an error
	a.digestMu.Unlock()
}

// SessionDigest returns the current blake3 digest of every byte sent or
// received on this agent so far, truncated to a short hex fingerprint. It is
// a debug-only tool for log correlation across peers (e.g. confirming two
// parties observed the same message sequence up to a given point); the
// protocol itself never inspects it.
func (a *Agent) SessionDigest() string {
	a.digestMu.Lock()
	sum := a.digest.Sum(nil)
	a.digestMu.Unlock()
	return fmt.Sprintf("%x", sum[:8])
}

// SendBool packs n bits MSB-first into ceil(n/8) bytes, padding the last
// byte on the low end.
func (a *Agent) SendBool(bits []int) error {
	return a.Send(PackBitsMSBFirst(bits))
}

// ReceiveBool receives n bits packed as SendBool writes them.
func (a *Agent) ReceiveBool(n int) ([]int, error) {
	raw, err := a.Receive(utils.CeilDiv(n, 8))
	if err != nil {
		return nil, err
	}
	return UnpackBitsMSBFirst(raw, n), nil
}

// SendTyped reinterprets v as its little-endian byte layout and sends it.
// Every typed send uses this one little-endian layout, documented here so
// there is no ambiguity between hosts with different native byte orders.
func (a *Agent) SendTyped(v []uint64) error {
	buf := make([]byte, len(v)*8)
	for i, x := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], x)
	}
	return a.Send(buf)
}

// ReceiveTyped is the inverse of SendTyped.
func (a *Agent) ReceiveTyped(n int) ([]uint64, error) {
	raw, err := a.Receive(n * 8)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(raw[i*8:])
	}
	return out, nil
}

// TrafficStats reports (sent, received) monotonic byte counters if the
// underlying recorder tracks them; otherwise both are zero. In particular,
// an Agent built with the default metrics.Noop sink always reports 0, 0
// here and at every TrafficStatistics() walk above it in engine/tuplegen:
// that's the no-op-sink contract working as intended, not a lost counter.
// Callers that need real numbers must construct the Agent with a
// *metrics.Counting recorder.
func (a *Agent) TrafficStats() (sent, received uint64) {
	if c, ok := a.rec.(*metrics.Counting); ok {
		return c.TrafficStats()
	}
	return 0, 0
}

// PackBitsMSBFirst packs bits (0/1 values) MSB-first into bytes, padding
// the trailing byte on the low end.
func PackBitsMSBFirst(bits []int) []byte {
	out := make([]byte, utils.CeilDiv(len(bits), 8))
	for i, b := range bits {
		if b != 0 {
			out[i/8] |= 1 << (7 - uint(i%8))
		}
	}
	return out
}

// UnpackBitsMSBFirst is the inverse of PackBitsMSBFirst, truncating to n
// bits and discarding the trailing padding.
func UnpackBitsMSBFirst(raw []byte, n int) []int {
	out := make([]int, n)
	for i := 0; i < n; i++ {
		if raw[i/8]&(1<<(7-uint(i%8))) != 0 {
			out[i] = 1
		}
	}
	return out
}
