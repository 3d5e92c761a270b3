// Package engine implements the secret-share engine: the gate API an
// application calls to mask inputs, compute free XOR/NOT/AND gates locally,
// batch non-free AND gates through a Beaver-triple opening round, and reveal
// results to one or all parties. Everything below it (OT, tuple generation)
// is dependency-injected.
package engine

import (
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"

	"github.com/summitto/boolmpc/block"
	"github.com/summitto/boolmpc/comm"
	"github.com/summitto/boolmpc/entropy"
	"github.com/summitto/boolmpc/metrics"
	"github.com/summitto/boolmpc/prg"
	"github.com/summitto/boolmpc/tuplegen"
	"github.com/summitto/boolmpc/utils"
)

// scheduledAND is a queued scalar AND gate.
type scheduledAND struct{ left, right int }

type scheduledBatchAND struct{ left, right []int }

// Engine implements the gate API: input masking, free local gates,
// scheduled-AND batching through the tuple generator, and reveal.
type Engine struct {
	myID        int
	numParties  int
	tupleGen    tuplegen.Generator
	comm        *Communicator
	rec         metrics.Recorder

	// One PRG pair per peer: outgoing masks this party's own inputs;
	// incoming mirrors the peer's masking of its inputs, so this party can
	// locally derive what randomness the peer used without a fresh round
	// trip per input.
	outgoingPRG map[int]*prg.PRG
	incomingPRG map[int]*prg.PRG

	scheduledAND      []scheduledAND
	scheduledBatchAND []scheduledBatchAND
	// results[0] holds the scalar FIFO's outputs; results[1:] hold the
	// batch FIFO's outputs in submission order.
	results [][]int
}

// New builds an Engine. peerAgents must contain exactly one comm.Agent per
// other party (keyed by peer id); communicator wraps the same map for the
// opening primitives. The input-mask PRG bootstrap (one fresh block
// exchanged per peer) runs synchronously inside New.
func New(myID, numParties int, tupleGen tuplegen.Generator, peerAgents map[int]*comm.Agent, ent entropy.Source, rec metrics.Recorder) (*Engine, error) {
	if rec == nil {
		rec = metrics.Noop
	}
	if ent == nil {
		ent = entropy.System
	}
	e := &Engine{
		myID: myID, numParties: numParties,
		tupleGen: tupleGen,
		comm:     NewCommunicator(myID, peerAgents),
		rec:      rec,
		outgoingPRG: make(map[int]*prg.PRG, len(peerAgents)),
		incomingPRG: make(map[int]*prg.PRG, len(peerAgents)),
		results:     [][]int{{}},
	}

	type seedResult struct {
		id   int
		sent block.Block
		recv block.Block
		err  error
	}
	ch := make(chan seedResult, len(peerAgents))
	for id, agent := range peerAgents {
		go func(id int, agent *comm.Agent) {
			mySeed := ent.Block()
			// Both ends send first, so the send runs beside the receive.
			sendErr := make(chan error, 1)
			go func() { sendErr <- agent.Send(mySeed.Bytes()) }()
			raw, err := agent.Receive(block.Size)
			if err != nil {
				ch <- seedResult{id: id, err: fmt.Errorf("engine: receiving input-mask seed from peer %d: %w", id, err)}
				return
			}
			if err := <-sendErr; err != nil {
				ch <- seedResult{id: id, err: fmt.Errorf("engine: sending input-mask seed to peer %d: %w", id, err)}
				return
			}
			ch <- seedResult{id: id, sent: mySeed, recv: block.FromBytes(raw)}
		}(id, agent)
	}
	for range peerAgents {
		res := <-ch
		if res.err != nil {
			return nil, res.err
		}
		e.outgoingPRG[res.id] = prg.New(deriveInputMaskKey(res.sent, e.myID, res.id))
		e.incomingPRG[res.id] = prg.New(deriveInputMaskKey(res.recv, res.id, e.myID))
	}
	return e, nil
}

// deriveInputMaskKey turns a raw block exchanged between two parties into
// the PRG key that masks fromID's inputs toward toID, via HKDF-Expand
// domain-separated by that ordered pair. The owner's outgoing PRG and the
// recipient's incoming PRG start from the same raw block and the same pair,
// so they derive the same key, while a raw block can never double as the
// masking key of another pair or of the opposite direction.
func deriveInputMaskKey(raw block.Block, fromID, toID int) block.Block {
	info := []byte(fmt.Sprintf("boolmpc/engine/input-mask/from-%d/to-%d", fromID, toID))
	r := hkdf.New(sha256.New, raw.Bytes(), nil, info)
	out := make([]byte, block.Size)
	if _, err := io.ReadFull(r, out); err != nil {
		panic(err) // HKDF-Expand over a fixed 16-byte output never fails.
	}
	return block.FromBytes(out)
}

// SetInput masks v (this party's own secret bit) with one bit from every
// peer's outgoing PRG, or, for a peer's own input, returns one bit from
// that peer's incoming PRG, locally reproducing the mask it will have
// applied. v is required (non-nil) when id == myID.
func (e *Engine) SetInput(id int, v *int) int {
	if id == e.myID {
		utils.Assertf(v != nil, "engine: SetInput requires a value when id == myID")
		rst := *v & 1
		for _, g := range e.outgoingPRG {
			rst ^= g.RandomBits(1)[0]
		}
		return rst
	}
	g, ok := e.incomingPRG[id]
	utils.Assertf(ok, "engine: no incoming PRG for peer %d", id)
	return g.RandomBits(1)[0]
}

// SetBatchInput is the batched form of SetInput. An empty v is a no-op:
// returns an empty slice without advancing any PRG.
func (e *Engine) SetBatchInput(id int, v []int) []int {
	size := len(v)
	if size == 0 {
		return []int{}
	}
	if id == e.myID {
		rst := append([]int(nil), v...)
		for _, g := range e.outgoingPRG {
			mask := g.RandomBits(size)
			for i := range rst {
				rst[i] ^= mask[i]
			}
		}
		return rst
	}
	g, ok := e.incomingPRG[id]
	utils.Assertf(ok, "engine: no incoming PRG for peer %d", id)
	return g.RandomBits(size)
}

// --- free (local, no communication) gates ---

func (e *Engine) SymmetricXOR(left, right int) int { return left ^ right }

func (e *Engine) BatchSymmetricXOR(left, right []int) []int {
	mustMatchLen(left, right)
	if len(left) == 0 {
		return []int{}
	}
	out := make([]int, len(left))
	for i := range out {
		out[i] = left[i] ^ right[i]
	}
	return out
}

// AsymmetricXOR applies a public-constant XOR: only party 0 actually XORs;
// every other party's share is already correct as-is.
func (e *Engine) AsymmetricXOR(left, right int) int {
	if e.myID == 0 {
		return left ^ right
	}
	return left
}

func (e *Engine) BatchAsymmetricXOR(left, right []int) []int {
	mustMatchLen(left, right)
	if len(left) == 0 {
		return []int{}
	}
	if e.myID != 0 {
		return append([]int(nil), left...)
	}
	out := make([]int, len(left))
	for i := range out {
		out[i] = left[i] ^ right[i]
	}
	return out
}

func (e *Engine) SymmetricNOT(input int) int { return input ^ 1 }

func (e *Engine) BatchSymmetricNOT(input []int) []int {
	if len(input) == 0 {
		return []int{}
	}
	out := make([]int, len(input))
	for i := range out {
		out[i] = input[i] ^ 1
	}
	return out
}

func (e *Engine) AsymmetricNOT(input int) int {
	if e.myID == 0 {
		return input ^ 1
	}
	return input
}

func (e *Engine) BatchAsymmetricNOT(input []int) []int {
	if len(input) == 0 {
		return []int{}
	}
	if e.myID != 0 {
		return append([]int(nil), input...)
	}
	out := make([]int, len(input))
	for i := range out {
		out[i] = input[i] ^ 1
	}
	return out
}

func (e *Engine) FreeAND(left, right int) int { return left & right }

func (e *Engine) BatchFreeAND(left, right []int) []int {
	mustMatchLen(left, right)
	if len(left) == 0 {
		return []int{}
	}
	out := make([]int, len(left))
	for i := range out {
		out[i] = left[i] & right[i]
	}
	return out
}

// --- scheduled (non-free) AND ---

// ScheduleAND queues a scalar AND gate and returns its index, stable for
// retrieval after ExecuteScheduledAND.
func (e *Engine) ScheduleAND(left, right int) int {
	e.scheduledAND = append(e.scheduledAND, scheduledAND{left, right})
	return len(e.scheduledAND) - 1
}

// ScheduleBatchAND queues a batch AND gate and returns its index.
func (e *Engine) ScheduleBatchAND(left, right []int) int {
	mustMatchLen(left, right)
	e.scheduledBatchAND = append(e.scheduledBatchAND, scheduledBatchAND{
		append([]int(nil), left...), append([]int(nil), right...),
	})
	return len(e.scheduledBatchAND) - 1
}

// ExecuteScheduledAND consumes both FIFOs in one round: it requests one
// Beaver triple per queued bit, opens (d, e) = (x^a, y^b) to every party,
// and reconstructs each result's share as c ^ (d&b) ^ (e&a), with party 0
// additionally folding in d&e. A fully empty call is a no-op. The whole
// round trip's wall-clock time is reported through the metric recorder, if
// one is attached, for latency aggregation.
func (e *Engine) ExecuteScheduledAND() error {
	start := time.Now()
	defer e.observeRoundLatency(start)

	scalarLeft := make([]int, len(e.scheduledAND))
	scalarRight := make([]int, len(e.scheduledAND))
	for i, g := range e.scheduledAND {
		scalarLeft[i], scalarRight[i] = g.left, g.right
	}

	leftBatches := [][]int{scalarLeft}
	rightBatches := [][]int{scalarRight}
	for _, g := range e.scheduledBatchAND {
		leftBatches = append(leftBatches, g.left)
		rightBatches = append(rightBatches, g.right)
	}

	total := 0
	for _, l := range leftBatches {
		total += len(l)
	}

	tuples, err := e.tupleGen.GetBooleanTuple(total)
	if err != nil {
		return fmt.Errorf("engine: requesting %d triples: %w", total, err)
	}
	utils.Assertf(len(tuples) == total, "engine: tuple generator returned %d triples, want %d", len(tuples), total)

	secretsToOpen := make([]int, total*2)
	index := 0
	for b := range leftBatches {
		l, r := leftBatches[b], rightBatches[b]
		for j := range l {
			secretsToOpen[index*2] = l[j] ^ tuples[index].A()
			secretsToOpen[index*2+1] = r[j] ^ tuples[index].B()
			index++
		}
	}

	opened, err := e.comm.OpenSecretsToAll(secretsToOpen)
	if err != nil {
		return fmt.Errorf("engine: opening scheduled-AND secrets: %w", err)
	}
	utils.Assertf(len(opened) == total*2, "engine: unexpected number of opened secrets: got %d, want %d", len(opened), total*2)

	results := make([][]int, len(leftBatches))
	index = 0
	for b := range leftBatches {
		out := make([]int, len(leftBatches[b]))
		for j := range out {
			d, eBit := opened[2*index], opened[2*index+1]
			t := tuples[index]
			out[j] = t.C() ^ (d & t.B()) ^ (eBit & t.A())
			if e.myID == 0 {
				out[j] ^= d & eBit
			}
			index++
		}
		results[b] = out
	}

	e.results = results
	e.scheduledAND = nil
	e.scheduledBatchAND = nil
	return nil
}

// GetANDResult returns the result of the idx-th scheduled scalar AND, valid
// after ExecuteScheduledAND.
func (e *Engine) GetANDResult(idx int) int {
	return e.results[0][idx]
}

// GetBatchANDResult returns the result of the idx-th scheduled batch AND.
func (e *Engine) GetBatchANDResult(idx int) []int {
	return e.results[idx+1]
}

// ComputeBatchAND is a one-shot convenience wrapping schedule + execute +
// lookup, for a single batch AND with no other pending scheduled work.
func (e *Engine) ComputeBatchAND(left, right []int) ([]int, error) {
	idx := e.ScheduleBatchAND(left, right)
	if err := e.ExecuteScheduledAND(); err != nil {
		return nil, err
	}
	return e.GetBatchANDResult(idx), nil
}

// RevealToParty broadcasts v's shares so that id can reconstruct the
// plaintext by XOR-ing every party's share; non-id callers get their own
// share echoed back unchanged.
func (e *Engine) RevealToParty(id int, v []int) ([]int, error) {
	return e.comm.OpenSecretsToParty(id, v)
}

// observeRoundLatency reports one executeScheduledAND round trip's
// wall-clock duration to the attached metric recorder, if it supports
// latency aggregation. A no-op with the default metrics.Noop sink.
func (e *Engine) observeRoundLatency(start time.Time) {
	if c, ok := e.rec.(*metrics.Counting); ok {
		c.ObserveLatencyMs(float64(time.Since(start)) / float64(time.Millisecond))
	}
}

// TrafficStatistics sums the engine's own opening traffic and the tuple
// generator's dependency-graph traffic, walking from the OT layer up
// through the tuple generator to the engine.
func (e *Engine) TrafficStatistics() (sent, received uint64) {
	onlineSent, onlineReceived := e.comm.TrafficStatistics()
	offlineSent, offlineReceived := e.tupleGen.TrafficStatistics()
	return onlineSent + offlineSent, onlineReceived + offlineReceived
}

// TrafficStatistics on Communicator sums every peer agent's counters.
func (c *Communicator) TrafficStatistics() (sent, received uint64) {
	for _, agent := range c.peers {
		s, r := agent.TrafficStats()
		sent += s
		received += r
	}
	return sent, received
}

func mustMatchLen(left, right []int) {
	utils.Assertf(len(left) == len(right), "engine: input sizes are not the same: %d != %d", len(left), len(right))
}
