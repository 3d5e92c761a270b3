package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/summitto/boolmpc/comm"
)

// Communicator is the secret-share engine's own communication layer: a full
// mesh of one comm.Agent per peer, exposing the two opening primitives
// ExecuteScheduledAND and RevealToParty need.
type Communicator struct {
	myID    int
	peers   map[int]*comm.Agent
	peerIDs []int // ascending, for deterministic iteration order
}

// NewCommunicator builds a Communicator from one agent per peer (every party
// other than myID).
func NewCommunicator(myID int, peers map[int]*comm.Agent) *Communicator {
	ids := make([]int, 0, len(peers))
	for id := range peers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return &Communicator{myID: myID, peers: peers, peerIDs: ids}
}

type peerBoolResult struct {
	bits []int
	err  error
}

// OpenSecretsToAll is the open-to-all round of ExecuteScheduledAND: every
// party XORs its share into a local buffer and broadcasts the buffer; the
// final value at every index is the XOR of every party's share. Empty input
// is a no-op: no agent traffic.
func (c *Communicator) OpenSecretsToAll(shares []int) ([]int, error) {
	n := len(shares)
	if n == 0 {
		return []int{}, nil
	}
	out := append([]int(nil), shares...)

	results := make(map[int]chan peerBoolResult, len(c.peerIDs))
	for _, id := range c.peerIDs {
		ch := make(chan peerBoolResult, 1)
		results[id] = ch
		go func(id int, agent *comm.Agent) {
			// Every party sends first, so the send runs beside the receive.
			sendErr := make(chan error, 1)
			go func() { sendErr <- agent.SendBool(shares) }()
			recv, err := agent.ReceiveBool(n)
			if err != nil {
				ch <- peerBoolResult{nil, fmt.Errorf("engine: receiving broadcast from peer %d: %w", id, err)}
				return
			}
			if err := <-sendErr; err != nil {
				ch <- peerBoolResult{nil, fmt.Errorf("engine: broadcasting to peer %d: %w", id, err)}
				return
			}
			ch <- peerBoolResult{recv, nil}
		}(id, c.peers[id])
	}

	for _, id := range c.peerIDs {
		res := <-results[id]
		if res.err != nil {
			return nil, res.err
		}
		for i := range out {
			out[i] ^= res.bits[i]
		}
	}
	return out, nil
}

// OpenSecretsToParty is RevealToParty's communication round: every non-id
// party sends its share to id only; id collects from every peer and XORs
// them with its own share. Non-id parties return their own share unchanged.
func (c *Communicator) OpenSecretsToParty(id int, shares []int) ([]int, error) {
	n := len(shares)
	if n == 0 {
		return []int{}, nil
	}
	if id == c.myID {
		return c.collectFromAll(shares)
	}
	if err := c.peers[id].SendBool(shares); err != nil {
		return nil, fmt.Errorf("engine: sending share to party %d: %w", id, err)
	}
	return append([]int(nil), shares...), nil
}

func (c *Communicator) collectFromAll(mine []int) ([]int, error) {
	n := len(mine)
	out := append([]int(nil), mine...)

	var mu sync.Mutex
	var firstErr error
	var wg sync.WaitGroup
	for _, id := range c.peerIDs {
		wg.Add(1)
		go func(id int, agent *comm.Agent) {
			defer wg.Done()
			recv, err := agent.ReceiveBool(n)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("engine: collecting share from peer %d: %w", id, err)
				}
				return
			}
			for i := range out {
				out[i] ^= recv[i]
			}
		}(id, c.peers[id])
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
