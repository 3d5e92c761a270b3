// Package seedagree implements secure public-seed agreement: a commit-open
// coin-flip so two parties derive an unbiased shared 128-bit value neither
// could have biased alone.
package seedagree

import (
	"fmt"

	"github.com/summitto/boolmpc/block"
	"github.com/summitto/boolmpc/comm"
	"github.com/summitto/boolmpc/entropy"
	"github.com/summitto/boolmpc/utils"
)

// Agree runs the handshake over agent and returns the agreed seed. Exactly
// one of the two parties on a channel must call Agree with sendsFirst=true;
// the wire format is a 32-byte SHA-256 digest, then a 16-byte block, then
// two 16-byte blocks.
//
// A hash-commitment mismatch is reported as an error: there is no in-band
// recovery for a party caught having tried to bias the shared seed.
func Agree(agent *comm.Agent, ent entropy.Source, sendsFirst bool) (block.Block, error) {
	if ent == nil {
		ent = entropy.System
	}
	if sendsFirst {
		return agreeSender(agent, ent)
	}
	return agreeReceiver(agent, ent)
}

func agreeSender(agent *comm.Agent, ent entropy.Source) (block.Block, error) {
	share := ent.Block()
	salt := ent.Block()
	digest := utils.Sha256(utils.Concat(share.Bytes(), salt.Bytes()))

	if err := agent.Send(digest); err != nil {
		return block.Block{}, fmt.Errorf("seedagree: sending commitment: %w", err)
	}

	peerShareRaw, err := agent.Receive(block.Size)
	if err != nil {
		return block.Block{}, fmt.Errorf("seedagree: receiving peer share: %w", err)
	}
	peerShare := block.FromBytes(peerShareRaw)

	if err := agent.Send(block.ToBytes(block.Vector{share, salt})); err != nil {
		return block.Block{}, fmt.Errorf("seedagree: opening commitment: %w", err)
	}

	return share.Xor(peerShare), nil
}

func agreeReceiver(agent *comm.Agent, ent entropy.Source) (block.Block, error) {
	share := ent.Block()

	claimedDigest, err := agent.Receive(32)
	if err != nil {
		return block.Block{}, fmt.Errorf("seedagree: receiving commitment: %w", err)
	}

	if err := agent.Send(share.Bytes()); err != nil {
		return block.Block{}, fmt.Errorf("seedagree: sending share: %w", err)
	}

	openedRaw, err := agent.Receive(2 * block.Size)
	if err != nil {
		return block.Block{}, fmt.Errorf("seedagree: receiving opened commitment: %w", err)
	}
	opened := block.VectorFromBytes(openedRaw)
	peerShare, peerSalt := opened[0], opened[1]

	actualDigest := utils.Sha256(utils.Concat(peerShare.Bytes(), peerSalt.Bytes()))
	if !bytesEqual(claimedDigest, actualDigest) {
		return block.Block{}, fmt.Errorf("seedagree: peer's opened share does not match their commitment")
	}

	return share.Xor(peerShare), nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
