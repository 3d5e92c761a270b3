// Package prodshare turns each party's own bit shares (a, b) into an
// additive share of the cross term a1*b2 XOR a2*b1 against one peer, via
// one bidirectional OT call. BoolGenerator and U64Generator are separate
// monomorphic types rather than one type with a bool method and a uint64
// method, since Go has no template-like overload on return type here.
package prodshare

import (
	"fmt"

	"github.com/summitto/boolmpc/bidirot"
	"github.com/summitto/boolmpc/prg"
)

// int64Width is the number of bit-OTs run per uint64 product share: one per
// bit position, with weighted inputs 2^j * a_1.
const int64Width = 64

// BoolGenerator produces shares of a boolean product term against one peer.
type BoolGenerator struct {
	prg    *prg.PRG
	bitOT  *bidirot.BitOT
}

// NewBoolGenerator builds a generator drawing from seed (fresh, local
// randomness, never the tuple generator's own a/b seed) and bound to bitOT,
// the bidirectional OT channel shared with one peer.
func NewBoolGenerator(seed *prg.PRG, bitOT *bidirot.BitOT) *BoolGenerator {
	return &BoolGenerator{prg: seed, bitOT: bitOT}
}

// GenerateBooleanProductShares returns this party's share of
// left[i]*rightPeer[i] XOR leftPeer[i]*right[i], where right is this
// party's operand fed as the OT receiver's choice bit: the peer on the other
// end of bitOT runs the symmetric call with its own (left, right) and the
// two calls' outputs XOR to the full cross term.
func (g *BoolGenerator) GenerateBooleanProductShares(left, right []int) ([]int, error) {
	if len(left) != len(right) {
		return nil, fmt.Errorf("prodshare: inconsistent length in inputs: %d != %d", len(left), len(right))
	}
	n := len(left)
	input0 := g.prg.RandomBits(n)
	input1 := make([]int, n)
	for i := 0; i < n; i++ {
		input1[i] = input0[i] ^ left[i]
	}

	result, err := g.bitOT.BiDirectionOT(input0, input1, right)
	if err != nil {
		return nil, fmt.Errorf("prodshare: boolean product shares: %w", err)
	}
	for i := range result {
		result[i] ^= input0[i]
	}
	return result, nil
}

// U64Generator produces shares of an integer (mod 2^64) product term against
// one peer.
type U64Generator struct {
	prg  *prg.PRG
	u64OT *bidirot.U64OT
}

// NewU64Generator builds a generator drawing from seed and bound to u64OT.
func NewU64Generator(seed *prg.PRG, u64OT *bidirot.U64OT) *U64Generator {
	return &U64Generator{prg: seed, u64OT: u64OT}
}

// GenerateIntegerProductShares is the uint64 analogue of
// GenerateBooleanProductShares: left[i]*rightPeer[i] is computed bit-by-bit
// over 64 parallel OTs with weighted inputs 2^j*left[i].
func (g *U64Generator) GenerateIntegerProductShares(left, right []uint64) ([]uint64, error) {
	if len(left) != len(right) {
		return nil, fmt.Errorf("prodshare: inconsistent length in inputs: %d != %d", len(left), len(right))
	}
	n := len(left)
	input0 := g.prg.RandomU64(int64Width * n)
	input1 := make([]uint64, int64Width*n)
	choice := make([]int, int64Width*n)
	for i := 0; i < n; i++ {
		for j := 0; j < int64Width; j++ {
			idx := i*int64Width + j
			input1[idx] = input0[idx] + (uint64(1)<<uint(j))*left[i]
			choice[idx] = int((right[i] >> uint(j)) & 1)
		}
	}

	received, err := g.u64OT.BiDirectionOT(input0, input1, choice)
	if err != nil {
		return nil, fmt.Errorf("prodshare: integer product shares: %w", err)
	}

	result := make([]uint64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < int64Width; j++ {
			idx := i*int64Width + j
			result[i] += received[idx] - input0[idx]
		}
	}
	return result, nil
}
