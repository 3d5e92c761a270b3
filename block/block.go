// Package block implements the fixed-width 128-bit value used throughout
// the engine as an OT message, a GGM-tree node, and a PRG/AES key.
package block

import (
	"encoding/binary"

	"github.com/summitto/boolmpc/utils"
)

// Size is the width of a Block in bytes.
const Size = 16

// Block is a 128-bit value, stored as 16 little-endian bytes on the wire.
// The host must be little-endian; Go's supported platforms all are, with
// the exception of a handful of big-endian ports this engine does not
// target.
type Block [Size]byte

// Zero is the all-zero block.
var Zero = Block{}

// FromBytes copies b (which must be exactly Size bytes) into a new Block.
func FromBytes(b []byte) Block {
	utils.Assertf(len(b) == Size, "block.FromBytes: len(b)=%d != %d", len(b), Size)
	var blk Block
	copy(blk[:], b)
	return blk
}

// Bytes returns a copy of the block's bytes.
func (b Block) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, b[:])
	return out
}

// Lsb returns the least-significant bit of byte 0.
func (b Block) Lsb() byte {
	return b[0] & 1
}

// Msb returns bit 7 of byte 15.
func (b Block) Msb() byte {
	return (b[15] >> 7) & 1
}

// SetLsbTo returns a copy of b with the LSB forced to bit (0 or 1), used
// throughout the OT layer to encode a choice bit into a block; b itself is
// left unchanged.
func (b Block) SetLsbTo(bit byte) Block {
	out := b
	out[0] = (out[0] &^ 1) | (bit & 1)
	return out
}

// Xor returns b XOR other.
func (b Block) Xor(other Block) Block {
	var out Block
	for i := range b {
		out[i] = b[i] ^ other[i]
	}
	return out
}

// Equal reports whether two blocks are identical.
func (b Block) Equal(other Block) bool {
	return b == other
}

// Uint64s returns the block's two 64-bit little-endian words, low word
// first: convenient for the GGM tree's index arithmetic and for fast XOR
// loops over many blocks.
func (b Block) Uint64s() (lo, hi uint64) {
	return binary.LittleEndian.Uint64(b[0:8]), binary.LittleEndian.Uint64(b[8:16])
}

// FromUint64s builds a block from two little-endian 64-bit words.
func FromUint64s(lo, hi uint64) Block {
	var b Block
	binary.LittleEndian.PutUint64(b[0:8], lo)
	binary.LittleEndian.PutUint64(b[8:16], hi)
	return b
}

// Vector is a slice of blocks, the unit the OT stack and the GGM tree pass
// around.
type Vector []Block

// XorInto XORs other into v element-wise, in place.
func (v Vector) XorInto(other Vector) {
	utils.Assertf(len(v) == len(other), "block.Vector.XorInto: len mismatch %d != %d", len(v), len(other))
	for i := range v {
		v[i] = v[i].Xor(other[i])
	}
}

// ToBytes flattens a vector of blocks into one contiguous byte slice.
func ToBytes(v Vector) []byte {
	out := make([]byte, len(v)*Size)
	for i, b := range v {
		copy(out[i*Size:(i+1)*Size], b[:])
	}
	return out
}

// VectorFromBytes is the inverse of ToBytes; len(b) must be a multiple of
// Size.
func VectorFromBytes(b []byte) Vector {
	chunks := utils.SplitIntoChunks(b, Size)
	out := make(Vector, len(chunks))
	for i, c := range chunks {
		out[i] = FromBytes(c)
	}
	return out
}

// XorAll reduces a vector of blocks to their cumulative XOR.
func XorAll(v Vector) Block {
	var out Block
	for _, b := range v {
		out = out.Xor(b)
	}
	return out
}
