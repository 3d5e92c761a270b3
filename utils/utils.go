// Package utils holds the small bit/byte helpers shared by every layer of
// the engine: the GGM tree, the IKNP transpose, and the gate API all move
// bits around in the same few shapes, so the conversions live in one place.
package utils

import (
	"crypto/sha256"
	"fmt"
	"math"
	"math/big"

	"golang.org/x/exp/slices"
)

// Assert panics if condition is false. Protocol-invariant violations are
// not recoverable in-band, so callers use this instead of returning an
// error they'd have no safe way to act on.
func Assert(condition bool) {
	if !condition {
		panic("assert failed")
	}
}

// Assertf is Assert with a formatted message, used where the failure needs
// context to debug (mismatched vector lengths, a malformed Δ).
func Assertf(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf(format, args...))
	}
}

// Sha256 returns the SHA-256 digest of data. Used by base OT (hashing the
// shared group element) and public-seed agreement (the commitment).
func Sha256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// XorBytes returns a ^ b, element-wise. Panics on length mismatch: an
// engine that XORs mismatched share vectors has a protocol bug, not a
// recoverable runtime condition.
func XorBytes(a, b []byte) []byte {
	Assertf(len(a) == len(b), "XorBytes: len(a)=%d != len(b)=%d", len(a), len(b))
	c := make([]byte, len(a))
	for i := range a {
		c[i] = a[i] ^ b[i]
	}
	return c
}

// XorBytesInPlace XORs b into a in place.
func XorBytesInPlace(a, b []byte) {
	Assertf(len(a) == len(b), "XorBytesInPlace: len(a)=%d != len(b)=%d", len(a), len(b))
	for i := range a {
		a[i] ^= b[i]
	}
}

// Concat concatenates byte slices into one freshly allocated slice.
func Concat(parts ...[]byte) []byte {
	total := 0
	for _, s := range parts {
		total += len(s)
	}
	out := make([]byte, 0, total)
	for _, s := range parts {
		out = append(out, s...)
	}
	return out
}

// SplitIntoChunks splits data into equally sized chunks of chunkSize bytes.
// Used by block.VectorFromBytes to cut a byte buffer into blocks.
func SplitIntoChunks(data []byte, chunkSize int) [][]byte {
	Assertf(len(data)%chunkSize == 0, "SplitIntoChunks: len(data)=%d not a multiple of %d", len(data), chunkSize)
	n := len(data) / chunkSize
	chunks := make([][]byte, n)
	for i := 0; i < n; i++ {
		chunks[i] = data[i*chunkSize : (i+1)*chunkSize]
	}
	return chunks
}

// BytesToBits converts bytes into a 0/1 array, least-significant bit first
// (index 0 = bit 0 of byte 0). This is the in-memory choice-bit layout used
// by base OT and IKNP; it is distinct from the MSB-first wire layout that
// comm.Agent.SendBool/ReceiveBool implement.
func BytesToBits(b []byte) []int {
	v := new(big.Int).SetBytes(reverseBytes(b))
	bits := make([]int, len(b)*8)
	for i := range bits {
		bits[i] = int(v.Bit(i))
	}
	return bits
}

// BitsToBytes is the inverse of BytesToBits.
func BitsToBytes(bits []int) []byte {
	v := new(big.Int)
	for i, b := range bits {
		v.SetBit(v, i, uint(b))
	}
	byteLen := int(math.Ceil(float64(len(bits)) / 8))
	buf := make([]byte, byteLen)
	v.FillBytes(buf)
	return reverseBytes(buf)
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

// Reverse returns a new slice with s's elements in reverse order.
func Reverse[T any](s []T) []T {
	out := slices.Clone(s)
	slices.Reverse(out)
	return out
}

// Contains reports whether n is present in h.
func Contains[T comparable](h []T, n T) bool {
	return slices.Contains(h, n)
}

// Max returns the larger of a and b.
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// CeilDiv returns ceil(a/b) for non-negative a and positive b.
func CeilDiv(a, b int) int {
	return (a + b - 1) / b
}
