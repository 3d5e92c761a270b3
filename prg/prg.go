// Package prg implements a seedable pseudorandom stream generator: AES in
// counter mode keyed by the seed, so two parties that start from the same
// seed emit byte-for-byte identical output.
package prg

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"

	"github.com/summitto/boolmpc/block"
	"github.com/summitto/boolmpc/utils"
)

// PRG is a deterministic, seeded stream of pseudorandom bits/bytes/blocks.
// Stream index 0 is the first output.
type PRG struct {
	stream cipher.Stream
}

// New creates a PRG keyed on seed. The counter starts at zero.
func New(seed block.Block) *PRG {
	c, err := aes.NewCipher(seed.Bytes())
	if err != nil {
		panic(err) // 16-byte key is always valid; a crypto library failure is fatal.
	}
	var iv [16]byte
	return &PRG{stream: cipher.NewCTR(c, iv[:])}
}

// RandomBytes returns n pseudorandom bytes, advancing the stream.
func (p *PRG) RandomBytes(n int) []byte {
	out := make([]byte, n)
	p.stream.XORKeyStream(out, out)
	return out
}

// RandomBlock returns one pseudorandom block.
func (p *PRG) RandomBlock() block.Block {
	return block.FromBytes(p.RandomBytes(block.Size))
}

// RandomBlockVec returns n pseudorandom blocks.
func (p *PRG) RandomBlockVec(n int) block.Vector {
	raw := p.RandomBytes(n * block.Size)
	return block.VectorFromBytes(raw)
}

// RandomBits returns n pseudorandom bits as a 0/1 slice, LSB-first within
// each generated byte (see utils.BytesToBits).
func (p *PRG) RandomBits(n int) []int {
	nBytes := utils.CeilDiv(n, 8)
	raw := p.RandomBytes(nBytes)
	bits := utils.BytesToBits(raw)
	return bits[:n]
}

// RandomU64 returns n pseudorandom uint64 values.
func (p *PRG) RandomU64(n int) []uint64 {
	raw := p.RandomBytes(n * 8)
	out := make([]uint64, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(raw[i*8 : i*8+8])
	}
	return out
}
