package ferret

import (
	"github.com/summitto/boolmpc/block"
	"github.com/summitto/boolmpc/prg"
)

// localWeight is the number of source items XORed into each destination
// item: ten, giving the "ten-local-linear" code its name.
const localWeight = 10

// MatrixMultiplier hides the LPN code-generation matrix from its caller:
// given a seed, it expands src into a dstLength-long vector such that any
// adversary not knowing seed sees each output coordinate as depending on
// (at most) localWeight unknown source coordinates.
type MatrixMultiplier interface {
	MultiplyWithRandomMatrix(seed block.Block, dstLength int, src block.Vector) block.Vector
}

// TenLocalLinearMatrixMultiplier selects, for every output coordinate,
// exactly ten (possibly repeated) source coordinates via a PRG keyed on
// seed, and XORs them together. See https://eprint.iacr.org/2020/924.pdf.
type TenLocalLinearMatrixMultiplier struct{}

func (TenLocalLinearMatrixMultiplier) MultiplyWithRandomMatrix(seed block.Block, dstLength int, src block.Vector) block.Vector {
	g := prg.New(seed)
	n := uint64(len(src))
	out := make(block.Vector, dstLength)
	for i := range out {
		var acc block.Block
		indices := g.RandomU64(localWeight)
		for _, idx := range indices {
			acc = acc.Xor(src[idx%n])
		}
		out[i] = acc
	}
	return out
}
