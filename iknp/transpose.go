package iknp

import "github.com/summitto/boolmpc/block"

// Rows is the IKNP matrix width: 127 real base-COT-derived rows (bits 1..127
// of Δ) plus the synthetic row 0 described at realRows.
const Rows = 128

// transposeMatrix turns rows (Rows row-major byte slices, each mBytes long,
// LSB-first within a byte) into m output blocks, block i's bit j being bit i
// of rows[j]. It transposes the 128xm bit matrix into m blocks of 128 bits
// with a direct bit-by-bit gather, favoring a bit-for-bit obvious
// implementation over a faster movemask-style transpose.
func transposeMatrix(rows [Rows][]byte, m int) block.Vector {
	out := make(block.Vector, m)
	for i := 0; i < m; i++ {
		byteIdx, bitIdx := i/8, uint(i%8)
		var lo, hi uint64
		for j := 0; j < Rows; j++ {
			bit := (rows[j][byteIdx] >> bitIdx) & 1
			if bit == 0 {
				continue
			}
			if j < 64 {
				lo |= 1 << uint(j)
			} else {
				hi |= 1 << uint(j-64)
			}
		}
		out[i] = block.FromUint64s(lo, hi)
	}
	return out
}
