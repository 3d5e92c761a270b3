package block

import (
	"crypto/aes"
	"crypto/cipher"
	"log"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

var logAESOnce sync.Once

// logAESAcceleration logs, once per process, whether the host's crypto/aes
// will run on the AES-NI (or ARM crypto extension) fast path. crypto/aes
// decides this internally; this only makes that decision observable for
// operators who care whether the hot loop is hitting hardware AES.
func logAESAcceleration() {
	logAESOnce.Do(func() {
		accelerated := cpuid.CPU.Supports(cpuid.AESNI) || cpuid.CPU.Supports(cpuid.AESARM)
		log.Printf("block: AES hardware acceleration available=%v (cpu=%s)", accelerated, cpuid.CPU.BrandName)
	})
}

// Cipher is an AES-128 primitive: ECB-mode encryption over a vector of
// blocks, and the fixed-key correlation-robust hash H(x) = AES_k(x) XOR x
// named throughout the OT layer.
type Cipher struct {
	block cipher.Block
}

// New precomputes the AES-128 round key schedule for key.
func New(key Block) *Cipher {
	logAESAcceleration()
	c, err := aes.NewCipher(key[:])
	if err != nil {
		// A 16-byte key is always valid for aes.NewCipher; a failure here
		// means the runtime's AES implementation is broken. Fatal, no retry.
		panic(err)
	}
	return &Cipher{block: c}
}

// fixedKeyCipher is keyed on the well-known all-zero public key used by the
// correlation-robust hash below (Bellare-Hoang-Keelveedhi-Rogaway, "Efficient
// Garbling from a Fixed-Key Blockcipher").
var fixedKeyCipher = New(Zero)

// EncryptInPlace ECB-encrypts every block in v, in place.
func (c *Cipher) EncryptInPlace(v Vector) {
	for i := range v {
		c.block.Encrypt(v[i][:], v[i][:])
	}
}

// Encrypt returns the ECB encryption of a single block.
func (c *Cipher) Encrypt(b Block) Block {
	var out Block
	c.block.Encrypt(out[:], b[:])
	return out
}

// HashInPlace overwrites every block in v with H(v[i]) = AES_fixedKey(v[i])
// XOR v[i], the correlation-robust hash used throughout the OT stack.
func HashInPlace(v Vector) {
	for i := range v {
		v[i] = Hash(v[i])
	}
}

// Hash computes H(x) = AES_fixedKey(x) XOR x.
func Hash(x Block) Block {
	return fixedKeyCipher.Encrypt(x).Xor(x)
}

// HashVector returns H applied to every element of v, without mutating v.
func HashVector(v Vector) Vector {
	out := make(Vector, len(v))
	for i, b := range v {
		out[i] = Hash(b)
	}
	return out
}
