// Package entropy provides a fresh-randomness source: a device that returns
// random bytes per call without repetition over a session. It is
// constructor-injected everywhere the global correlation delta or a fresh
// PRG seed is sampled, so tests can substitute a deterministic source. The
// base-OT constructors also take a Source, but base OT draws its ephemeral
// group scalars from go-ristretto's own randomness, not from the Source.
package entropy

import (
	"crypto/rand"
	"io"

	prngchacha "github.com/sixafter/prng-chacha"

	"github.com/summitto/boolmpc/block"
)

// Source produces fresh entropy.
type Source interface {
	// Block returns one fresh, uniformly random 128-bit block.
	Block() block.Block
	// Bytes returns n fresh random bytes.
	Bytes(n int) []byte
}

type source struct {
	r io.Reader
}

// New wraps an io.Reader as a Source. A nil reader defaults to
// sixafter/prng-chacha's pooled, concurrency-safe CSPRNG.
func New(r io.Reader) Source {
	if r == nil {
		r = prngchacha.Reader
	}
	return &source{r: r}
}

// System is the default entropy source: the pooled ChaCha-based CSPRNG.
var System Source = New(nil)

// CryptoRand is a Source backed directly by crypto/rand, kept available for
// callers that want to avoid the pooled reader (e.g. FIPS-constrained
// deployments).
var CryptoRand Source = New(rand.Reader)

func (s *source) Bytes(n int) []byte {
	out := make([]byte, n)
	if _, err := io.ReadFull(s.r, out); err != nil {
		// System entropy failing is a fatal crypto library failure: there
		// is no safe fallback for a broken RNG.
		panic(err)
	}
	return out
}

func (s *source) Block() block.Block {
	return block.FromBytes(s.Bytes(block.Size))
}
