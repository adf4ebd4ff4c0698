package sm2

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"strings"

	"github.com/tjfoc/gmsm/sm3"
	"golang.org/x/crypto/sha3"
)

// Hash names understood by HashByName.
const (
	HashSM3     = "sm3"
	HashSHA256  = "sha256"
	HashSHA3256 = "sha3-256"
)

// Hash is the digest primitive used for identity digests, message digests,
// the KDF and ciphertext tags. The engine treats it as opaque.
type Hash struct {
	Name string
	New  func() hash.Hash
}

var (
	// SM3 is the default digest.
	SM3 = Hash{Name: HashSM3, New: newSM3}

	// SHA256 is provided for interoperability tests.
	SHA256 = Hash{Name: HashSHA256, New: sha256.New}

	// SHA3_256 uses golang.org/x/crypto/sha3.
	SHA3_256 = Hash{Name: HashSHA3256, New: sha3.New256}
)

// HashByName returns the registered digest for name. An empty name selects SM3.
func HashByName(name string) (Hash, error) {
	switch strings.ToLower(name) {
	case HashSM3, "":
		return SM3, nil
	case HashSHA256, "sha-256":
		return SHA256, nil
	case HashSHA3256, "sha3_256":
		return SHA3_256, nil
	default:
		return Hash{}, makeError(ErrUnknownHash, fmt.Sprintf("unsupported hash: %s", name))
	}
}

// Size is the digest length in bytes.
func (h Hash) Size() int {
	return h.New().Size()
}

// Sum hashes the concatenation of parts.
func (h Hash) Sum(parts ...[]byte) []byte {
	d := h.New()
	for _, p := range parts {
		d.Write(p)
	}
	return d.Sum(nil)
}

// sm3Digest fixes Sum on the gmsm implementation, which hashes its argument
// and returns the bare digest instead of appending it.
type sm3Digest struct {
	hash.Hash
}

func newSM3() hash.Hash {
	return sm3Digest{sm3.New()}
}

// Sum appends the current digest to b without changing the hash state.
func (d sm3Digest) Sum(b []byte) []byte {
	return append(b, d.Hash.Sum(nil)...)
}
