package sm2

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/hkdf"
)

// NonceSource supplies the per-signature nonce k in [1, n-1]. attempt starts
// at zero and increases each time the engine rejects a nonce, so a
// deterministic source must return a different k for every attempt.
type NonceSource interface {
	Nonce(n, d, e *big.Int, attempt int) (*big.Int, error)
}

// RandomNonces draws every nonce uniformly from Rand, or from crypto/rand
// when Rand is nil. It is the default source.
type RandomNonces struct {
	Rand io.Reader
}

// Nonce implements NonceSource.
func (r RandomNonces) Nonce(n, _, _ *big.Int, _ int) (*big.Int, error) {
	return randScalar(n, r.Rand)
}

// DeterministicNonces derives k with HKDF over the private scalar and the
// message digest, in the spirit of RFC 6979. Signing the same message twice
// yields the same signature; different messages never share a nonce.
type DeterministicNonces struct {
	hash Hash
}

// NewDeterministicNonces returns a nonce source keyed by h.
func NewDeterministicNonces(h Hash) *DeterministicNonces {
	return &DeterministicNonces{hash: h}
}

// Nonce implements NonceSource.
func (s *DeterministicNonces) Nonce(n, d, e *big.Int, attempt int) (*big.Int, error) {
	size := (n.BitLen() + 7) / 8

	secret := d.FillBytes(make([]byte, size))
	salt := e.Bytes()
	info := binary.BigEndian.AppendUint32([]byte("sm2-nonce"), uint32(attempt))

	// Eight extra bytes keep the modular bias below 2^-64.
	buf := make([]byte, size+8)
	if _, err := io.ReadFull(hkdf.New(s.hash.New, secret, salt, info), buf); err != nil {
		return nil, fmt.Errorf("failed to derive nonce: %w", err)
	}

	k := new(big.Int).SetBytes(buf)
	k.Mod(k, new(big.Int).Sub(n, one))
	return k.Add(k, one), nil
}
