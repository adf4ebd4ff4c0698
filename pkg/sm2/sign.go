package sm2

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/mahdiidarabi/sm2-affine/internal/logging"
)

// SignatureSize is the length of the fixed-width R || S encoding.
const SignatureSize = 64

// Signature is an (r, s) pair with both values in (0, n).
type Signature struct {
	R, S *big.Int
}

// Bytes returns the 64-byte big-endian encoding R || S.
func (sig *Signature) Bytes() []byte {
	out := make([]byte, SignatureSize)
	sig.R.FillBytes(out[:SignatureSize/2])
	sig.S.FillBytes(out[SignatureSize/2:])
	return out
}

// ParseSignature decodes the encoding produced by Bytes. Range checks happen
// in Verify.
func ParseSignature(b []byte) (*Signature, error) {
	if len(b) != SignatureSize {
		return nil, makeError(ErrInvalidSignature,
			fmt.Sprintf("malformed signature: length %d, want %d", len(b), SignatureSize))
	}
	return &Signature{
		R: new(big.Int).SetBytes(b[:SignatureSize/2]),
		S: new(big.Int).SetBytes(b[SignatureSize/2:]),
	}, nil
}

// MessageDigest returns e = H(ZA || msg) as an unreduced integer.
func (e *Engine) MessageDigest(pub *PublicKey, msg, id []byte) (*big.Int, error) {
	pub, err := e.bind(pub)
	if err != nil {
		return nil, err
	}
	za, err := IdentityDigest(e.hash, pub, id)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(e.hash.Sum(za, msg)), nil
}

// Sign signs msg for the identity id:
//
//	e = H(ZA || msg)
//	(x1, y1) = k·G
//	r = (e + x1) mod n
//	s = (1 + d)⁻¹ · (k - r·d) mod n
//
// A nonce that yields r = 0, r + k = n or s = 0 is discarded and a new one is
// requested from the nonce source, at most WithMaxNonceAttempts times. A
// source that hands back a nonce it already produced is treated as broken and
// the call fails with ErrRetryWithFreshNonce.
func (e *Engine) Sign(priv *PrivateKey, msg, id []byte) (*Signature, error) {
	if priv == nil {
		return nil, makeError(ErrInvalidScalar, "private key must not be nil")
	}
	c := e.curve
	n := c.params.N
	if err := c.ValidScalar(priv.D); err != nil {
		return nil, err
	}

	// d = n-1 has no (1 + d)⁻¹.
	dInv, err := c.ModInverse(new(big.Int).Add(priv.D, one), n)
	if err != nil {
		return nil, fmt.Errorf("private key cannot sign: %w", err)
	}

	digest, err := e.MessageDigest(&priv.PublicKey, msg, id)
	if err != nil {
		return nil, err
	}

	var rejected []*big.Int
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		k, err := e.nonces.Nonce(n, priv.D, digest, attempt)
		if err != nil {
			return nil, err
		}
		if err := c.ValidScalar(k); err != nil {
			return nil, fmt.Errorf("nonce source returned an invalid nonce: %w", err)
		}
		for _, prev := range rejected {
			if prev.Cmp(k) == 0 {
				return nil, makeError(ErrRetryWithFreshNonce, "nonce source repeated a rejected nonce")
			}
		}

		sig, err := e.signWithNonce(priv.D, dInv, digest, k)
		if err == nil {
			return sig, nil
		}
		if !errors.Is(err, ErrRetryWithFreshNonce) {
			return nil, err
		}

		e.logger.Debug("rejected signing nonce", "attempt", attempt, "reason", err.Error(), logging.Redacted("nonce"))
		rejected = append(rejected, k)
	}

	return nil, makeError(ErrRetryWithFreshNonce,
		fmt.Sprintf("no usable nonce after %d attempts", e.maxAttempts))
}

func (e *Engine) signWithNonce(d, dInv, digest, k *big.Int) (*Signature, error) {
	c := e.curve
	n := c.params.N

	R, err := c.ScalarBaseMult(k)
	if err != nil {
		return nil, err
	}

	r := new(big.Int).Add(digest, R.X)
	r.Mod(r, n)
	if r.Sign() == 0 {
		return nil, makeError(ErrRetryWithFreshNonce, "r is zero")
	}
	if new(big.Int).Add(r, k).Cmp(n) == 0 {
		return nil, makeError(ErrRetryWithFreshNonce, "r + k equals n")
	}

	s := new(big.Int).Mul(r, d)
	s.Sub(k, s)
	s.Mul(s, dInv)
	s.Mod(s, n)
	if s.Sign() == 0 {
		return nil, makeError(ErrRetryWithFreshNonce, "s is zero")
	}

	return &Signature{R: r, S: s}, nil
}

// bind checks that pub is a valid point on the engine's curve and returns it
// attached to that curve, so lookups go through the engine's cache.
func (e *Engine) bind(pub *PublicKey) (*PublicKey, error) {
	if pub == nil {
		return nil, makeError(ErrInvalidPublicKey, "public key must not be nil")
	}
	if pub.Curve != nil && pub.Curve.params.Name != e.curve.params.Name {
		return nil, makeError(ErrInvalidPublicKey,
			fmt.Sprintf("public key is on %s, engine uses %s", pub.Curve.params.Name, e.curve.params.Name))
	}
	bound := &PublicKey{Curve: e.curve, X: pub.X, Y: pub.Y}
	if err := bound.Validate(); err != nil {
		return nil, err
	}
	return bound, nil
}
