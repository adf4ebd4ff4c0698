package sm2

import (
	crand "crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// PublicKey is a curve point P = d·G bound to the curve it lives on.
type PublicKey struct {
	Curve *Curve
	X, Y  *big.Int
}

// PrivateKey holds the secret scalar d alongside its public key.
type PrivateKey struct {
	PublicKey
	D *big.Int
}

// Point returns the public key as a curve point.
func (pub *PublicKey) Point() Point {
	return Point{X: pub.X, Y: pub.Y}
}

// Bytes returns the 64-byte uncompressed encoding X || Y, or nil for an
// uninitialised key.
func (pub *PublicKey) Bytes() []byte {
	if pub.Point().IsInfinity() {
		return nil
	}
	out := make([]byte, 0, 2*pub.Curve.byteLen)
	out = append(out, pub.Curve.coordBytes(pub.X)...)
	return append(out, pub.Curve.coordBytes(pub.Y)...)
}

// Compressed returns the 33-byte compressed encoding, or nil for an
// uninitialised key.
func (pub *PublicKey) Compressed() []byte {
	return Compress(pub.Curve, pub.Point())
}

// Validate checks that the key is a finite point on its curve.
func (pub *PublicKey) Validate() error {
	if pub == nil || pub.Curve == nil {
		return makeError(ErrInvalidPublicKey, "public key is not initialised")
	}
	p := pub.Point()
	if p.IsInfinity() {
		return makeError(ErrInvalidPublicKey, "public key is the point at infinity")
	}
	if !pub.Curve.IsOnCurve(p) {
		return makeError(ErrInvalidPublicKey, "public key is not on the curve")
	}
	return nil
}

// Public returns the public half of the key pair.
func (priv *PrivateKey) Public() *PublicKey {
	return &priv.PublicKey
}

// ParsePublicKey decodes a public key in one of three forms: 33-byte
// compressed, 64-byte X || Y, or 65-byte 0x04 || X || Y.
func ParsePublicKey(c *Curve, b []byte) (*PublicKey, error) {
	n := c.byteLen
	var p Point
	switch len(b) {
	case n + 1:
		var err error
		if p, err = Decompress(c, b); err != nil {
			return nil, err
		}
	case 2*n + 1:
		if b[0] != 0x04 {
			return nil, makeError(ErrInvalidPoint,
				fmt.Sprintf("invalid uncompressed prefix 0x%02x", b[0]))
		}
		b = b[1:]
		fallthrough
	case 2 * n:
		p = Point{
			X: new(big.Int).SetBytes(b[:n]),
			Y: new(big.Int).SetBytes(b[n:]),
		}
		if !c.IsOnCurve(p) {
			return nil, makeError(ErrInvalidPoint, "point is not on the curve")
		}
	default:
		return nil, makeError(ErrInvalidPoint,
			fmt.Sprintf("malformed public key: unexpected length %d", len(b)))
	}
	return &PublicKey{Curve: c, X: p.X, Y: p.Y}, nil
}

// NewPrivateKey derives the key pair for a known scalar d in [1, n-1].
func NewPrivateKey(c *Curve, d *big.Int) (*PrivateKey, error) {
	if err := c.ValidScalar(d); err != nil {
		return nil, err
	}
	p, err := c.ScalarBaseMult(d)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{
		PublicKey: PublicKey{Curve: c, X: p.X, Y: p.Y},
		D:         new(big.Int).Set(d),
	}, nil
}

// GenerateKey draws d uniformly from [1, n-1] using rand and computes
// P = d·G. A nil rand uses crypto/rand.
func GenerateKey(c *Curve, rand io.Reader) (*PrivateKey, error) {
	d, err := randScalar(c.params.N, rand)
	if err != nil {
		return nil, err
	}
	return NewPrivateKey(c, d)
}

// randScalar returns a uniform integer in [1, n-1].
func randScalar(n *big.Int, rand io.Reader) (*big.Int, error) {
	if rand == nil {
		rand = crand.Reader
	}
	max := new(big.Int).Sub(n, one)
	k, err := crand.Int(rand, max)
	if err != nil {
		return nil, fmt.Errorf("failed to read random scalar: %w", err)
	}
	return k.Add(k, one), nil
}
