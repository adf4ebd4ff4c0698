package sm2misuse

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/mahdiidarabi/sm2-affine/pkg/sm2"
)

// ECDSASign produces a textbook ECDSA signature over digest e with an
// explicit nonce k, on the same curve as the SM2 engine. It exists to build
// the cross-scheme scenario and must never be used to sign real data.
//
//	r = x(k·G) mod n
//	s = k⁻¹(e + r·d) mod n
func ECDSASign(c *sm2.Curve, d, e, k *big.Int) (*Signature, error) {
	if err := c.ValidScalar(d); err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	n := c.Params().N

	R, err := c.ScalarBaseMult(k)
	if err != nil {
		return nil, fmt.Errorf("invalid nonce: %w", err)
	}
	r := new(big.Int).Mod(R.X, n)
	if r.Sign() == 0 {
		return nil, errors.New("r is zero, choose another nonce")
	}

	kInv, err := c.ModInverse(k, n)
	if err != nil {
		return nil, err
	}
	s := new(big.Int).Mul(r, d)
	s.Add(s, e)
	s.Mul(s, kInv)
	s.Mod(s, n)
	if s.Sign() == 0 {
		return nil, errors.New("s is zero, choose another nonce")
	}

	return &Signature{E: new(big.Int).Set(e), R: r, S: s}, nil
}

// ECDSAVerify checks an ECDSA signature over digest e against pub.
func ECDSAVerify(c *sm2.Curve, pub *sm2.PublicKey, e *big.Int, sig *Signature) bool {
	if checkSignature(c, sig) != nil || pub.Validate() != nil {
		return false
	}
	n := c.Params().N

	w, err := c.ModInverse(sig.S, n)
	if err != nil {
		return false
	}
	u1 := new(big.Int).Mul(e, w)
	u1.Mod(u1, n)
	u2 := new(big.Int).Mul(sig.R, w)
	u2.Mod(u2, n)

	p := sm2.Infinity()
	if u1.Sign() != 0 {
		if p, err = c.ScalarBaseMult(u1); err != nil {
			return false
		}
	}
	q, err := c.ScalarMult(u2, pub.Point())
	if err != nil {
		return false
	}
	p = c.Add(p, q)
	if p.IsInfinity() {
		return false
	}

	return new(big.Int).Mod(p.X, n).Cmp(sig.R) == 0
}
