package sm2

import (
	"crypto/subtle"
	"math/big"
)

// Verify reports whether sig is a valid signature of msg under pub for the
// identity id. Malformed input of any kind yields false.
func (e *Engine) Verify(pub *PublicKey, msg, id []byte, sig *Signature) bool {
	if sig == nil || sig.R == nil || sig.S == nil {
		return false
	}
	c := e.curve
	n := c.params.N

	if sig.R.Sign() <= 0 || sig.R.Cmp(n) >= 0 || sig.S.Sign() <= 0 || sig.S.Cmp(n) >= 0 {
		return false
	}

	bound, err := e.bind(pub)
	if err != nil {
		return false
	}
	digest, err := e.MessageDigest(bound, msg, id)
	if err != nil {
		return false
	}

	t := new(big.Int).Add(sig.R, sig.S)
	t.Mod(t, n)
	if t.Sign() == 0 {
		return false
	}

	sG, err := c.ScalarBaseMult(sig.S)
	if err != nil {
		return false
	}
	tP, err := c.ScalarMult(t, bound.Point())
	if err != nil {
		return false
	}
	R := c.Add(sG, tP)
	if R.IsInfinity() {
		return false
	}

	v := new(big.Int).Add(digest, R.X)
	v.Mod(v, n)

	return subtle.ConstantTimeCompare(c.scalarBytes(v), c.scalarBytes(sig.R)) == 1
}
