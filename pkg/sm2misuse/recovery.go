package sm2misuse

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"

	"github.com/mahdiidarabi/sm2-affine/pkg/sm2"
)

// ErrUnrecoverableAttack is returned when the denominator of a recovery
// formula is zero modulo n, or the formula yields the zero scalar.
const ErrUnrecoverableAttack = sm2.ErrorKind("ErrUnrecoverableAttack")

// RecoverFromLeakedNonce recovers d from one signature whose nonce k is known.
//
// From s = (1+d)⁻¹(k - r·d) it follows that k = s + (s + r)·d, so
//
//	d = (k - s) / (s + r) mod n
func RecoverFromLeakedNonce(c *sm2.Curve, sig *Signature, k *big.Int) (*big.Int, error) {
	if err := checkSignature(c, sig); err != nil {
		return nil, err
	}
	if k == nil {
		return nil, fmt.Errorf("nonce is nil: %w", sm2.ErrInvalidScalar)
	}
	n := c.Params().N

	num := new(big.Int).Sub(k, sig.S)
	den := new(big.Int).Add(sig.S, sig.R)

	return solve(c, num, den, n, "s + r")
}

// RecoverFromReusedNonce recovers d from two signatures made with one key and
// one nonce over different messages.
//
// Equating k = s1 + (s1 + r1)·d = s2 + (s2 + r2)·d gives
//
//	d = (s2 - s1) / (s1 - s2 + r1 - r2) mod n
//
// Args:
//   - sig1, sig2: Two signatures sharing a nonce
//
// Returns:
//   - Private key if recovery successful, error otherwise
func RecoverFromReusedNonce(c *sm2.Curve, sig1, sig2 *Signature) (*big.Int, error) {
	return RecoverPrivateKey(c, sig1, sig2, big.NewInt(1), big.NewInt(0))
}

// RecoverFromSharedNonce recovers signer B's key when A and B signed with the
// same nonce and A's key is known. The nonce is first recovered from A's
// signature as k = sA·(1 + dA) + rA·dA, then RecoverFromLeakedNonce is
// applied to B's signature.
func RecoverFromSharedNonce(c *sm2.Curve, dA *big.Int, sigA, sigB *Signature) (*big.Int, error) {
	if err := checkSignature(c, sigA); err != nil {
		return nil, err
	}
	if err := c.ValidScalar(dA); err != nil {
		return nil, fmt.Errorf("invalid key for signer A: %w", err)
	}
	n := c.Params().N

	k := new(big.Int).Add(dA, big.NewInt(1))
	k.Mul(k, sigA.S)
	k.Add(k, new(big.Int).Mul(sigA.R, dA))
	k.Mod(k, n)

	return RecoverFromLeakedNonce(c, sigB, k)
}

// RecoverFromCrossScheme recovers d when the same (d, k) produced an ECDSA
// signature (r1, s1) over a digest e1 and an SM2 signature (r2, s2), both on
// the same curve. ECDSA gives k = (e1 + r1·d)/s1 and SM2 gives
// k = s2 + (s2 + r2)·d, hence
//
//	d = (s1·s2 - e1) / (r1 - s1·s2 - s1·r2) mod n
func RecoverFromCrossScheme(c *sm2.Curve, ecdsaSig *Signature, e1 *big.Int, sm2Sig *Signature) (*big.Int, error) {
	if err := checkSignature(c, ecdsaSig); err != nil {
		return nil, fmt.Errorf("ecdsa signature: %w", err)
	}
	if err := checkSignature(c, sm2Sig); err != nil {
		return nil, fmt.Errorf("sm2 signature: %w", err)
	}
	if e1 == nil {
		return nil, errors.New("ecdsa message digest is nil")
	}
	n := c.Params().N
	r1, s1 := ecdsaSig.R, ecdsaSig.S
	r2, s2 := sm2Sig.R, sm2Sig.S

	s1s2 := new(big.Int).Mul(s1, s2)

	num := new(big.Int).Sub(s1s2, e1)

	den := new(big.Int).Sub(r1, s1s2)
	den.Sub(den, new(big.Int).Mul(s1, r2))

	return solve(c, num, den, n, "r1 - s1·s2 - s1·r2")
}

// RecoverPrivateKey recovers d from two SM2 signatures whose nonces satisfy
// k2 = a·k1 + b.
//
// Substituting k = s + (s + r)·d for both signatures gives
//
//	d = (a·s1 + b - s2) / (s2 + r2 - a·s1 - a·r1) mod n
//
// With a = 1 and b = 0 this is nonce reuse.
//
// Args:
//   - sig1, sig2: Two signatures with affinely related nonces
//   - a: Affine coefficient (k2 = a*k1 + b)
//   - b: Affine offset (k2 = a*k1 + b)
//
// Returns:
//   - Private key if recovery successful, error otherwise
func RecoverPrivateKey(c *sm2.Curve, sig1, sig2 *Signature, a, b *big.Int) (*big.Int, error) {
	if err := checkSignature(c, sig1); err != nil {
		return nil, err
	}
	if err := checkSignature(c, sig2); err != nil {
		return nil, err
	}
	n := c.Params().N

	// Numerator: a*s1 + b - s2
	num := new(big.Int).Mul(a, sig1.S)
	num.Add(num, b)
	num.Sub(num, sig2.S)

	// Denominator: s2 + r2 - a*(s1 + r1)
	as1r1 := new(big.Int).Add(sig1.S, sig1.R)
	as1r1.Mul(as1r1, a)
	den := new(big.Int).Add(sig2.S, sig2.R)
	den.Sub(den, as1r1)

	return solve(c, num, den, n, "s2 + r2 - a·(s1 + r1)")
}

// VerifyRecoveredKey reports whether d·G equals the encoded public key.
// publicKey may be compressed (33 bytes) or uncompressed (64 or 65 bytes).
func VerifyRecoveredKey(c *sm2.Curve, d *big.Int, publicKey []byte) (bool, error) {
	pub, err := sm2.ParsePublicKey(c, publicKey)
	if err != nil {
		return false, fmt.Errorf("failed to parse public key: %w", err)
	}
	if err := c.ValidScalar(d); err != nil {
		return false, fmt.Errorf("private key out of valid range: %w", err)
	}

	p, err := c.ScalarBaseMult(d)
	if err != nil {
		return false, err
	}
	candidate := &sm2.PublicKey{Curve: c, X: p.X, Y: p.Y}

	return subtle.ConstantTimeCompare(candidate.Bytes(), pub.Bytes()) == 1, nil
}

// HashMessage hashes a message with SHA-256 and reduces it mod n. It is the
// digest used by the ECDSA side of the cross-scheme scenario.
func HashMessage(c *sm2.Curve, message []byte) *big.Int {
	h := sha256.Sum256(message)
	z := new(big.Int).SetBytes(h[:])
	return z.Mod(z, c.Params().N)
}

// solve returns num / den mod n.
func solve(c *sm2.Curve, num, den, n *big.Int, denName string) (*big.Int, error) {
	den = new(big.Int).Mod(den, n)
	if den.Sign() == 0 {
		return nil, fmt.Errorf("%w: denominator %s is zero mod n", ErrUnrecoverableAttack, denName)
	}

	inv, err := c.ModInverse(den, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecoverableAttack, err)
	}

	d := new(big.Int).Mul(num, inv)
	d.Mod(d, n)
	if d.Sign() == 0 {
		return nil, fmt.Errorf("%w: recovered scalar is zero", ErrUnrecoverableAttack)
	}
	return d, nil
}

func checkSignature(c *sm2.Curve, sig *Signature) error {
	if sig == nil || sig.R == nil || sig.S == nil {
		return errors.New("signature is incomplete")
	}
	n := c.Params().N
	if sig.R.Sign() <= 0 || sig.R.Cmp(n) >= 0 || sig.S.Sign() <= 0 || sig.S.Cmp(n) >= 0 {
		return fmt.Errorf("signature component out of range: %w", sm2.ErrInvalidScalar)
	}
	return nil
}
