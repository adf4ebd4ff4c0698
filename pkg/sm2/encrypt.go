package sm2

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"

	"github.com/mahdiidarabi/sm2-affine/internal/logging"
)

// Encrypt encrypts msg to pub. The output is
//
//	C1 || C3 || C2
//
// with C1 = k·G as X || Y, C3 = H(x2 || msg || y2) and C2 = msg XOR
// KDF(x2 || y2) where (x2, y2) = k·P.
func (e *Engine) Encrypt(pub *PublicKey, msg []byte) ([]byte, error) {
	bound, err := e.bind(pub)
	if err != nil {
		return nil, err
	}
	if len(msg) == 0 {
		return nil, makeError(ErrEmptyPlaintext, "plaintext must not be empty")
	}

	c := e.curve
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		k, err := randScalar(c.params.N, e.rand)
		if err != nil {
			return nil, err
		}

		out, err := e.encryptWithNonce(bound, msg, k)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrRetryWithFreshNonce) {
			return nil, err
		}
		e.logger.Debug("rejected encryption nonce", "attempt", attempt, "reason", err.Error(), logging.Redacted("nonce"))
	}

	return nil, makeError(ErrRetryWithFreshNonce,
		fmt.Sprintf("no usable encryption nonce after %d attempts", e.maxAttempts))
}

func (e *Engine) encryptWithNonce(pub *PublicKey, msg []byte, k *big.Int) ([]byte, error) {
	c := e.curve

	c1, err := c.ScalarBaseMult(k)
	if err != nil {
		return nil, err
	}
	shared, err := c.ScalarMult(k, pub.Point())
	if err != nil {
		return nil, err
	}
	if shared.IsInfinity() {
		return nil, makeError(ErrRetryWithFreshNonce, "shared point is infinity")
	}

	x2, y2 := c.coordBytes(shared.X), c.coordBytes(shared.Y)
	t := KDF(e.hash.New, append(append([]byte(nil), x2...), y2...), len(msg)*8)
	if allZero(t) {
		return nil, makeError(ErrRetryWithFreshNonce, "key stream is all zero")
	}

	c3 := e.hash.Sum(x2, msg, y2)

	out := make([]byte, 0, 2*c.byteLen+len(c3)+len(msg))
	out = append(out, c.coordBytes(c1.X)...)
	out = append(out, c.coordBytes(c1.Y)...)
	out = append(out, c3...)
	for i := range msg {
		out = append(out, msg[i]^t[i])
	}
	return out, nil
}

// Decrypt reverses Encrypt. No plaintext is returned unless the C3 tag
// matches.
func (e *Engine) Decrypt(priv *PrivateKey, ciphertext []byte) ([]byte, error) {
	if priv == nil {
		return nil, makeError(ErrInvalidScalar, "private key must not be nil")
	}
	c := e.curve
	if err := c.ValidScalar(priv.D); err != nil {
		return nil, err
	}

	pointLen := 2 * c.byteLen
	tagLen := e.hash.Size()
	if len(ciphertext) < pointLen+tagLen+1 {
		return nil, makeError(ErrInvalidCiphertextLength,
			fmt.Sprintf("ciphertext is %d bytes, minimum is %d", len(ciphertext), pointLen+tagLen+1))
	}

	c1 := Point{
		X: new(big.Int).SetBytes(ciphertext[:c.byteLen]),
		Y: new(big.Int).SetBytes(ciphertext[c.byteLen:pointLen]),
	}
	c3 := ciphertext[pointLen : pointLen+tagLen]
	c2 := ciphertext[pointLen+tagLen:]

	if !c.IsOnCurve(c1) {
		return nil, makeError(ErrInvalidPoint, "C1 is not on the curve")
	}

	shared, err := c.ScalarMult(priv.D, c1)
	if err != nil {
		return nil, err
	}
	if shared.IsInfinity() {
		return nil, makeError(ErrDecryptionFailed, "shared point is infinity")
	}

	x2, y2 := c.coordBytes(shared.X), c.coordBytes(shared.Y)
	t := KDF(e.hash.New, append(append([]byte(nil), x2...), y2...), len(c2)*8)
	if allZero(t) {
		return nil, makeError(ErrDecryptionFailed, "key stream is all zero")
	}

	msg := make([]byte, len(c2))
	subtle.XORBytes(msg, c2, t)

	tag := e.hash.Sum(x2, msg, y2)
	if subtle.ConstantTimeCompare(tag, c3) != 1 {
		clear(msg)
		e.logger.Warn("ciphertext integrity check failed", "ciphertext_len", len(ciphertext))
		return nil, makeError(ErrIntegrityMismatch, "C3 does not match the decrypted payload")
	}
	return msg, nil
}
