package sm2

import (
	"bytes"
	"errors"
	"math/big"
	"testing"
)

// fixedNonce returns the same nonce on every attempt.
type fixedNonce struct {
	k *big.Int
}

func (f fixedNonce) Nonce(_, _, _ *big.Int, _ int) (*big.Int, error) {
	return new(big.Int).Set(f.k), nil
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	engine, err := New(opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return engine
}

func TestSignVerifyRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		params *CurveParams
		hash   Hash
	}{
		{"sm2-test/sm3", TestCurveParams(), SM3},
		{"sm2p256v1/sm3", SM2P256V1Params(), SM3},
		{"sm2p256v1/sha256", SM2P256V1Params(), SHA256},
		{"secp256k1/sha3-256", Secp256k1Params(), SHA3_256},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			engine := newTestEngine(t, WithCurve(test.params), WithHash(test.hash))
			priv, err := engine.GenerateKey()
			if err != nil {
				t.Fatalf("GenerateKey failed: %v", err)
			}

			msg := []byte("the quick brown fox")
			id := []byte("1234567812345678")
			sig, err := engine.Sign(priv, msg, id)
			if err != nil {
				t.Fatalf("Sign failed: %v", err)
			}
			if !engine.Verify(priv.Public(), msg, id, sig) {
				t.Fatal("valid signature rejected")
			}

			tampered := append([]byte(nil), msg...)
			tampered[0] ^= 0x01
			if engine.Verify(priv.Public(), tampered, id, sig) {
				t.Error("signature verified for an altered message")
			}
		})
	}
}

func TestSignBoundaryKey(t *testing.T) {
	engine := newTestEngine(t, WithRand(zeroReader{}))

	priv, err := engine.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	if priv.D.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("d = %s, want 1", priv.D.Text(16))
	}
	if !priv.Point().Equal(engine.Curve().Generator()) {
		t.Fatal("public key for d = 1 is not G")
	}

	msg := []byte("test")
	sig, err := engine.Sign(priv, msg, []byte("alice"))
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if !engine.Verify(priv.Public(), msg, []byte("alice"), sig) {
		t.Error("signature does not verify under alice")
	}
	if engine.Verify(priv.Public(), msg, []byte("bob"), sig) {
		t.Error("signature verifies under bob")
	}
}

func TestVerifyRejectsMalformed(t *testing.T) {
	engine := newTestEngine(t)
	priv, err := engine.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	msg, id := []byte("hello"), []byte("alice")
	sig, err := engine.Sign(priv, msg, id)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	n := engine.Curve().Params().N

	other, err := engine.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	k1 := newTestEngine(t, WithCurve(Secp256k1Params()))
	foreign, err := k1.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	tests := []struct {
		name string
		pub  *PublicKey
		sig  *Signature
	}{
		{"nil signature", priv.Public(), nil},
		{"nil r", priv.Public(), &Signature{S: sig.S}},
		{"r = 0", priv.Public(), &Signature{R: big.NewInt(0), S: sig.S}},
		{"s = 0", priv.Public(), &Signature{R: sig.R, S: big.NewInt(0)}},
		{"r = n", priv.Public(), &Signature{R: n, S: sig.S}},
		{"s = n", priv.Public(), &Signature{R: sig.R, S: n}},
		{"r + s = n", priv.Public(), &Signature{R: sig.R, S: new(big.Int).Sub(n, sig.R)}},
		{"wrong key", other.Public(), sig},
		{"key on another curve", foreign.Public(), sig},
		{"infinity key", &PublicKey{Curve: engine.Curve()}, sig},
	}
	for _, test := range tests {
		if engine.Verify(test.pub, msg, id, test.sig) {
			t.Errorf("%s: verified", test.name)
		}
	}
}

func TestSignRejectsUnsignableKey(t *testing.T) {
	engine := newTestEngine(t)
	n := engine.Curve().Params().N

	priv, err := NewPrivateKey(engine.Curve(), new(big.Int).Sub(n, one))
	if err != nil {
		t.Fatalf("NewPrivateKey failed: %v", err)
	}
	if _, err := engine.Sign(priv, []byte("m"), []byte("id")); !errors.Is(err, ErrInvalidScalar) {
		t.Errorf("d = n-1: expected ErrInvalidScalar, got %v", err)
	}
}

func TestSignRejectsInvalidNonce(t *testing.T) {
	engine := newTestEngine(t, WithNonceSource(fixedNonce{k: big.NewInt(0)}))
	priv, err := engine.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	if _, err := engine.Sign(priv, []byte("m"), []byte("id")); !errors.Is(err, ErrInvalidScalar) {
		t.Errorf("expected ErrInvalidScalar, got %v", err)
	}
}

func TestSignWithNonceDegenerate(t *testing.T) {
	engine := newTestEngine(t)
	c := engine.Curve()
	n := c.Params().N
	gx := c.Params().Gx

	d := big.NewInt(5)
	dInv, err := c.ModInverse(new(big.Int).Add(d, one), n)
	if err != nil {
		t.Fatalf("ModInverse failed: %v", err)
	}
	k := big.NewInt(1) // R = G

	// r = 0
	digest := new(big.Int).Sub(n, gx)
	digest.Mod(digest, n)
	if _, err := engine.signWithNonce(d, dInv, digest, k); !errors.Is(err, ErrRetryWithFreshNonce) {
		t.Errorf("r = 0: expected ErrRetryWithFreshNonce, got %v", err)
	}

	// r + k = n
	digest = new(big.Int).Sub(n, gx)
	digest.Sub(digest, k)
	digest.Mod(digest, n)
	if _, err := engine.signWithNonce(d, dInv, digest, k); !errors.Is(err, ErrRetryWithFreshNonce) {
		t.Errorf("r + k = n: expected ErrRetryWithFreshNonce, got %v", err)
	}

	// s = 0 when k = r·d. With digest = 0, r = Gx mod n, so pick d = k·r⁻¹.
	r := new(big.Int).Mod(gx, n)
	rInv, err := c.ModInverse(r, n)
	if err != nil {
		t.Fatalf("ModInverse failed: %v", err)
	}
	d = new(big.Int).Mul(k, rInv)
	d.Mod(d, n)
	dInv, err = c.ModInverse(new(big.Int).Add(d, one), n)
	if err != nil {
		t.Fatalf("ModInverse failed: %v", err)
	}
	if _, err := engine.signWithNonce(d, dInv, big.NewInt(0), k); !errors.Is(err, ErrRetryWithFreshNonce) {
		t.Errorf("s = 0: expected ErrRetryWithFreshNonce, got %v", err)
	}
}

func TestDeterministicNonces(t *testing.T) {
	src := NewDeterministicNonces(SM3)
	engine := newTestEngine(t, WithNonceSource(src))
	priv, err := engine.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	id := []byte("alice")

	sig1, err := engine.Sign(priv, []byte("one"), id)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	sig1b, err := engine.Sign(priv, []byte("one"), id)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	sig2, err := engine.Sign(priv, []byte("two"), id)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if !bytes.Equal(sig1.Bytes(), sig1b.Bytes()) {
		t.Error("same message produced different signatures")
	}
	if bytes.Equal(sig1.Bytes(), sig2.Bytes()) {
		t.Error("different messages produced the same signature")
	}
	if !engine.Verify(priv.Public(), []byte("two"), id, sig2) {
		t.Error("deterministic signature rejected")
	}

	n := engine.Curve().Params().N
	e := big.NewInt(42)
	k0, err := src.Nonce(n, priv.D, e, 0)
	if err != nil {
		t.Fatalf("Nonce failed: %v", err)
	}
	k1, err := src.Nonce(n, priv.D, e, 1)
	if err != nil {
		t.Fatalf("Nonce failed: %v", err)
	}
	if k0.Cmp(k1) == 0 {
		t.Error("retry attempt produced the same nonce")
	}
	if err := engine.Curve().ValidScalar(k0); err != nil {
		t.Errorf("nonce out of range: %v", err)
	}
}

func TestSignatureEncoding(t *testing.T) {
	sig := &Signature{R: big.NewInt(1), S: big.NewInt(0x0203)}
	enc := sig.Bytes()
	if len(enc) != SignatureSize {
		t.Fatalf("encoding length = %d, want %d", len(enc), SignatureSize)
	}
	if enc[31] != 1 || enc[62] != 2 || enc[63] != 3 {
		t.Errorf("unexpected encoding %x", enc)
	}

	got, err := ParseSignature(enc)
	if err != nil {
		t.Fatalf("ParseSignature failed: %v", err)
	}
	if got.R.Cmp(sig.R) != 0 || got.S.Cmp(sig.S) != 0 {
		t.Error("decoded signature differs")
	}

	if _, err := ParseSignature(enc[:63]); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(WithCurve(nil)); !errors.Is(err, ErrUnknownCurve) {
		t.Errorf("nil curve: expected ErrUnknownCurve, got %v", err)
	}
	if _, err := New(WithHash(Hash{Name: "none"})); !errors.Is(err, ErrUnknownHash) {
		t.Errorf("nil hash: expected ErrUnknownHash, got %v", err)
	}
	if _, err := HashByName("md5"); !errors.Is(err, ErrUnknownHash) {
		t.Errorf("md5: expected ErrUnknownHash, got %v", err)
	}
}
