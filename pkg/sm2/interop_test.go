package sm2

import (
	"crypto/rand"
	"testing"

	gmsm "github.com/tjfoc/gmsm/sm2"
)

// defaultUID is the identifier GB/T 32918 implementations use when none is
// supplied.
var defaultUID = []byte("1234567812345678")

func TestScalarMultMatchesGMSM(t *testing.T) {
	c := NewCurve(SM2P256V1Params(), NewCache())
	ref := gmsm.P256Sm2()

	for i := 0; i < 4; i++ {
		k, err := randScalar(c.Params().N, rand.Reader)
		if err != nil {
			t.Fatalf("randScalar failed: %v", err)
		}
		got, err := c.ScalarBaseMult(k)
		if err != nil {
			t.Fatalf("ScalarBaseMult failed: %v", err)
		}
		wantX, wantY := ref.ScalarBaseMult(k.Bytes())
		if got.X.Cmp(wantX) != 0 || got.Y.Cmp(wantY) != 0 {
			t.Errorf("k=%s: point differs from gmsm", k.Text(16))
		}
	}
}

func TestSignatureInteropGMSM(t *testing.T) {
	engine := newTestEngine(t, WithCurve(SM2P256V1Params()), WithHash(SM3))
	priv, err := engine.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	refPriv := &gmsm.PrivateKey{
		PublicKey: gmsm.PublicKey{Curve: gmsm.P256Sm2(), X: priv.X, Y: priv.Y},
		D:         priv.D,
	}
	msg := []byte("interoperability")

	sig, err := engine.Sign(priv, msg, defaultUID)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if !gmsm.Sm2Verify(&refPriv.PublicKey, msg, defaultUID, sig.R, sig.S) {
		t.Error("gmsm rejected our signature")
	}

	r, s, err := gmsm.Sm2Sign(refPriv, msg, defaultUID, rand.Reader)
	if err != nil {
		t.Fatalf("gmsm Sm2Sign failed: %v", err)
	}
	if !engine.Verify(priv.Public(), msg, defaultUID, &Signature{R: r, S: s}) {
		t.Error("gmsm signature rejected")
	}
}
