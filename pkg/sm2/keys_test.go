package sm2

import (
	"bytes"
	"errors"
	"math/big"
	"testing"
)

// zeroReader yields an endless stream of zero bytes.
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func TestGenerateKeyMatchesRecomputation(t *testing.T) {
	for _, params := range []*CurveParams{TestCurveParams(), SM2P256V1Params(), Secp256k1Params()} {
		c := NewCurve(params, NewCache())
		for i := 0; i < 3; i++ {
			priv, err := GenerateKey(c, nil)
			if err != nil {
				t.Fatalf("%s: GenerateKey failed: %v", params.Name, err)
			}
			if err := c.ValidScalar(priv.D); err != nil {
				t.Fatalf("%s: generated scalar out of range: %v", params.Name, err)
			}

			// Recompute on a cache-free curve so memoisation cannot mask errors.
			p := naiveScalarMult(NewCurve(params, nil), priv.D, c.Generator())
			if !p.Equal(priv.Point()) {
				t.Errorf("%s: P != d·G", params.Name)
			}
		}
	}
}

func TestGenerateKeyZeroReader(t *testing.T) {
	c := NewCurve(TestCurveParams(), nil)

	priv, err := GenerateKey(c, zeroReader{})
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	if priv.D.Cmp(one) != 0 {
		t.Fatalf("d = %s, want 1", priv.D.Text(16))
	}
	if !priv.Point().Equal(c.Generator()) {
		t.Error("1·G != G")
	}
}

func TestNewPrivateKeyRejectsInvalid(t *testing.T) {
	c := NewCurve(TestCurveParams(), nil)
	for _, d := range []*big.Int{big.NewInt(0), c.Params().N} {
		if _, err := NewPrivateKey(c, d); !errors.Is(err, ErrInvalidScalar) {
			t.Errorf("d=%s: expected ErrInvalidScalar, got %v", d.Text(16), err)
		}
	}
}

func TestCompressRoundTrip(t *testing.T) {
	for _, params := range []*CurveParams{TestCurveParams(), SM2P256V1Params(), Secp256k1Params()} {
		c := NewCurve(params, NewCache())

		var seenEven, seenOdd bool
		for k := int64(1); k < 64 && !(seenEven && seenOdd); k++ {
			p, err := c.ScalarBaseMult(big.NewInt(k))
			if err != nil {
				t.Fatalf("ScalarBaseMult failed: %v", err)
			}

			enc := Compress(c, p)
			if len(enc) != 33 {
				t.Fatalf("compressed length = %d, want 33", len(enc))
			}
			wantPrefix := byte(0x02)
			if p.Y.Bit(0) == 1 {
				wantPrefix = 0x03
				seenOdd = true
			} else {
				seenEven = true
			}
			if enc[0] != wantPrefix {
				t.Errorf("%s k=%d: prefix 0x%02x, want 0x%02x", params.Name, k, enc[0], wantPrefix)
			}

			got, err := Decompress(c, enc)
			if err != nil {
				t.Fatalf("%s k=%d: Decompress failed: %v", params.Name, k, err)
			}
			if !got.Equal(p) {
				t.Errorf("%s k=%d: round trip mismatch", params.Name, k)
			}
		}
		if !seenEven || !seenOdd {
			t.Errorf("%s: did not exercise both parities", params.Name)
		}
	}
}

func TestDecompressRejectsMalformed(t *testing.T) {
	c := NewCurve(TestCurveParams(), nil)
	g := Compress(c, c.Generator())

	badPrefix := append([]byte(nil), g...)
	badPrefix[0] = 0x04

	unreduced := make([]byte, 33)
	unreduced[0] = 0x02
	c.Params().P.FillBytes(unreduced[1:])

	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", nil},
		{"short", g[:32]},
		{"long", append(append([]byte(nil), g...), 0)},
		{"bad prefix", badPrefix},
		{"x >= p", unreduced},
	}
	for _, test := range tests {
		if _, err := Decompress(c, test.in); !errors.Is(err, ErrInvalidPoint) {
			t.Errorf("%s: expected ErrInvalidPoint, got %v", test.name, err)
		}
	}

	// Roughly half of all x values are not on the curve.
	var rejected bool
	for x := int64(1); x < 64; x++ {
		enc := make([]byte, 33)
		enc[0] = 0x02
		big.NewInt(x).FillBytes(enc[1:])
		p, err := Decompress(c, enc)
		if err != nil {
			if !errors.Is(err, ErrInvalidPoint) {
				t.Fatalf("x=%d: unexpected error %v", x, err)
			}
			rejected = true
			continue
		}
		if !c.IsOnCurve(p) {
			t.Fatalf("x=%d: decompressed point is not on the curve", x)
		}
	}
	if !rejected {
		t.Error("no x value was rejected")
	}
}

func TestParsePublicKey(t *testing.T) {
	c := NewCurve(TestCurveParams(), NewCache())
	priv, err := GenerateKey(c, nil)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	raw := priv.Public().Bytes()
	if len(raw) != 64 {
		t.Fatalf("uncompressed length = %d, want 64", len(raw))
	}

	forms := map[string][]byte{
		"raw":          raw,
		"uncompressed": append([]byte{0x04}, raw...),
		"compressed":   priv.Public().Compressed(),
	}
	for name, enc := range forms {
		pub, err := ParsePublicKey(c, enc)
		if err != nil {
			t.Fatalf("%s: ParsePublicKey failed: %v", name, err)
		}
		if !bytes.Equal(pub.Bytes(), raw) {
			t.Errorf("%s: decoded key differs", name)
		}
	}

	offCurve := append([]byte(nil), raw...)
	offCurve[63] ^= 1
	if _, err := ParsePublicKey(c, offCurve); !errors.Is(err, ErrInvalidPoint) {
		t.Errorf("off-curve key: expected ErrInvalidPoint, got %v", err)
	}
	if _, err := ParsePublicKey(c, raw[:40]); !errors.Is(err, ErrInvalidPoint) {
		t.Errorf("short key: expected ErrInvalidPoint, got %v", err)
	}
}

func TestIdentityDigest(t *testing.T) {
	cache := NewCache()
	c := NewCurve(TestCurveParams(), cache)
	priv, err := NewPrivateKey(c, big.NewInt(7))
	if err != nil {
		t.Fatalf("NewPrivateKey failed: %v", err)
	}
	pub := priv.Public()

	alice, err := IdentityDigest(SM3, pub, []byte("alice"))
	if err != nil {
		t.Fatalf("IdentityDigest failed: %v", err)
	}
	if len(alice) != 32 {
		t.Fatalf("digest length = %d, want 32", len(alice))
	}
	again, err := IdentityDigest(SM3, pub, []byte("alice"))
	if err != nil {
		t.Fatalf("IdentityDigest failed: %v", err)
	}
	if !bytes.Equal(alice, again) {
		t.Error("digest is not deterministic")
	}
	if got := cache.Stats().Digests; got != 1 {
		t.Errorf("digest cache has %d entries, want 1", got)
	}

	bob, err := IdentityDigest(SM3, pub, []byte("bob"))
	if err != nil {
		t.Fatalf("IdentityDigest failed: %v", err)
	}
	if bytes.Equal(alice, bob) {
		t.Error("different identities share a digest")
	}

	viaSHA, err := IdentityDigest(SHA256, pub, []byte("alice"))
	if err != nil {
		t.Fatalf("IdentityDigest failed: %v", err)
	}
	if bytes.Equal(alice, viaSHA) {
		t.Error("different hashes share a digest")
	}

	// Callers must not be able to corrupt cached digests.
	alice[0] ^= 0xff
	fresh, _ := IdentityDigest(SM3, pub, []byte("alice"))
	if !bytes.Equal(fresh, again) {
		t.Error("cached digest was mutated through a returned slice")
	}

	if _, err := IdentityDigest(SM3, pub, make([]byte, MaxIdentityLen+1)); !errors.Is(err, ErrIdentityTooLong) {
		t.Errorf("expected ErrIdentityTooLong, got %v", err)
	}
	if _, err := IdentityDigest(SM3, pub, make([]byte, MaxIdentityLen)); err != nil {
		t.Errorf("identifier of maximum length rejected: %v", err)
	}

	if _, err := IdentityDigest(SM3, &PublicKey{Curve: c}, []byte("alice")); !errors.Is(err, ErrInvalidPublicKey) {
		t.Errorf("infinity key: expected ErrInvalidPublicKey, got %v", err)
	}
}

func TestCompressInfinity(t *testing.T) {
	c := NewCurve(TestCurveParams(), nil)

	if got := Compress(c, Infinity()); got != nil {
		t.Errorf("Compress(infinity) = %x, want nil", got)
	}
	empty := &PublicKey{Curve: c}
	if got := empty.Compressed(); got != nil {
		t.Errorf("Compressed() = %x, want nil", got)
	}
	if got := empty.Bytes(); got != nil {
		t.Errorf("Bytes() = %x, want nil", got)
	}
	if _, err := Decompress(c, Compress(c, Infinity())); !errors.Is(err, ErrInvalidPoint) {
		t.Errorf("expected ErrInvalidPoint, got %v", err)
	}
}
