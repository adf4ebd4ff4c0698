package sm2misuse

import (
	"encoding/hex"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/mahdiidarabi/sm2-affine/pkg/sm2"
)

// queuedNonces hands out a fixed list of nonces in order, one per call.
type queuedNonces struct {
	mu     sync.Mutex
	nonces []*big.Int
}

func (q *queuedNonces) Nonce(_, _, _ *big.Int, _ int) (*big.Int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.nonces) == 0 {
		return nil, errors.New("nonce queue exhausted")
	}
	k := q.nonces[0]
	q.nonces = q.nonces[1:]
	return new(big.Int).Set(k), nil
}

// signWithNonces signs each message in turn with the matching nonce and
// returns the signatures annotated with message, identity and digest.
func signWithNonces(t *testing.T, priv *sm2.PrivateKey, msgs []string, id string, nonces []*big.Int) []*Signature {
	t.Helper()
	if len(msgs) != len(nonces) {
		t.Fatalf("got %d messages and %d nonces", len(msgs), len(nonces))
	}

	engine, err := sm2.New(
		sm2.WithCurve(priv.Curve.Params()),
		sm2.WithNonceSource(&queuedNonces{nonces: nonces}),
		sm2.WithMaxNonceAttempts(1),
	)
	if err != nil {
		t.Fatalf("sm2.New failed: %v", err)
	}

	sigs := make([]*Signature, len(msgs))
	for i, msg := range msgs {
		sig, err := engine.Sign(priv, []byte(msg), []byte(id))
		if err != nil {
			t.Fatalf("Sign(%q) failed: %v", msg, err)
		}
		if !engine.Verify(priv.Public(), []byte(msg), []byte(id), sig) {
			t.Fatalf("signature over %q does not verify", msg)
		}
		e, err := engine.MessageDigest(priv.Public(), []byte(msg), []byte(id))
		if err != nil {
			t.Fatalf("MessageDigest failed: %v", err)
		}
		sigs[i] = &Signature{Message: []byte(msg), ID: []byte(id), E: e, R: sig.R, S: sig.S}
	}
	return sigs
}

// testCurve returns a cache-free sm2-test curve.
func testCurve() *sm2.Curve {
	return sm2.NewCurve(sm2.TestCurveParams(), nil)
}

// testKey derives a key pair from a hex scalar.
func testKey(t *testing.T, c *sm2.Curve, dHex string) *sm2.PrivateKey {
	t.Helper()
	d, ok := new(big.Int).SetString(dHex, 16)
	if !ok {
		t.Fatalf("invalid scalar %q", dHex)
	}
	priv, err := sm2.NewPrivateKey(c, d)
	if err != nil {
		t.Fatalf("NewPrivateKey failed: %v", err)
	}
	return priv
}

func pubHex(priv *sm2.PrivateKey) string {
	return hex.EncodeToString(priv.Public().Bytes())
}

func nonce(hexStr string) *big.Int {
	k, ok := new(big.Int).SetString(hexStr, 16)
	if !ok {
		panic("invalid nonce " + hexStr)
	}
	return k
}

const (
	keyA = "128B2FA8BD433C6C068C8D803DFF79792A519A55171B1B650C23661D15897263"
	keyB = "3945208F7B2144B13F36E38AC6D39F95889393692860B51A42FB81EF4DF7C5B8"
	k1   = "6CB28D99385C175C94F94E934817663FC176D925DD72B727260DBAAE1FB2F96F"
)
