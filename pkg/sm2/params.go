package sm2

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// CurveParams holds the constants of a short Weierstrass curve
// y² = x³ + a·x + b over GF(p) with a base point G of prime order N.
// Values are shared and must not be modified.
type CurveParams struct {
	Name    string
	P       *big.Int // field prime
	A, B    *big.Int // curve coefficients
	Gx, Gy  *big.Int // base point
	N       *big.Int // order of G
	BitSize int
}

// Curve names understood by CurveByName.
const (
	CurveSM2Test   = "sm2-test"
	CurveSM2P256V1 = "sm2p256v1"
	CurveSecp256k1 = "secp256k1"
)

var (
	testCurve = &CurveParams{
		Name:    CurveSM2Test,
		P:       fromHex("8542D69E4C044F18E8B92435BF6FF7DE457283915C45517D722EDB8B08F1DFC3"),
		A:       fromHex("787968B4FA32C3FD2417842E73BBFEFF2F3C848B6831D7E0EC65228B3937E498"),
		B:       fromHex("63E4C6D3B23B0C849CF84241484BFE48F61D59A5B16BA06E6E12D1DA27C5249A"),
		Gx:      fromHex("421DEBD61B62EAB6746434EBC3CC315E32220B3BADD50BDC4C4E6C147FEDD43D"),
		Gy:      fromHex("0680512BCBB42C07D47349D2153B70C4E5D7FDFCBFA36EA1A85841B9E46E09A2"),
		N:       fromHex("8542D69E4C044F18E8B92435BF6FF7DD297720630485628D5AE74EE7C32E79B7"),
		BitSize: 256,
	}

	sm2p256v1 = &CurveParams{
		Name:    CurveSM2P256V1,
		P:       fromHex("FFFFFFFEFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF00000000FFFFFFFFFFFFFFFF"),
		A:       fromHex("FFFFFFFEFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF00000000FFFFFFFFFFFFFFFC"),
		B:       fromHex("28E9FA9E9D9F5E344D5A9E4BCF6509A7F39789F515AB8F92DDBCBD414D940E93"),
		Gx:      fromHex("32C4AE2C1F1981195F9904466A39C9948FE30BBFF2660BE1715A4589334C74C7"),
		Gy:      fromHex("BC3736A2F4F6779C59BDCEE36B692153D0A9877CC62A474002DF32E52139F0A0"),
		N:       fromHex("FFFFFFFEFFFFFFFFFFFFFFFFFFFFFFFF7203DF6B21C6052B53BBF40939D54123"),
		BitSize: 256,
	}

	koblitz = koblitzParams()
)

// TestCurveParams returns the 256-bit example curve of GB/T 32918. It is the
// default curve of the engine.
func TestCurveParams() *CurveParams {
	return testCurve
}

// SM2P256V1Params returns the recommended SM2 curve.
func SM2P256V1Params() *CurveParams {
	return sm2p256v1
}

// Secp256k1Params returns secp256k1 (a = 0, b = 7).
func Secp256k1Params() *CurveParams {
	return koblitz
}

// CurveByName returns the registered parameters for name.
func CurveByName(name string) (*CurveParams, error) {
	switch strings.ToLower(name) {
	case CurveSM2Test, "":
		return testCurve, nil
	case CurveSM2P256V1, "sm2":
		return sm2p256v1, nil
	case CurveSecp256k1:
		return koblitz, nil
	default:
		return nil, makeError(ErrUnknownCurve, fmt.Sprintf("unsupported curve: %s", name))
	}
}

// SupportedCurves lists the curve identifiers understood by CurveByName.
func SupportedCurves() []string {
	return []string{CurveSM2Test, CurveSM2P256V1, CurveSecp256k1}
}

// koblitzParams copies the secp256k1 domain parameters out of the decred
// implementation so both code paths agree on the constants.
func koblitzParams() *CurveParams {
	p := secp256k1.S256().Params()
	return &CurveParams{
		Name:    CurveSecp256k1,
		P:       new(big.Int).Set(p.P),
		A:       new(big.Int),
		B:       new(big.Int).Set(p.B),
		Gx:      new(big.Int).Set(p.Gx),
		Gy:      new(big.Int).Set(p.Gy),
		N:       new(big.Int).Set(p.N),
		BitSize: p.BitSize,
	}
}

func fromHex(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("invalid hex in curve constants: " + s)
	}
	return v
}
