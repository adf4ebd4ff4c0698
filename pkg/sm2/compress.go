package sm2

import (
	"fmt"
	"math/big"
)

const (
	compressedEven = 0x02
	compressedOdd  = 0x03
)

// Compress encodes a finite point as a parity prefix (0x02 for even y, 0x03
// for odd y) followed by the fixed-width big-endian x coordinate. The point at
// infinity has no compressed form and yields nil.
func Compress(c *Curve, p Point) []byte {
	if p.IsInfinity() {
		return nil
	}
	out := make([]byte, 1+c.byteLen)
	out[0] = compressedEven
	if p.Y.Bit(0) == 1 {
		out[0] = compressedOdd
	}
	p.X.FillBytes(out[1:])
	return out
}

// Decompress recovers a point from its compressed encoding. The result is
// checked against the curve equation, so an x with no square root on the
// curve is rejected instead of yielding an off-curve point.
func Decompress(c *Curve, b []byte) (Point, error) {
	if len(b) != 1+c.byteLen {
		return Point{}, makeError(ErrInvalidPoint,
			fmt.Sprintf("malformed compressed point: length %d, want %d", len(b), 1+c.byteLen))
	}
	if b[0] != compressedEven && b[0] != compressedOdd {
		return Point{}, makeError(ErrInvalidPoint,
			fmt.Sprintf("invalid compressed point prefix 0x%02x", b[0]))
	}

	P := c.params.P
	x := new(big.Int).SetBytes(b[1:])
	if x.Cmp(P) >= 0 {
		return Point{}, makeError(ErrInvalidPoint, "x coordinate is not reduced")
	}

	w := c.rhs(x)
	y := sqrtMod(w, P)
	if y == nil {
		return Point{}, makeError(ErrInvalidPoint, "x is not the abscissa of a curve point")
	}

	// w = 0 has the single root y = 0, which is even.
	if y.Bit(0) != uint(b[0]&1) {
		if y.Sign() == 0 {
			return Point{}, makeError(ErrInvalidPoint, "no odd y for this x")
		}
		y.Sub(P, y)
	}

	p := Point{X: x, Y: y}
	if !c.IsOnCurve(p) {
		return Point{}, makeError(ErrInvalidPoint, "decompressed point is not on the curve")
	}
	return p, nil
}

// sqrtMod returns a square root of w modulo the prime p, or nil when w is a
// non-residue. For p ≡ 3 (mod 4) the root is w^((p+1)/4).
func sqrtMod(w, p *big.Int) *big.Int {
	var y *big.Int
	if p.Bit(0) == 1 && p.Bit(1) == 1 {
		e := new(big.Int).Add(p, one)
		e.Rsh(e, 2)
		y = new(big.Int).Exp(w, e, p)
	} else {
		y = new(big.Int).ModSqrt(w, p)
		if y == nil {
			return nil
		}
	}

	check := new(big.Int).Mul(y, y)
	check.Mod(check, p)
	if check.Cmp(w) != 0 {
		return nil
	}
	return y
}
