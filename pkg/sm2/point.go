package sm2

import "math/big"

// Point is an affine curve point. The zero value is the point at infinity.
// Points are treated as immutable: arithmetic always allocates new
// coordinates, and cached points are shared between callers.
type Point struct {
	X, Y *big.Int
}

// Infinity returns the group identity.
func Infinity() Point {
	return Point{}
}

// NewPoint returns the point (x, y). It does not check the curve equation;
// use Curve.IsOnCurve for that.
func NewPoint(x, y *big.Int) Point {
	return Point{X: new(big.Int).Set(x), Y: new(big.Int).Set(y)}
}

// IsInfinity reports whether p is the point at infinity.
func (p Point) IsInfinity() bool {
	return p.X == nil || p.Y == nil
}

// Equal reports whether p and q are the same point.
func (p Point) Equal(q Point) bool {
	if p.IsInfinity() || q.IsInfinity() {
		return p.IsInfinity() == q.IsInfinity()
	}
	return p.X.Cmp(q.X) == 0 && p.Y.Cmp(q.Y) == 0
}
