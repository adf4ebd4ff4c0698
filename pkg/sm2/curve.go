package sm2

import (
	"fmt"
	"math/big"
)

var (
	one   = big.NewInt(1)
	two   = big.NewInt(2)
	three = big.NewInt(3)
)

// Curve performs group arithmetic for one set of parameters. Results of
// additions and inversions are memoised in the attached Cache.
//
// The arithmetic uses math/big and is therefore not constant time at the
// instruction level. Scalar multiplication runs a Montgomery ladder so that
// the sequence of group operations does not depend on the scalar bits.
type Curve struct {
	params   *CurveParams
	cache    *Cache
	byteLen  int
	ladderSz int
}

// NewCurve binds params to cache. cache may be nil.
func NewCurve(params *CurveParams, cache *Cache) *Curve {
	return &Curve{
		params:   params,
		cache:    cache,
		byteLen:  (params.P.BitLen() + 7) / 8,
		ladderSz: params.N.BitLen(),
	}
}

// Params returns the curve constants.
func (c *Curve) Params() *CurveParams {
	return c.params
}

// Cache returns the attached cache, possibly nil.
func (c *Curve) Cache() *Cache {
	return c.cache
}

// ByteLen is the length of a fixed-width coordinate encoding.
func (c *Curve) ByteLen() int {
	return c.byteLen
}

// Generator returns G.
func (c *Curve) Generator() Point {
	return Point{X: c.params.Gx, Y: c.params.Gy}
}

// ValidScalar checks 1 <= k < n.
func (c *Curve) ValidScalar(k *big.Int) error {
	if k == nil || k.Sign() <= 0 {
		return makeError(ErrInvalidScalar, "scalar must be positive")
	}
	if k.Cmp(c.params.N) >= 0 {
		return makeError(ErrInvalidScalar, "scalar must be less than the group order")
	}
	return nil
}

// IsOnCurve reports whether p is a finite point satisfying
// y² ≡ x³ + a·x + b (mod p) with both coordinates reduced.
func (c *Curve) IsOnCurve(p Point) bool {
	if p.IsInfinity() {
		return false
	}
	P := c.params.P
	if p.X.Sign() < 0 || p.X.Cmp(P) >= 0 || p.Y.Sign() < 0 || p.Y.Cmp(P) >= 0 {
		return false
	}

	lhs := new(big.Int).Mul(p.Y, p.Y)
	lhs.Mod(lhs, P)

	return lhs.Cmp(c.rhs(p.X)) == 0
}

// rhs evaluates x³ + a·x + b mod p.
func (c *Curve) rhs(x *big.Int) *big.Int {
	P := c.params.P

	r := new(big.Int).Mul(x, x)
	r.Mul(r, x)

	ax := new(big.Int).Mul(c.params.A, x)
	r.Add(r, ax)
	r.Add(r, c.params.B)

	return r.Mod(r, P)
}

// ModInverse returns the inverse of v modulo m in [0, m). It fails with
// ErrInvalidScalar when v ≡ 0 (mod m) or v shares a factor with m.
func (c *Curve) ModInverse(v, m *big.Int) (*big.Int, error) {
	r := new(big.Int).Mod(v, m)
	if r.Sign() == 0 {
		return nil, makeError(ErrInvalidScalar, "cannot invert zero")
	}

	key := inverseKey(r, m)
	if inv, ok := c.cache.inverse(key); ok {
		return inv, nil
	}

	inv := new(big.Int).ModInverse(r, m)
	if inv == nil {
		return nil, makeError(ErrInvalidScalar,
			fmt.Sprintf("%s has no inverse modulo %s", r.Text(16), m.Text(16)))
	}

	c.cache.storeInverse(key, inv)
	return inv, nil
}

// Add returns p1 + p2.
func (c *Curve) Add(p1, p2 Point) Point {
	if p1.IsInfinity() {
		return p2
	}
	if p2.IsInfinity() {
		return p1
	}

	key, ok := c.pairKey(p1, p2)
	if !ok {
		return c.add(p1, p2)
	}
	if r, hit := c.cache.point(key); hit {
		return r
	}

	r := c.add(p1, p2)
	c.cache.storePoint(key, r)
	return r
}

// Double returns 2·p.
func (c *Curve) Double(p Point) Point {
	return c.Add(p, p)
}

// Neg returns -p.
func (c *Curve) Neg(p Point) Point {
	if p.IsInfinity() {
		return p
	}
	y := new(big.Int).Neg(p.Y)
	y.Mod(y, c.params.P)
	return Point{X: new(big.Int).Set(p.X), Y: y}
}

func (c *Curve) add(p1, p2 Point) Point {
	P := c.params.P

	num := new(big.Int)
	den := new(big.Int)
	if p1.X.Cmp(p2.X) == 0 {
		// Vertical line: p2 = -p1, or a point of order two.
		if p1.Y.Cmp(p2.Y) != 0 || p1.Y.Sign() == 0 {
			return Infinity()
		}
		num.Mul(p1.X, p1.X)
		num.Mul(num, three)
		num.Add(num, c.params.A)
		den.Mul(p1.Y, two)
	} else {
		num.Sub(p2.Y, p1.Y)
		den.Sub(p2.X, p1.X)
	}

	// den is non-zero mod p on both branches.
	inv, err := c.ModInverse(den, P)
	if err != nil {
		return Infinity()
	}

	slope := num.Mul(num, inv)
	slope.Mod(slope, P)

	x3 := new(big.Int).Mul(slope, slope)
	x3.Sub(x3, p1.X)
	x3.Sub(x3, p2.X)
	x3.Mod(x3, P)

	y3 := new(big.Int).Sub(p1.X, x3)
	y3.Mul(y3, slope)
	y3.Sub(y3, p1.Y)
	y3.Mod(y3, P)

	return Point{X: x3, Y: y3}
}

// ScalarMult returns k·p for 1 <= k < n.
//
// The ladder always runs N.BitLen() rounds of one addition and one doubling.
// The two accumulators are selected by indexing with the current bit instead
// of branching on it.
func (c *Curve) ScalarMult(k *big.Int, p Point) (Point, error) {
	if err := c.ValidScalar(k); err != nil {
		return Point{}, err
	}

	acc := [2]Point{Infinity(), p}
	for i := c.ladderSz - 1; i >= 0; i-- {
		bit := k.Bit(i)
		r0, r1 := acc[bit], acc[1-bit]
		r1 = c.Add(r0, r1)
		r0 = c.Add(r0, r0)
		acc[bit], acc[1-bit] = r0, r1
	}
	return acc[0], nil
}

// ScalarBaseMult returns k·G.
func (c *Curve) ScalarBaseMult(k *big.Int) (Point, error) {
	return c.ScalarMult(k, c.Generator())
}

// pairKey encodes an ordered pair of finite points for the addition cache.
// The curve name keeps entries apart when one cache serves several curves.
// Unreduced coordinates are not cached.
func (c *Curve) pairKey(p1, p2 Point) (string, bool) {
	if c.cache == nil {
		return "", false
	}
	coords := [4]*big.Int{p1.X, p1.Y, p2.X, p2.Y}
	for _, v := range coords {
		if v.Sign() < 0 || v.Cmp(c.params.P) >= 0 {
			return "", false
		}
	}

	name := c.params.Name
	buf := make([]byte, len(name)+4*c.byteLen)
	copy(buf, name)
	off := len(name)
	for _, v := range coords {
		v.FillBytes(buf[off : off+c.byteLen])
		off += c.byteLen
	}
	return string(buf), true
}

// coordBytes encodes v as a fixed-width big-endian field element.
func (c *Curve) coordBytes(v *big.Int) []byte {
	return v.FillBytes(make([]byte, c.byteLen))
}

// scalarBytes encodes v as a fixed-width big-endian scalar.
func (c *Curve) scalarBytes(v *big.Int) []byte {
	return v.FillBytes(make([]byte, (c.params.N.BitLen()+7)/8))
}
