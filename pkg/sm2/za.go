package sm2

import (
	"encoding/binary"
	"fmt"
)

// MaxIdentityLen is the longest identifier, in bytes, whose bit length fits
// the two byte ENTL field.
const MaxIdentityLen = 0xFFFF / 8

// IdentityDigest computes
//
//	ZA = H(ENTL || ID || a || b || Gx || Gy || Px || Py)
//
// where ENTL is the bit length of id as a big-endian uint16 and every field
// element is encoded at the curve's fixed coordinate width. The digest
// depends only on (h, curve, id, pub) and is memoised in the curve cache.
func IdentityDigest(h Hash, pub *PublicKey, id []byte) ([]byte, error) {
	if len(id) > MaxIdentityLen {
		return nil, makeError(ErrIdentityTooLong,
			fmt.Sprintf("identifier is %d bytes, maximum is %d", len(id), MaxIdentityLen))
	}
	if err := pub.Validate(); err != nil {
		return nil, err
	}

	c := pub.Curve
	key := digestKey(h, c, pub, id)
	if za, ok := c.cache.digest(key); ok {
		return za, nil
	}

	var entl [2]byte
	binary.BigEndian.PutUint16(entl[:], uint16(len(id)*8))

	params := c.params
	za := h.Sum(
		entl[:], id,
		c.coordBytes(params.A), c.coordBytes(params.B),
		c.coordBytes(params.Gx), c.coordBytes(params.Gy),
		c.coordBytes(pub.X), c.coordBytes(pub.Y),
	)

	c.cache.storeDigest(key, za)
	return za, nil
}

// digestKey is the composite (hash, curve, identifier, Px, Py) cache key. The
// identifier is length prefixed so that no two inputs share a key.
func digestKey(h Hash, c *Curve, pub *PublicKey, id []byte) string {
	buf := make([]byte, 0, len(h.Name)+len(c.params.Name)+6+len(id)+2*c.byteLen)
	buf = append(buf, h.Name...)
	buf = append(buf, 0)
	buf = append(buf, c.params.Name...)
	buf = append(buf, 0)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(id)))
	buf = append(buf, id...)
	buf = append(buf, c.coordBytes(pub.X)...)
	buf = append(buf, c.coordBytes(pub.Y)...)
	return string(buf)
}
