package sm2

import (
	"encoding/binary"
	"hash"
)

// KDF expands seed into ceil(bitLength/8) bytes by hashing seed || ct for a
// 32-bit big-endian counter ct = 1, 2, ... and concatenating the digests.
func KDF(newHash func() hash.Hash, seed []byte, bitLength int) []byte {
	if bitLength <= 0 {
		return nil
	}
	size := (bitLength + 7) / 8
	out := make([]byte, 0, size)

	h := newHash()
	var ct [4]byte
	for counter := uint32(1); len(out) < size; counter++ {
		binary.BigEndian.PutUint32(ct[:], counter)
		h.Reset()
		h.Write(seed)
		h.Write(ct[:])
		out = append(out, h.Sum(nil)...)
	}
	return out[:size]
}

// allZero reports whether b contains only zero bytes without exiting early.
func allZero(b []byte) bool {
	var acc byte
	for _, v := range b {
		acc |= v
	}
	return acc == 0
}
