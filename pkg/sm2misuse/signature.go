package sm2misuse

import "math/big"

// Signature is an SM2 signature together with the data needed to analyse
// it. Only R and S are required by the recovery formulas; E is needed to
// detect nonce reuse without a public key.
type Signature struct {
	Message []byte   // Signed message, if known
	ID      []byte   // Signer identity, if known
	E       *big.Int // e = H(ZA || M), nil when unknown
	R       *big.Int // r component of the signature
	S       *big.Int // s component of the signature
}

// AffineRelationship represents the relationship between two nonces.
// k2 = a*k1 + b
type AffineRelationship struct {
	A *big.Int // Affine coefficient
	B *big.Int // Affine offset
}

// RecoveryResult contains the result of a key recovery operation.
type RecoveryResult struct {
	PrivateKey    *big.Int           // Recovered private key
	Relationship  AffineRelationship // The affine relationship found (k2 = a*k1 + b)
	SignaturePair [2]int             // Indices of the signature pair used
	Verified      bool               // Whether the key was checked against a public key
	Pattern       string             // Human-readable pattern description
}
