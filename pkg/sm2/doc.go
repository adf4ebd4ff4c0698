// Package sm2 implements an SM2-style elliptic curve signature and public-key
// encryption scheme (GB/T 32918) over short Weierstrass curves.
//
// # Quick Start
//
//	engine, err := sm2.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	priv, err := engine.GenerateKey()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sig, err := engine.Sign(priv, []byte("message"), []byte("alice"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ok := engine.Verify(priv.Public(), []byte("message"), []byte("alice"), sig)
//
// Signatures are bound to an identifier through the identity digest ZA, so a
// signature made for "alice" does not verify for "bob".
//
// # Configuration
//
// The engine defaults to the 256-bit example curve of the standard, the SM3
// digest, crypto/rand and a per-engine memoisation cache:
//
//	engine, err := sm2.New(
//	    sm2.WithCurve(sm2.SM2P256V1Params()),
//	    sm2.WithHash(sm2.SHA3_256),
//	    sm2.WithNonceSource(sm2.NewDeterministicNonces(sm2.SM3)),
//	    sm2.WithWorkers(8),
//	)
//
// # Encryption
//
// Encrypt produces C1 || C3 || C2: a 64-byte ephemeral point, a digest-sized
// integrity tag and the masked payload. Decrypt never returns plaintext whose
// tag does not match.
//
// # Side channels
//
// Scalar multiplication uses a Montgomery ladder and security decisions use
// crypto/subtle comparisons, but the field arithmetic is math/big and the
// Cache is data dependent. This package is not a certified implementation.
package sm2
