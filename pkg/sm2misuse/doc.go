// Package sm2misuse recovers SM2 private keys from signatures whose nonces
// were leaked, reused, shared between signers, shared with an ECDSA
// signature, or related by k₂ = a·k₁ + b.
//
// An SM2 signature satisfies k = s + (s + r)·d, which is linear in both k
// and d. Any second linear equation in the same unknowns therefore reveals
// d. The functions here only evaluate those formulas; they do not detect
// misuse and assume the stated precondition (same key, same or related
// nonce) holds. They are analysis tools and are not imported by package sm2.
//
// # Quick Start
//
//	client, err := sm2misuse.NewClient(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Recover key with smart brute-force
//	result, err := client.RecoverKey(ctx, "signatures.json", "04...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Recovered key: %s\n", result.PrivateKey.Text(16))
//
// # Closed-form recovery
//
//	d, err := sm2misuse.RecoverFromLeakedNonce(curve, sig, k)
//	d, err := sm2misuse.RecoverFromReusedNonce(curve, sig1, sig2)
//	dB, err := sm2misuse.RecoverFromSharedNonce(curve, dA, sigA, sigB)
//	d, err := sm2misuse.RecoverFromCrossScheme(curve, ecdsaSig, e1, sm2Sig)
//
// Each returns an error wrapping ErrUnrecoverableAttack when the formula's
// denominator vanishes modulo n.
//
// # Customization
//
//	strategy := sm2misuse.NewSmartBruteForceStrategy().
//	    WithRangeConfig(sm2misuse.RangeConfig{
//	        ARange:     [2]int{1, 10},
//	        BRange:     [2]int{-50000, 50000},
//	        MaxPairs:   100,
//	        NumWorkers: 16,
//	    }).
//	    WithLogger(slog.Default())
//
//	client = client.WithStrategy(strategy)
package sm2misuse
