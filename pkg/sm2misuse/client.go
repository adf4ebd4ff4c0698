package sm2misuse

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/mahdiidarabi/sm2-affine/pkg/sm2"
)

// Client provides a high-level API for SM2 key recovery operations.
type Client struct {
	engine   *sm2.Engine
	curve    *sm2.Curve
	strategy BruteForceStrategy
	parser   SignatureParser
}

// NewClient creates a client for the engine's curve and digest. A nil engine
// selects the sm2 defaults.
func NewClient(engine *sm2.Engine) (*Client, error) {
	if engine == nil {
		var err error
		if engine, err = sm2.New(); err != nil {
			return nil, err
		}
	}
	return &Client{
		engine: engine,
		// Recovery evaluates many throwaway scalars; keep them out of any cache.
		curve:    sm2.NewCurve(engine.Curve().Params(), nil),
		strategy: NewSmartBruteForceStrategy(),
		parser:   &JSONParser{},
	}, nil
}

// WithStrategy sets a custom brute-force strategy.
func (c *Client) WithStrategy(strategy BruteForceStrategy) *Client {
	c.strategy = strategy
	return c
}

// WithParser sets a custom signature parser.
func (c *Client) WithParser(parser SignatureParser) *Client {
	c.parser = parser
	return c
}

// Curve returns the cache-free curve used for recovery.
func (c *Client) Curve() *sm2.Curve {
	return c.curve
}

// RecoverKey attempts to recover a private key from signatures in a file.
//
// Args:
//   - ctx: Context for cancellation.
//   - source: Path to signature file (JSON or CSV).
//   - publicKeyHex: Optional public key in hex format for verification.
//
// Returns:
//   - RecoveryResult if successful, error otherwise.
func (c *Client) RecoverKey(ctx context.Context, source string, publicKeyHex string) (*RecoveryResult, error) {
	signatures, err := c.parser.ParseSignatures(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signatures: %w", err)
	}
	return c.RecoverKeyFromSignatures(ctx, signatures, publicKeyHex)
}

// RecoverKeyFromSignatures attempts to recover a private key from in-memory
// signatures. When a public key is given, signatures without E get it
// derived from their message and identity, and the recovered key is checked
// against the key. The caller's signatures are not modified.
func (c *Client) RecoverKeyFromSignatures(ctx context.Context, signatures []*Signature, publicKeyHex string) (*RecoveryResult, error) {
	if len(signatures) < 2 {
		return nil, fmt.Errorf("need at least 2 signatures, got %d", len(signatures))
	}

	signatures, publicKey, err := c.prepare(signatures, publicKeyHex)
	if err != nil {
		return nil, err
	}

	result := c.strategy.Search(ctx, c.curve, signatures, publicKey)
	if result == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("failed to recover private key")
	}
	return result, nil
}

// RecoverKeyWithKnownRelationship recovers a private key when the affine
// relationship k2 = a·k1 + b is known.
//
// Args:
//   - ctx: Context for cancellation.
//   - source: Path to signature file.
//   - a: Affine coefficient.
//   - b: Affine offset.
//   - publicKeyHex: Optional public key for verification.
//
// Returns:
//   - RecoveryResult if successful, error otherwise.
func (c *Client) RecoverKeyWithKnownRelationship(ctx context.Context, source string, a, b int64, publicKeyHex string) (*RecoveryResult, error) {
	signatures, err := c.parser.ParseSignatures(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signatures: %w", err)
	}
	if len(signatures) < 2 {
		return nil, fmt.Errorf("need at least 2 signatures, got %d", len(signatures))
	}

	signatures, publicKey, err := c.prepare(signatures, publicKeyHex)
	if err != nil {
		return nil, err
	}

	aBig := big.NewInt(a)
	bBig := big.NewInt(b)

	for i := 0; i < len(signatures); i++ {
		for j := i + 1; j < len(signatures); j++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			priv, err := RecoverPrivateKey(c.curve, signatures[i], signatures[j], aBig, bBig)
			if err != nil {
				continue
			}

			// Without a public key the first pair wins but stays unverified.
			verified := false
			if len(publicKey) > 0 {
				verified, _ = VerifyRecoveredKey(c.curve, priv, publicKey)
				if !verified {
					continue
				}
			}

			return &RecoveryResult{
				PrivateKey:    priv,
				Relationship:  AffineRelationship{A: aBig, B: bBig},
				SignaturePair: [2]int{i, j},
				Verified:      verified,
				Pattern:       fmt.Sprintf("known_a%d_b%d", a, b),
			}, nil
		}
	}

	return nil, fmt.Errorf("failed to recover private key with known relationship a=%d, b=%d", a, b)
}

// prepare decodes the public key and returns signatures with missing digests
// filled in. Signatures that need a digest are copied, never updated in place.
func (c *Client) prepare(signatures []*Signature, publicKeyHex string) ([]*Signature, []byte, error) {
	if publicKeyHex == "" {
		return signatures, nil, nil
	}

	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(publicKeyHex), "0x"), "0X")
	publicKey, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	pub, err := sm2.ParsePublicKey(c.engine.Curve(), publicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	prepared := make([]*Signature, len(signatures))
	for i, sig := range signatures {
		prepared[i] = sig
		if sig.E != nil || sig.Message == nil {
			continue
		}
		e, err := c.engine.MessageDigest(pub, sig.Message, sig.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("signature %d: %w", i, err)
		}
		filled := *sig
		filled.E = e
		prepared[i] = &filled
	}
	return prepared, publicKey, nil
}
