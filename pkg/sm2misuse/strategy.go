package sm2misuse

import (
	"context"
	"math/big"

	"github.com/mahdiidarabi/sm2-affine/pkg/sm2"
)

// BruteForceStrategy defines the interface for custom brute-force strategies.
type BruteForceStrategy interface {
	// Search looks for an affine relationship between the nonces of the
	// signatures on curve c. It returns nil when nothing is found or ctx is
	// cancelled. publicKey may be empty, in which case only relationships
	// that can be confirmed from the signatures alone are reported.
	Search(ctx context.Context, c *sm2.Curve, signatures []*Signature, publicKey []byte) *RecoveryResult

	// Name returns a human-readable name for this strategy.
	Name() string
}

// Pattern represents a specific affine pattern to test.
type Pattern struct {
	A        *big.Int
	B        *big.Int
	Name     string // Human-readable description
	Priority int    // Lower priority = tested first
}

// RangeConfig configures the search range for brute-force operations.
type RangeConfig struct {
	// ARange defines the range for a values [Min, Max] (inclusive)
	ARange [2]int

	// BRange defines the range for b values [Min, Max] (inclusive)
	BRange [2]int

	// MaxPairs limits the number of signature pairs to test
	MaxPairs int

	// NumWorkers controls parallelization (0 = auto-detect)
	NumWorkers int

	// SkipZeroA skips a=0, which makes k2 independent of k1
	SkipZeroA bool
}

// DefaultRangeConfig returns the configuration used by
// NewSmartBruteForceStrategy. A zero ARange and BRange selects the built-in
// sequence of expanding ranges.
func DefaultRangeConfig() RangeConfig {
	return RangeConfig{
		MaxPairs:   100,
		NumWorkers: 0,
		SkipZeroA:  true,
	}
}

// PatternConfig configures custom patterns to test.
type PatternConfig struct {
	// CustomPatterns are additional patterns to test before brute-force
	CustomPatterns []Pattern

	// IncludeCommonPatterns includes built-in common patterns
	IncludeCommonPatterns bool
}

// DefaultPatternConfig returns a configuration with common patterns enabled.
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{
		CustomPatterns:        []Pattern{},
		IncludeCommonPatterns: true,
	}
}

func (r RangeConfig) isDefault() bool {
	return r.ARange == [2]int{} && r.BRange == [2]int{}
}
