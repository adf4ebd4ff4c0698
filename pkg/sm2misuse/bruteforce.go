package sm2misuse

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/mahdiidarabi/sm2-affine/internal/logging"
	"github.com/mahdiidarabi/sm2-affine/pkg/sm2"
)

const progressInterval = 10000

// SmartBruteForceStrategy implements a multi-phase brute-force strategy
// that tries common patterns first, then expands the search range.
type SmartBruteForceStrategy struct {
	RangeConfig   RangeConfig
	PatternConfig PatternConfig

	logger logging.Logger
}

// NewSmartBruteForceStrategy creates a new smart brute-force strategy with default settings.
func NewSmartBruteForceStrategy() *SmartBruteForceStrategy {
	return &SmartBruteForceStrategy{
		RangeConfig:   DefaultRangeConfig(),
		PatternConfig: DefaultPatternConfig(),
		logger:        logging.Discard(),
	}
}

// WithRangeConfig sets the range configuration for the strategy.
func (s *SmartBruteForceStrategy) WithRangeConfig(config RangeConfig) *SmartBruteForceStrategy {
	s.RangeConfig = config
	return s
}

// WithPatternConfig sets the pattern configuration for the strategy.
func (s *SmartBruteForceStrategy) WithPatternConfig(config PatternConfig) *SmartBruteForceStrategy {
	s.PatternConfig = config
	return s
}

// WithLogger sets the progress logger.
func (s *SmartBruteForceStrategy) WithLogger(l *slog.Logger) *SmartBruteForceStrategy {
	s.logger = logging.New(l)
	return s
}

// Name returns the name of this strategy.
func (s *SmartBruteForceStrategy) Name() string {
	return "SmartBruteForce"
}

func (s *SmartBruteForceStrategy) log() logging.Logger {
	if s.logger == nil {
		return logging.Discard()
	}
	return s.logger
}

// Search implements the BruteForceStrategy interface.
//
// Phase 0 finds reused nonces by comparing x(k·G) = r - e across signatures
// and needs E but no public key. Every later phase produces a candidate
// for each tested (a, b), so it only runs when publicKey is given.
func (s *SmartBruteForceStrategy) Search(ctx context.Context, c *sm2.Curve, signatures []*Signature, publicKey []byte) *RecoveryResult {
	if len(signatures) < 2 {
		return nil
	}
	log := s.log()
	log.Info("starting key recovery", "signatures", len(signatures), "curve", c.Params().Name)

	var pub *sm2.PublicKey
	if len(publicKey) > 0 {
		var err error
		if pub, err = sm2.ParsePublicKey(c, publicKey); err != nil {
			log.Error("invalid public key", "error", err)
			return nil
		}
	}

	log.Info("phase 0: checking for same nonce reuse")
	if result := s.checkSameNonceReuse(c, signatures, pub); result != nil {
		log.Info("found same nonce reuse", "pair", result.SignaturePair, logging.Redacted("private_key"))
		return result
	}

	if pub == nil {
		log.Warn("no public key, skipping pattern and range search")
		return nil
	}

	if s.PatternConfig.IncludeCommonPatterns {
		log.Info("phase 1: trying common patterns")
		if result := s.tryPatterns(ctx, c, signatures, pub, commonPatterns()); result != nil {
			log.Info("found pattern", "pattern", result.Pattern)
			return result
		}
	}

	if len(s.PatternConfig.CustomPatterns) > 0 {
		log.Info("phase 2: trying custom patterns", "patterns", len(s.PatternConfig.CustomPatterns))
		if result := s.tryPatterns(ctx, c, signatures, pub, s.PatternConfig.CustomPatterns); result != nil {
			log.Info("found custom pattern", "pattern", result.Pattern)
			return result
		}
	}

	log.Info("phase 3: starting adaptive range search")
	return s.adaptiveRangeSearch(ctx, c, signatures, pub)
}

// checkSameNonceReuse looks for two signatures with the same x(k·G).
func (s *SmartBruteForceStrategy) checkSameNonceReuse(c *sm2.Curve, signatures []*Signature, pub *sm2.PublicKey) *RecoveryResult {
	n := c.Params().N
	seen := make(map[string]int)

	for j, sig := range signatures {
		if sig.E == nil || sig.R == nil {
			continue
		}
		x := new(big.Int).Sub(sig.R, sig.E)
		x.Mod(x, n)
		key := x.Text(16)

		i, ok := seen[key]
		if !ok {
			seen[key] = j
			continue
		}

		priv, err := RecoverFromReusedNonce(c, signatures[i], sig)
		if err != nil {
			continue
		}
		verified := false
		if pub != nil {
			if verified = matches(c, priv, pub); !verified {
				continue
			}
		}
		return &RecoveryResult{
			PrivateKey:    priv,
			Relationship:  AffineRelationship{A: big.NewInt(1), B: big.NewInt(0)},
			SignaturePair: [2]int{i, j},
			Verified:      verified,
			Pattern:       "same_nonce_reuse",
		}
	}
	return nil
}

// tryPatterns tries each (a, b) pattern across all signature pairs.
func (s *SmartBruteForceStrategy) tryPatterns(ctx context.Context, c *sm2.Curve, signatures []*Signature, pub *sm2.PublicKey, patterns []Pattern) *RecoveryResult {
	for _, pattern := range patterns {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if result := s.tryPattern(c, signatures, pub, pattern.A, pattern.B, pattern.Name); result != nil {
			return result
		}
	}
	return nil
}

// tryPattern tries a specific (a, b) pattern across all signature pairs.
func (s *SmartBruteForceStrategy) tryPattern(c *sm2.Curve, signatures []*Signature, pub *sm2.PublicKey, a, b *big.Int, patternName string) *RecoveryResult {
	pairs := 0
	for i := 0; i < len(signatures); i++ {
		for j := i + 1; j < len(signatures); j++ {
			if s.RangeConfig.MaxPairs > 0 && pairs >= s.RangeConfig.MaxPairs {
				return nil
			}
			pairs++

			priv, err := RecoverPrivateKey(c, signatures[i], signatures[j], a, b)
			if err != nil {
				continue
			}
			if !matches(c, priv, pub) {
				continue
			}

			return &RecoveryResult{
				PrivateKey:    priv,
				Relationship:  AffineRelationship{A: a, B: b},
				SignaturePair: [2]int{i, j},
				Verified:      true,
				Pattern:       patternName,
			}
		}
	}
	return nil
}

type searchRange struct {
	aRange [2]int
	bRange [2]int
	name   string
}

// adaptiveRangeSearch performs an adaptive range search with expanding ranges.
func (s *SmartBruteForceStrategy) adaptiveRangeSearch(ctx context.Context, c *sm2.Curve, signatures []*Signature, pub *sm2.PublicKey) *RecoveryResult {
	ranges := []searchRange{
		{[2]int{1, 1}, [2]int{-100, 100}, "a=1, small b"},
		{[2]int{1, 1}, [2]int{-1000, 1000}, "a=1, medium b"},
		{[2]int{1, 1}, [2]int{-10000, 10000}, "a=1, larger b"},
		{[2]int{2, 4}, [2]int{-1000, 1000}, "small a, medium b"},
		{[2]int{-5, -1}, [2]int{-1000, 1000}, "negative a, medium b"},
		{[2]int{1, 10}, [2]int{-50000, 50000}, "wider a, larger b"},
	}
	if !s.RangeConfig.isDefault() {
		ranges = []searchRange{{s.RangeConfig.ARange, s.RangeConfig.BRange, "custom range"}}
	}

	log := s.log()
	for _, r := range ranges {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		aCount := r.aRange[1] - r.aRange[0] + 1
		if s.RangeConfig.SkipZeroA && r.aRange[0] <= 0 && r.aRange[1] >= 0 {
			aCount--
		}
		bCount := r.bRange[1] - r.bRange[0] + 1
		log.Info("range search",
			"range", r.name,
			"a_min", r.aRange[0], "a_max", r.aRange[1],
			"b_min", r.bRange[0], "b_max", r.bRange[1],
			"combinations", aCount*bCount)

		if result := s.rangeSearch(ctx, c, signatures, pub, r.aRange, r.bRange); result != nil {
			log.Info("found key", "range", r.name, "pattern", result.Pattern, logging.Redacted("private_key"))
			return result
		}
	}

	log.Info("all phases completed, key not found")
	return nil
}

// rangeSearch performs a brute-force search over a specific range.
//
// For a fixed pair and a fixed a the candidate key is affine in b:
// d(b) = d0 + b·u with u = 1/(s2 + r2 - a·(s1 + r1)) and d0 = (a·s1 - s2)·u.
// The worker therefore walks d(b)·G by adding u·G once per step instead of
// performing a scalar multiplication per candidate.
func (s *SmartBruteForceStrategy) rangeSearch(ctx context.Context, c *sm2.Curve, signatures []*Signature, pub *sm2.PublicKey, aRange, bRange [2]int) *RecoveryResult {
	numWorkers := s.RangeConfig.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	maxPairs := s.RangeConfig.MaxPairs
	if maxPairs <= 0 {
		maxPairs = len(signatures) * len(signatures)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var tested int64
	resultChan := make(chan *RecoveryResult, 1)
	workChan := make(chan [2]int, numWorkers*4)

	// Generate work
	go func() {
		defer close(workChan)
		pairCount := 0
		for i := 0; i < len(signatures) && pairCount < maxPairs; i++ {
			for j := i + 1; j < len(signatures) && pairCount < maxPairs; j++ {
				select {
				case <-ctx.Done():
					return
				case workChan <- [2]int{i, j}:
					pairCount++
				}
			}
		}
	}()

	log := s.log()
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case pair, ok := <-workChan:
					if !ok {
						return
					}
					result := s.searchPair(ctx, c, signatures, pair, pub, aRange, bRange, func(step int64) {
						if combs := atomic.AddInt64(&tested, step); combs/progressInterval != (combs-step)/progressInterval {
							log.Debug("range search progress", "tested", combs)
						}
					})
					if result != nil {
						select {
						case resultChan <- result:
						default:
						}
						cancel()
						return
					}
				}
			}
		}()
	}

	wg.Wait()
	log.Debug("range search finished", "tested", atomic.LoadInt64(&tested))

	select {
	case result := <-resultChan:
		return result
	default:
		return nil
	}
}

// searchPair scans every (a, b) in range for one signature pair.
func (s *SmartBruteForceStrategy) searchPair(ctx context.Context, c *sm2.Curve, signatures []*Signature, pair [2]int, pub *sm2.PublicKey, aRange, bRange [2]int, progress func(int64)) *RecoveryResult {
	sig1, sig2 := signatures[pair[0]], signatures[pair[1]]
	if checkSignature(c, sig1) != nil || checkSignature(c, sig2) != nil {
		return nil
	}
	n := c.Params().N
	target := pub.Point()

	for a := aRange[0]; a <= aRange[1]; a++ {
		if s.RangeConfig.SkipZeroA && a == 0 {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		aBig := big.NewInt(int64(a))

		den := new(big.Int).Add(sig1.S, sig1.R)
		den.Mul(den, aBig)
		den.Sub(new(big.Int).Add(sig2.S, sig2.R), den)
		u, err := c.ModInverse(den, n)
		if err != nil {
			continue
		}

		// d(bMin) = (a·s1 + bMin - s2)·u
		start := new(big.Int).Mul(aBig, sig1.S)
		start.Add(start, big.NewInt(int64(bRange[0])))
		start.Sub(start, sig2.S)
		start.Mul(start, u)
		start.Mod(start, n)

		current := sm2.Infinity()
		if start.Sign() != 0 {
			if current, err = c.ScalarBaseMult(start); err != nil {
				continue
			}
		}
		step, err := c.ScalarBaseMult(u)
		if err != nil {
			continue
		}

		var count int64
		for b := bRange[0]; b <= bRange[1]; b++ {
			count++
			if !current.IsInfinity() && current.Equal(target) {
				progress(count)
				d := new(big.Int).Mul(big.NewInt(int64(b)-int64(bRange[0])), u)
				d.Add(d, start)
				d.Mod(d, n)
				return &RecoveryResult{
					PrivateKey:    d,
					Relationship:  AffineRelationship{A: aBig, B: big.NewInt(int64(b))},
					SignaturePair: pair,
					Verified:      true,
					Pattern:       fmt.Sprintf("brute_force_a%d_b%d", a, b),
				}
			}
			current = c.Add(current, step)

			if count%1024 == 0 && ctx.Err() != nil {
				progress(count)
				return nil
			}
		}
		progress(count)
	}
	return nil
}

// matches reports whether d·G is pub.
func matches(c *sm2.Curve, d *big.Int, pub *sm2.PublicKey) bool {
	ok, err := VerifyRecoveredKey(c, d, pub.Bytes())
	return err == nil && ok
}

// commonPatterns returns the list of common patterns to try.
func commonPatterns() []Pattern {
	return []Pattern{
		{big.NewInt(1), big.NewInt(0), "same_nonce", 1},
		{big.NewInt(1), big.NewInt(1), "counter_+1", 2},
		{big.NewInt(1), big.NewInt(-1), "counter_-1", 2},
		{big.NewInt(1), big.NewInt(2), "counter_+2", 3},
		{big.NewInt(1), big.NewInt(-2), "counter_-2", 3},
		{big.NewInt(1), big.NewInt(3), "counter_+3", 3},
		{big.NewInt(1), big.NewInt(-3), "counter_-3", 3},
		{big.NewInt(1), big.NewInt(8), "step_8", 4},
		{big.NewInt(1), big.NewInt(16), "step_16", 4},
		{big.NewInt(1), big.NewInt(256), "step_256", 4},
		{big.NewInt(1), big.NewInt(1024), "step_1024", 4},
		{big.NewInt(1), big.NewInt(1000), "step_1000", 4},
		{big.NewInt(2), big.NewInt(0), "multiply_2", 5},
		{big.NewInt(2), big.NewInt(1), "multiply_2_+1", 5},
		{big.NewInt(3), big.NewInt(0), "multiply_3", 5},
		{big.NewInt(-1), big.NewInt(0), "negate", 6},
	}
}
