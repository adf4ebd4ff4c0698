package sm2

import (
	"io"
	"log/slog"
	"runtime"

	"github.com/mahdiidarabi/sm2-affine/internal/logging"
)

const defaultMaxNonceAttempts = 16

// engineConfig holds configuration for an Engine.
type engineConfig struct {
	params      *CurveParams
	hash        Hash
	rand        io.Reader
	nonces      NonceSource
	cache       *Cache
	cacheSet    bool
	workers     int
	maxAttempts int
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*engineConfig)

// WithCurve selects the curve parameters. Default: the sm2-test curve.
func WithCurve(params *CurveParams) Option {
	return func(c *engineConfig) {
		c.params = params
	}
}

// WithHash selects the digest. Default: SM3.
func WithHash(h Hash) Option {
	return func(c *engineConfig) {
		c.hash = h
	}
}

// WithRand sets the randomness source for key generation, encryption nonces
// and the default signing nonces. Default: crypto/rand.Reader.
func WithRand(r io.Reader) Option {
	return func(c *engineConfig) {
		c.rand = r
	}
}

// WithNonceSource replaces the signing nonce source.
// Default: RandomNonces over the engine's randomness source.
func WithNonceSource(src NonceSource) Option {
	return func(c *engineConfig) {
		c.nonces = src
	}
}

// WithCache sets the memoisation cache. Pass nil to disable memoisation.
// Default: a fresh NewCache per engine.
func WithCache(cache *Cache) Option {
	return func(c *engineConfig) {
		c.cache = cache
		c.cacheSet = true
	}
}

// WithWorkers bounds the number of concurrent BatchVerify workers.
// Default: runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(c *engineConfig) {
		c.workers = n
	}
}

// WithMaxNonceAttempts bounds the nonce retry loop of Sign and Encrypt.
// Default: 16.
func WithMaxNonceAttempts(n int) Option {
	return func(c *engineConfig) {
		c.maxAttempts = n
	}
}

// WithLogger sets the logger. Default: a logger that discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *engineConfig) {
		c.logger = l
	}
}

// Engine signs, verifies, encrypts and decrypts over one curve with one
// digest. It holds no per-operation state and is safe for concurrent use as
// long as its randomness source is.
type Engine struct {
	curve       *Curve
	hash        Hash
	rand        io.Reader
	nonces      NonceSource
	workers     int
	maxAttempts int
	logger      logging.Logger
}

// New creates an Engine.
func New(opts ...Option) (*Engine, error) {
	cfg := &engineConfig{
		params:      testCurve,
		hash:        SM3,
		workers:     runtime.NumCPU(),
		maxAttempts: defaultMaxNonceAttempts,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.params == nil {
		return nil, makeError(ErrUnknownCurve, "curve parameters must not be nil")
	}
	if cfg.hash.New == nil {
		return nil, makeError(ErrUnknownHash, "hash constructor must not be nil")
	}
	if !cfg.cacheSet {
		cfg.cache = NewCache()
	}
	if cfg.nonces == nil {
		cfg.nonces = RandomNonces{Rand: cfg.rand}
	}
	if cfg.workers <= 0 {
		cfg.workers = 1
	}
	if cfg.maxAttempts <= 0 {
		cfg.maxAttempts = 1
	}
	logger := logging.Discard()
	if cfg.logger != nil {
		logger = logging.New(cfg.logger)
	}

	return &Engine{
		curve:       NewCurve(cfg.params, cfg.cache),
		hash:        cfg.hash,
		rand:        cfg.rand,
		nonces:      cfg.nonces,
		workers:     cfg.workers,
		maxAttempts: cfg.maxAttempts,
		logger:      logger.With("curve", cfg.params.Name, "hash", cfg.hash.Name),
	}, nil
}

// Curve returns the engine's curve.
func (e *Engine) Curve() *Curve {
	return e.curve
}

// Hash returns the engine's digest.
func (e *Engine) Hash() Hash {
	return e.hash
}

// GenerateKey creates a key pair on the engine's curve.
func (e *Engine) GenerateKey() (*PrivateKey, error) {
	return GenerateKey(e.curve, e.rand)
}

// IdentityDigest returns ZA for id and pub under the engine's digest.
func (e *Engine) IdentityDigest(id []byte, pub *PublicKey) ([]byte, error) {
	return IdentityDigest(e.hash, pub, id)
}
