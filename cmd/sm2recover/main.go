package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mahdiidarabi/sm2-affine/pkg/sm2"
	"github.com/mahdiidarabi/sm2-affine/pkg/sm2misuse"
)

func main() {
	// Environment defaults may come from a local .env file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not read .env: %v\n", err)
	}

	var (
		signaturesFile = flag.String("signatures", "", "Path to signatures file (JSON or CSV)")
		format         = flag.String("format", "json", "Signature file format (json or csv)")
		publicKey      = flag.String("public-key", "", "Public key in hex (33-byte compressed, 64-byte raw or 65-byte uncompressed)")
		curveName      = flag.String("curve", envOr("SM2_CURVE", sm2.CurveSM2Test), "Curve name ("+strings.Join(sm2.SupportedCurves(), ", ")+")")
		hashName       = flag.String("hash", envOr("SM2_HASH", sm2.HashSM3), "Digest used for ZA and e (sm3, sha256, sha3-256)")
		knownA         = flag.Int("known-a", 0, "Known affine coefficient a (k2 = a*k1 + b)")
		knownB         = flag.Int("known-b", 0, "Known affine offset b (k2 = a*k1 + b)")
		leakedNonce    = flag.String("leaked-nonce", "", "Nonce of the first signature in hex, if leaked")
		bruteForce     = flag.Bool("brute-force", false, "Brute-force search for affine relationship")
		smartBrute     = flag.Bool("smart-brute", false, "Use smart brute-force (tries common patterns first)")
		aRange         = flag.String("a-range", "-100,100", "Range for a values in brute-force (format: min,max)")
		bRange         = flag.String("b-range", "-100,100", "Range for b values in brute-force (format: min,max)")
		maxPairs       = flag.Int("max-pairs", 100, "Maximum signature pairs to test in brute-force")
		numWorkers     = flag.Int("workers", envInt("SM2_WORKERS", 0), "Number of parallel workers (0 = auto-detect based on CPU cores)")
		verbose        = flag.Bool("v", false, "Log search progress")
	)
	flag.Parse()

	if *signaturesFile == "" {
		fmt.Fprintf(os.Stderr, "Error: --signatures is required\n")
		flag.Usage()
		os.Exit(1)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	params, err := sm2.CurveByName(*curveName)
	if err != nil {
		fatal(err)
	}
	h, err := sm2.HashByName(*hashName)
	if err != nil {
		fatal(err)
	}
	engine, err := sm2.New(
		sm2.WithCurve(params),
		sm2.WithHash(h),
		sm2.WithWorkers(*numWorkers),
		sm2.WithLogger(logger),
	)
	if err != nil {
		fatal(err)
	}

	var parser sm2misuse.SignatureParser
	switch *format {
	case "json":
		parser = &sm2misuse.JSONParser{}
	case "csv":
		parser = &sm2misuse.CSVParser{}
	default:
		fatal(fmt.Errorf("unknown format %q", *format))
	}

	client, err := sm2misuse.NewClient(engine)
	if err != nil {
		fatal(err)
	}
	client = client.WithParser(parser).
		WithStrategy(sm2misuse.NewSmartBruteForceStrategy().WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case *leakedNonce != "":
		recoverLeaked(client, parser, *signaturesFile, *leakedNonce, *publicKey)

	case *knownA != 0 || *knownB != 0:
		fmt.Printf("Using known relationship: k2 = %d*k1 + %d\n", *knownA, *knownB)

		result, err := client.RecoverKeyWithKnownRelationship(ctx, *signaturesFile, int64(*knownA), int64(*knownB), *publicKey)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("\n[+] Recovered private key from signatures %d and %d:\n", result.SignaturePair[0], result.SignaturePair[1])
		fmt.Printf("    Private key: %s\n", result.PrivateKey.Text(16))
		if result.Verified {
			fmt.Println("    ✓ Verified against public key!")
		}

	case *smartBrute:
		fmt.Printf("Loading signatures from %s...\n", *signaturesFile)

		result, err := client.RecoverKey(ctx, *signaturesFile, *publicKey)
		if err != nil {
			fatal(err)
		}
		printResult(result)

	case *bruteForce:
		fmt.Printf("Loading signatures from %s...\n", *signaturesFile)
		fmt.Println("Trying common patterns first (fast path)...")

		result, err := client.RecoverKey(ctx, *signaturesFile, *publicKey)
		if err == nil {
			printResult(result)
			return
		}
		if ctx.Err() != nil {
			fatal(ctx.Err())
		}

		fmt.Println("Common patterns didn't work, using specified ranges...")

		aMin, aMax, err := parseRange(*aRange)
		if err != nil {
			fatal(fmt.Errorf("parsing a-range: %w", err))
		}
		bMin, bMax, err := parseRange(*bRange)
		if err != nil {
			fatal(fmt.Errorf("parsing b-range: %w", err))
		}

		strategy := sm2misuse.NewSmartBruteForceStrategy().
			WithLogger(logger).
			WithRangeConfig(sm2misuse.RangeConfig{
				ARange:     [2]int{aMin, aMax},
				BRange:     [2]int{bMin, bMax},
				MaxPairs:   *maxPairs,
				NumWorkers: *numWorkers,
				SkipZeroA:  true,
			}).
			WithPatternConfig(sm2misuse.PatternConfig{IncludeCommonPatterns: false})

		result, err = client.WithStrategy(strategy).RecoverKey(ctx, *signaturesFile, *publicKey)
		if err != nil {
			fatal(err)
		}
		printResult(result)

	default:
		fmt.Fprintf(os.Stderr, "Error: Must specify --leaked-nonce, --known-a/--known-b, --brute-force, or --smart-brute\n")
		flag.Usage()
		os.Exit(1)
	}
}

// recoverLeaked solves for the key from the first signature in the file and
// its leaked nonce.
func recoverLeaked(client *sm2misuse.Client, parser sm2misuse.SignatureParser, file, nonceHex, publicKeyHex string) {
	signatures, err := parser.ParseSignatures(file)
	if err != nil {
		fatal(err)
	}
	if len(signatures) == 0 {
		fatal(errors.New("no signatures in file"))
	}
	k, ok := new(big.Int).SetString(trimHexPrefix(nonceHex), 16)
	if !ok {
		fatal(fmt.Errorf("invalid nonce %q", nonceHex))
	}

	d, err := sm2misuse.RecoverFromLeakedNonce(client.Curve(), signatures[0], k)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("\n[+] Recovered private key from leaked nonce:\n")
	fmt.Printf("    Private key: %s\n", d.Text(16))

	if publicKeyHex == "" {
		return
	}
	pub, err := decodeHex(publicKeyHex)
	if err != nil {
		fatal(fmt.Errorf("invalid public key hex: %w", err))
	}
	verified, err := sm2misuse.VerifyRecoveredKey(client.Curve(), d, pub)
	if err != nil {
		fatal(err)
	}
	if verified {
		fmt.Println("    ✓ Verified against public key!")
	} else {
		fmt.Println("    ✗ Does not match the public key")
	}
}

// trimHexPrefix strips an optional 0x or 0X prefix, as the client does for
// public keys.
func trimHexPrefix(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(trimHexPrefix(s))
}

func printResult(result *sm2misuse.RecoveryResult) {
	fmt.Printf("\n[+] Successfully recovered private key!\n")
	fmt.Printf("    Private key: %s\n", result.PrivateKey.Text(16))
	fmt.Printf("    Relationship: k2 = %s*k1 + %s\n", result.Relationship.A, result.Relationship.B)
	fmt.Printf("    Signature pair: (%d, %d)\n", result.SignaturePair[0], result.SignaturePair[1])
	fmt.Printf("    Pattern: %s\n", result.Pattern)
	if result.Verified {
		fmt.Println("    ✓ Verified against public key!")
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func parseRange(s string) (int, int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid range format: %s", s)
	}

	lo, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	hi, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	if lo > hi {
		return 0, 0, fmt.Errorf("invalid range %s: min exceeds max", s)
	}
	return lo, hi, nil
}
