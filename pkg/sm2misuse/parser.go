package sm2misuse

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
)

// SignatureParser defines the interface for parsing signatures from various sources.
type SignatureParser interface {
	// ParseSignatures parses signatures from a source and returns them.
	ParseSignatures(source string) ([]*Signature, error)
}

// JSONParser parses signatures from JSON files.
type JSONParser struct {
	MessageField string // Field name for message (default: "message")
	IDField      string // Field name for the signer identity (default: "id")
	RField       string // Field name for r (default: "r")
	SField       string // Field name for s (default: "s")
	EField       string // Field name for e = H(ZA || M) (default: "e")
}

// ParseSignatures parses signatures from a JSON file.
//
// Expected format:
//
//	[
//	  {"message": "...", "id": "alice", "r": "0x...", "s": "0x..."},
//	  {"e": "0x...", "r": "0x...", "s": "0x..."}
//	]
//
// e is optional. When it is missing the client derives it from message and
// id once a public key is known.
func (p *JSONParser) ParseSignatures(jsonFile string) ([]*Signature, error) {
	file, err := os.Open(jsonFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer file.Close()

	return p.Parse(file)
}

// Parse reads signatures from r.
func (p *JSONParser) Parse(r io.Reader) ([]*Signature, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber() // Preserve large numbers as json.Number instead of float64

	var items []map[string]interface{}
	if err := decoder.Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	messageField := orDefault(p.MessageField, "message")
	idField := orDefault(p.IDField, "id")
	rField := orDefault(p.RField, "r")
	sField := orDefault(p.SField, "s")
	eField := orDefault(p.EField, "e")

	signatures := make([]*Signature, 0, len(items))
	for i, item := range items {
		sig := &Signature{}
		var err error

		if msgVal, ok := item[messageField]; ok {
			msg, ok := msgVal.(string)
			if !ok {
				return nil, fmt.Errorf("entry %d: message field must be a string", i)
			}
			sig.Message = []byte(msg)
		}
		if idVal, ok := item[idField]; ok {
			id, ok := idVal.(string)
			if !ok {
				return nil, fmt.Errorf("entry %d: id field must be a string", i)
			}
			sig.ID = []byte(id)
		}
		if eVal, ok := item[eField]; ok {
			e, err := parseBigInt(eVal)
			if err != nil {
				return nil, fmt.Errorf("entry %d: failed to parse e: %w", i, err)
			}
			sig.E = e
		}

		rVal, ok := item[rField]
		if !ok {
			return nil, fmt.Errorf("entry %d: missing r field", i)
		}
		if sig.R, err = parseBigInt(rVal); err != nil {
			return nil, fmt.Errorf("entry %d: failed to parse r: %w", i, err)
		}

		sVal, ok := item[sField]
		if !ok {
			return nil, fmt.Errorf("entry %d: missing s field", i)
		}
		if sig.S, err = parseBigInt(sVal); err != nil {
			return nil, fmt.Errorf("entry %d: failed to parse s: %w", i, err)
		}

		signatures = append(signatures, sig)
	}

	return signatures, nil
}

// CSVParser parses signatures from CSV files.
type CSVParser struct {
	MessageCol string // Column name for message (default: "message")
	IDCol      string // Column name for the signer identity (default: "id")
	RCol       string // Column name for r (default: "r")
	SCol       string // Column name for s (default: "s")
	ECol       string // Column name for e (default: "e")
}

// ParseSignatures parses signatures from a CSV file.
func (p *CSVParser) ParseSignatures(csvFile string) ([]*Signature, error) {
	file, err := os.Open(csvFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return p.Parse(file)
}

// Parse reads signatures from r. The first record is the header.
func (p *CSVParser) Parse(r io.Reader) ([]*Signature, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := map[string]int{}
	for i, col := range header {
		cols[strings.TrimSpace(col)] = i
	}
	index := func(name, def string) int {
		if i, ok := cols[orDefault(name, def)]; ok {
			return i
		}
		return -1
	}
	messageIdx := index(p.MessageCol, "message")
	idIdx := index(p.IDCol, "id")
	rIdx := index(p.RCol, "r")
	sIdx := index(p.SCol, "s")
	eIdx := index(p.ECol, "e")

	if rIdx == -1 || sIdx == -1 {
		return nil, fmt.Errorf("missing required columns: r or s")
	}

	signatures := make([]*Signature, 0)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		sig := &Signature{}
		if messageIdx >= 0 {
			sig.Message = []byte(record[messageIdx])
		}
		if idIdx >= 0 {
			sig.ID = []byte(record[idIdx])
		}
		if eIdx >= 0 && record[eIdx] != "" {
			if sig.E, err = parseBigInt(record[eIdx]); err != nil {
				return nil, fmt.Errorf("line %d: failed to parse e: %w", line, err)
			}
		}
		if sig.R, err = parseBigInt(record[rIdx]); err != nil {
			return nil, fmt.Errorf("line %d: failed to parse r: %w", line, err)
		}
		if sig.S, err = parseBigInt(record[sIdx]); err != nil {
			return nil, fmt.Errorf("line %d: failed to parse s: %w", line, err)
		}

		signatures = append(signatures, sig)
	}

	return signatures, nil
}

// parseBigInt parses a big integer from a string or JSON number. Strings are
// hexadecimal when they carry a 0x prefix or contain hex letters, decimal
// otherwise.
func parseBigInt(val interface{}) (*big.Int, error) {
	switch v := val.(type) {
	case string:
		s := strings.TrimSpace(v)
		base := 10
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			s = s[2:]
			base = 16
		} else if strings.ContainsAny(s, "abcdefABCDEF") {
			base = 16
		}
		z, ok := new(big.Int).SetString(s, base)
		if !ok {
			return nil, fmt.Errorf("invalid number format: %s", v)
		}
		return z, nil

	case json.Number:
		z, ok := new(big.Int).SetString(string(v), 10)
		if !ok {
			return nil, fmt.Errorf("invalid number format: %s", v)
		}
		return z, nil

	case int64:
		return big.NewInt(v), nil

	case int:
		return big.NewInt(int64(v)), nil

	default:
		return nil, fmt.Errorf("unsupported type: %T", val)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
