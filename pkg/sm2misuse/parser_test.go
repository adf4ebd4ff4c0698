package sm2misuse

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestJSONParser(t *testing.T) {
	input := `[
		{"message": "hello", "id": "alice", "r": "0x1f", "s": "255"},
		{"e": "abc", "r": 42, "s": "0X10"}
	]`

	parser := &JSONParser{}
	signatures, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if len(signatures) != 2 {
		t.Fatalf("Expected 2 signatures, got %d", len(signatures))
	}

	first := signatures[0]
	if string(first.Message) != "hello" || string(first.ID) != "alice" {
		t.Errorf("unexpected message/id %q/%q", first.Message, first.ID)
	}
	if first.E != nil {
		t.Error("E set although no e field was given")
	}
	if first.R.Int64() != 31 || first.S.Int64() != 255 {
		t.Errorf("got r=%s s=%s", first.R, first.S)
	}

	second := signatures[1]
	if second.E == nil || second.E.Int64() != 0xabc {
		t.Errorf("e = %v, want 0xabc", second.E)
	}
	if second.R.Int64() != 42 || second.S.Int64() != 16 {
		t.Errorf("got r=%s s=%s", second.R, second.S)
	}
}

func TestJSONParser_CustomFields(t *testing.T) {
	input := `[{"msg": "x", "user": "bob", "sig_r": "1", "sig_s": "2", "digest": "3"}]`

	parser := &JSONParser{MessageField: "msg", IDField: "user", RField: "sig_r", SField: "sig_s", EField: "digest"}
	signatures, err := parser.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	sig := signatures[0]
	if string(sig.Message) != "x" || string(sig.ID) != "bob" || sig.R.Int64() != 1 || sig.S.Int64() != 2 || sig.E.Int64() != 3 {
		t.Errorf("unexpected signature %+v", sig)
	}
}

func TestJSONParser_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `{`},
		{"missing r", `[{"s": "1"}]`},
		{"missing s", `[{"r": "1"}]`},
		{"bad number", `[{"r": "xyz", "s": "1"}]`},
		{"message not string", `[{"message": 5, "r": "1", "s": "1"}]`},
	}
	for _, test := range tests {
		if _, err := (&JSONParser{}).Parse(strings.NewReader(test.input)); err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}
}

func TestCSVParser(t *testing.T) {
	input := "message,id,r,s,e\n" +
		"hello,alice,0x1f,255,\n" +
		"world,bob,10,ff,0x05\n"

	dir := t.TempDir()
	path := filepath.Join(dir, "sigs.csv")
	if err := os.WriteFile(path, []byte(input), 0o600); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	parser := &CSVParser{}
	signatures, err := parser.ParseSignatures(path)
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if len(signatures) != 2 {
		t.Fatalf("Expected 2 signatures, got %d", len(signatures))
	}

	if string(signatures[0].ID) != "alice" || signatures[0].E != nil {
		t.Errorf("unexpected first signature %+v", signatures[0])
	}
	if signatures[0].R.Int64() != 31 || signatures[0].S.Int64() != 255 {
		t.Errorf("first signature: r=%s s=%s", signatures[0].R, signatures[0].S)
	}
	if signatures[1].R.Int64() != 10 || signatures[1].S.Int64() != 255 || signatures[1].E.Int64() != 5 {
		t.Errorf("second signature: r=%s s=%s e=%v", signatures[1].R, signatures[1].S, signatures[1].E)
	}

	if _, err := (&CSVParser{}).Parse(strings.NewReader("message,x\nhello,1\n")); err == nil {
		t.Error("expected error for missing r/s columns")
	}
	if _, err := parser.ParseSignatures(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseBigInt(t *testing.T) {
	tests := []struct {
		in   interface{}
		want int64
	}{
		{"10", 10},
		{"0x10", 16},
		{"ff", 255},
		{" 7 ", 7},
		{int64(9), 9},
		{3, 3},
	}
	for _, test := range tests {
		got, err := parseBigInt(test.in)
		if err != nil {
			t.Errorf("parseBigInt(%v) failed: %v", test.in, err)
			continue
		}
		if got.Int64() != test.want {
			t.Errorf("parseBigInt(%v) = %s, want %d", test.in, got, test.want)
		}
	}

	if _, err := parseBigInt(1.5); err == nil {
		t.Error("float accepted")
	}
}
