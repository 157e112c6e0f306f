package ilkcode_test

import (
	"strings"
	"testing"

	"github.com/fd1az/arbitrage-bot/internal/ilkcode"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	names := []string{"ETH-A", "WBTC-A", "LINK-A", ""}
	for _, name := range names {
		code, err := ilkcode.Encode(name)
		if err != nil {
			t.Fatalf("Encode(%q) error: %v", name, err)
		}
		got := ilkcode.Decode(code)
		if got != name {
			t.Errorf("round trip %q -> %q", name, got)
		}
	}
}

func TestEncodeTooLong(t *testing.T) {
	name := strings.Repeat("X", 33)
	if _, err := ilkcode.Encode(name); err == nil {
		t.Error("expected error for name longer than 32 bytes")
	}
}

func TestEncodeZeroPadded(t *testing.T) {
	code, err := ilkcode.Encode("ETH-A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 5; i < 32; i++ {
		if code[i] != 0 {
			t.Fatalf("expected zero padding at byte %d, got %d", i, code[i])
		}
	}
}
