package spltoken

import "testing"

func TestScaleSupply(t *testing.T) {
	tests := []struct {
		name     string
		supply   string
		decimals uint8
		want     uint64
	}{
		{"whole number", "500", 9, 500_000_000_000},
		{"zero decimals", "42", 0, 42},
		{"fractional", "12.5", 2, 1250},
		{"fraction exactly fills precision", "1.234", 3, 1234},
		{"fraction truncated beyond precision", "1.23456", 2, 123},
		{"truncation drops sub-unit remainder", "0.9999", 2, 99},
		{"leading dot", ".5", 1, 5},
		{"trailing dot", "7.", 0, 7},
		{"whitespace trimmed", "  100 ", 0, 100},
		{"max decimals", "1", 18, 1_000_000_000_000_000_000},
		{"u64 boundary", "18446744073709551615", 0, 18446744073709551615},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScaleSupply(tt.supply, tt.decimals)
			if err != nil {
				t.Fatalf("ScaleSupply(%q, %d): %v", tt.supply, tt.decimals, err)
			}
			if got != tt.want {
				t.Errorf("ScaleSupply(%q, %d) = %d, want %d", tt.supply, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestScaleSupply_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		supply   string
		decimals uint8
	}{
		{"empty", "", 9},
		{"whitespace only", "   ", 9},
		{"negative", "-5", 9},
		{"zero", "0", 9},
		{"zero with fraction", "0.00", 2},
		{"truncates to zero", "0.001", 2},
		{"not a number", "abc", 9},
		{"embedded letters", "12a4", 9},
		{"two dots", "1.2.3", 9},
		{"scientific notation", "1e6", 9},
		{"decimals too large", "1", 19},
		{"overflows u64", "18446744073709551616", 0},
		{"overflow via scaling", "18446744073709551615", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ScaleSupply(tt.supply, tt.decimals); err == nil {
				t.Errorf("ScaleSupply(%q, %d) should fail", tt.supply, tt.decimals)
			}
		})
	}
}
