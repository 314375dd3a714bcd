package spltoken

import (
	"fmt"
	"math/big"
	"strings"
)

// ScaleSupply converts a decimal supply string into integer base units:
// supply × 10^decimals. The arithmetic stays in integers end to end so no
// floating point drift reaches the instruction layer; fractional digits
// beyond the mint's precision are truncated.
func ScaleSupply(supply string, decimals uint8) (uint64, error) {
	if decimals > MaxDecimals {
		return 0, fmt.Errorf("decimals %d exceeds maximum %d", decimals, MaxDecimals)
	}

	s := strings.TrimSpace(supply)
	if s == "" {
		return 0, fmt.Errorf("empty supply")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("supply must be positive")
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	if !isDigits(intPart) || (fracPart != "" && !isDigits(fracPart)) {
		return 0, fmt.Errorf("malformed supply %q", supply)
	}

	// Truncate or right-pad the fraction to exactly `decimals` digits.
	d := int(decimals)
	if len(fracPart) > d {
		fracPart = fracPart[:d]
	}
	fracPart += strings.Repeat("0", d-len(fracPart))

	units, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return 0, fmt.Errorf("malformed supply %q", supply)
	}
	if units.Sign() == 0 {
		return 0, fmt.Errorf("supply must be positive")
	}
	if !units.IsUint64() {
		return 0, fmt.Errorf("supply %s overflows u64 base units at %d decimals", supply, decimals)
	}

	return units.Uint64(), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
