package types

import (
	"fmt"
	"math/big"
	"strings"
)

// BigInt is a big.Int that marshals to and from the decimal strings the
// ZeroDust API uses for wei amounts.
type BigInt big.Int

// NewBigInt wraps a big.Int. A nil input yields a zero value.
func NewBigInt(x *big.Int) *BigInt {
	if x == nil {
		x = new(big.Int)
	}
	return (*BigInt)(new(big.Int).Set(x))
}

// Int returns the underlying big.Int. Nil receivers return zero so callers
// can do arithmetic on optional fields without guarding.
func (b *BigInt) Int() *big.Int {
	if b == nil {
		return new(big.Int)
	}
	return (*big.Int)(b)
}

// String returns the decimal representation.
func (b *BigInt) String() string {
	return b.Int().String()
}

// MarshalJSON encodes the value as a quoted decimal string.
func (b *BigInt) MarshalJSON() ([]byte, error) {
	return []byte(`"` + b.Int().String() + `"`), nil
}

// UnmarshalJSON accepts quoted decimal strings, quoted 0x-hex strings, and
// bare JSON numbers.
func (b *BigInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		(*big.Int)(b).SetInt64(0)
		return nil
	}

	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}

	if _, ok := (*big.Int)(b).SetString(s, base); !ok {
		return fmt.Errorf("invalid integer value: %s", string(data))
	}
	return nil
}
