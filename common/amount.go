package common

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
)

// U128 is a non-negative integer encoded in JSON as a decimal string, so that
// values above 2^53 survive JSON parsers using floating point numbers.
type U128 struct {
	*big.Int
}

// NewU128 returns U128 holding v.
func NewU128(v uint64) U128 {
	return U128{new(big.Int).SetUint64(v)}
}

// Big returns the value as big.Int. Zero U128 gives zero.
func (u U128) Big() *big.Int {
	if u.Int == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(u.Int)
}

// MarshalJSON implements json.Marshaler.
func (u U128) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.Big().String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (u *U128) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 || v.BitLen() > 128 {
		return fmt.Errorf("invalid U128 value %q", s)
	}
	u.Int = v
	return nil
}

// U64 is an unsigned 64-bit integer encoded in JSON as a decimal string.
type U64 uint64

// MarshalJSON implements json.Marshaler.
func (u U64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(u), 10))
}

// UnmarshalJSON implements json.Unmarshaler.
func (u *U64) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid U64 value %q: %w", s, err)
	}
	*u = U64(v)
	return nil
}
