// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// maxSafeInteger is the largest float64 that still represents every integer
// below it exactly
const maxSafeInteger = 1<<53 - 1

// truthy reports the boolean reading of v: nil, false, numeric zero, the
// empty string and NaN are false, everything else is true
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	case float32:
		return x != 0 && !math.IsNaN(float64(x))
	case *big.Int:
		return x != nil && x.Sign() != 0
	case big.Int:
		return x.Sign() != 0
	case *uint256.Int:
		return x != nil && !x.IsZero()
	case uint256.Int:
		return !x.IsZero()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	default:
		return true
	}
}

// toUint256 converts v to an unsigned 256-bit integer. Values that cannot be
// read as integers fail with ErrConversion; negative values and values that
// need more than 256 bits fail with ErrRange.
func toUint256(v any) (*uint256.Int, error) {
	switch x := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil value", ErrConversion)
	case *uint256.Int:
		if x == nil {
			return nil, fmt.Errorf("%w: nil value", ErrConversion)
		}
		return new(uint256.Int).Set(x), nil
	case uint256.Int:
		return new(uint256.Int).Set(&x), nil
	case *big.Int:
		if x == nil {
			return nil, fmt.Errorf("%w: nil value", ErrConversion)
		}
		return fromBig(x)
	case big.Int:
		return fromBig(&x)
	case string:
		return parseInteger(x)
	case json.Number:
		return parseInteger(x.String())
	case float64:
		return fromFloat(x)
	case float32:
		return fromFloat(float64(x))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		if i < 0 {
			return nil, fmt.Errorf("%w: negative value %d", ErrRange, i)
		}
		return uint256.NewInt(uint64(i)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return uint256.NewInt(rv.Uint()), nil
	default:
		return nil, fmt.Errorf("%w: %T is not an integer", ErrConversion, v)
	}
}

// toUnsigned converts v and checks that it fits in bits
func toUnsigned(v any, bits int) (*uint256.Int, error) {
	u, err := toUint256(v)
	if err != nil {
		return nil, err
	}
	if u.BitLen() > bits {
		return nil, fmt.Errorf("%w: %s does not fit in %d bits", ErrRange, u.Dec(), bits)
	}
	return u, nil
}

func fromBig(b *big.Int) (*uint256.Int, error) {
	if b.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative value %s", ErrRange, b)
	}
	u, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("%w: %s exceeds 256 bits", ErrRange, b)
	}
	return u, nil
}

func fromFloat(f float64) (*uint256.Int, error) {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return nil, fmt.Errorf("%w: %v is not finite", ErrConversion, f)
	case f != math.Trunc(f):
		return nil, fmt.Errorf("%w: %v is not an integer", ErrConversion, f)
	case math.Abs(f) > maxSafeInteger:
		return nil, fmt.Errorf("%w: %v is beyond the exact float range, use a string or big.Int", ErrConversion, f)
	case f < 0:
		return nil, fmt.Errorf("%w: negative value %v", ErrRange, f)
	}
	return uint256.NewInt(uint64(f)), nil
}

// parseInteger parses a decimal or 0x-prefixed hex string with arbitrary
// precision
func parseInteger(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrConversion)
	}

	b := new(big.Int)
	var ok bool
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		_, ok = b.SetString(s[2:], 16)
	default:
		_, ok = b.SetString(s, 10)
	}
	if !ok {
		return nil, fmt.Errorf("%w: cannot parse %q as an integer", ErrConversion, s)
	}
	return fromBig(b)
}

func toAddress(v any) (common.Address, error) {
	switch x := v.(type) {
	case common.Address:
		return x, nil
	case *common.Address:
		if x != nil {
			return *x, nil
		}
	case string:
		if common.IsHexAddress(x) {
			return common.HexToAddress(x), nil
		}
		return common.Address{}, fmt.Errorf("%w: %q is not a hex address", ErrConversion, x)
	}
	return common.Address{}, fmt.Errorf("%w: %T is not an address", ErrConversion, v)
}

func toBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		if x == nil {
			return []byte{}, nil
		}
		return x, nil
	case string:
		return []byte(x), nil
	}
	return nil, fmt.Errorf("%w: %T is not a byte string", ErrConversion, v)
}

// toBytes256 left-pads v to Bytes256Size bytes
func toBytes256(v any) ([Bytes256Size]byte, error) {
	var out [Bytes256Size]byte
	if x, ok := v.([Bytes256Size]byte); ok {
		return x, nil
	}
	b, err := toBytes(v)
	if err != nil {
		return out, err
	}
	if len(b) > Bytes256Size {
		return out, fmt.Errorf("%w: %d bytes exceed %d", ErrRange, len(b), Bytes256Size)
	}
	copy(out[Bytes256Size-len(b):], b)
	return out, nil
}

// toHandle converts v to a ciphertext handle. Every failure, including a
// negative or oversized value, is a conversion failure.
func toHandle(v any) (*uint256.Int, error) {
	switch x := v.(type) {
	case common.Hash:
		return new(uint256.Int).SetBytes32(x[:]), nil
	case [32]byte:
		return new(uint256.Int).SetBytes32(x[:]), nil
	}
	if _, ok := v.(bool); ok {
		return nil, fmt.Errorf("%w: bool is not a handle", ErrConversion)
	}
	h, err := toUint256(v)
	if err != nil {
		return nil, fmt.Errorf("%w: handle: %w", ErrConversion, err)
	}
	return h, nil
}
