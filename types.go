// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/luxfi/geth/common"
)

// EncryptionType is the encrypted type a plaintext value is encrypted as
type EncryptionType uint8

const (
	Bool EncryptionType = iota
	Uint4
	Uint8
	Uint16
	Uint32
	Uint64
	Uint128
	Uint256
	Address
	Bytes
	Bytes256
)

// Bytes256Size is the fixed buffer length of Bytes256 values
const Bytes256Size = 256

var encryptionTypeNames = [...]string{
	Bool:     "bool",
	Uint4:    "uint4",
	Uint8:    "uint8",
	Uint16:   "uint16",
	Uint32:   "uint32",
	Uint64:   "uint64",
	Uint128:  "uint128",
	Uint256:  "uint256",
	Address:  "address",
	Bytes:    "bytes",
	Bytes256: "bytes256",
}

func (t EncryptionType) String() string {
	if int(t) < len(encryptionTypeNames) {
		return encryptionTypeNames[t]
	}
	return fmt.Sprintf("EncryptionType(%d)", uint8(t))
}

// Bits returns the width of unsigned integer types and zero otherwise
func (t EncryptionType) Bits() int {
	switch t {
	case Uint4:
		return 4
	case Uint8:
		return 8
	case Uint16:
		return 16
	case Uint32:
		return 32
	case Uint64:
		return 64
	case Uint128:
		return 128
	case Uint256:
		return 256
	default:
		return 0
	}
}

// ParseEncryptionType parses the lower-case type name, e.g. "uint64"
func ParseEncryptionType(s string) (EncryptionType, error) {
	for t, name := range encryptionTypeNames {
		if strings.EqualFold(s, name) {
			return EncryptionType(t), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, s)
}

// EncryptedValue is the result of encrypting one value
type EncryptedValue struct {
	// Data is the serialized ciphertext
	Data []byte `json:"data"`
	// Handles are 0x-prefixed 32-byte hex strings
	Handles []string `json:"handles"`
	// InputProof is 0x-prefixed hex
	InputProof string `json:"inputProof"`
}

// DecryptResult is the outcome of one reencryption round trip
type DecryptResult struct {
	// Value is the decrypted value as an unsigned integer
	Value *big.Int
	// Raw is the gateway response as returned
	Raw map[string]any
}

// Interpret reinterprets Value as the Go representation of t: bool for
// Bool, a checksummed hex string for Address, []byte for Bytes and
// Bytes256, and *big.Int for unsigned integers. Bytes is minimal, leading
// zero bytes are not recoverable from Value; use InterpretBytes when the
// length is known.
func (r *DecryptResult) Interpret(t EncryptionType) (any, error) {
	if r == nil || r.Value == nil {
		return nil, fmt.Errorf("%w: no value", ErrConversion)
	}
	switch t {
	case Bool:
		return r.Value.Sign() != 0, nil
	case Address:
		if r.Value.BitLen() > 8*common.AddressLength {
			return nil, fmt.Errorf("%w: %d bits exceed an address", ErrRange, r.Value.BitLen())
		}
		return common.BigToAddress(r.Value).Hex(), nil
	case Bytes:
		return r.Value.Bytes(), nil
	case Bytes256:
		if r.Value.BitLen() > 8*Bytes256Size {
			return nil, fmt.Errorf("%w: %d bits exceed %d bytes", ErrRange, r.Value.BitLen(), Bytes256Size)
		}
		return r.Value.FillBytes(make([]byte, Bytes256Size)), nil
	case Uint4, Uint8, Uint16, Uint32, Uint64, Uint128, Uint256:
		if r.Value.BitLen() > t.Bits() {
			return nil, fmt.Errorf("%w: %s exceeds %s", ErrRange, r.Value, t)
		}
		return new(big.Int).Set(r.Value), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
}

// InterpretBytes returns Value as a big-endian byte string of exactly
// length bytes, restoring leading zero bytes.
func (r *DecryptResult) InterpretBytes(length int) ([]byte, error) {
	if r == nil || r.Value == nil {
		return nil, fmt.Errorf("%w: no value", ErrConversion)
	}
	if length < 0 || r.Value.BitLen() > 8*length {
		return nil, fmt.Errorf("%w: %d bits exceed %d bytes", ErrRange, r.Value.BitLen(), length)
	}
	return r.Value.FillBytes(make([]byte, length)), nil
}
