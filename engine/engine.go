// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package engine defines the capability contract between the FHEVM client and
// a cryptographic engine. The engine is opaque: it owns the keypair and turns
// plaintext values into ciphertexts, handles and input proofs. Which value
// types an engine supports is expressed by the capability interfaces it
// implements.
package engine

import (
	"context"
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

var (
	// ErrInvalidCiphertext is returned when an engine produced, or was given,
	// a malformed ciphertext
	ErrInvalidCiphertext = errors.New("invalid ciphertext")

	// ErrInvalidInputProof is returned when an input proof cannot be decoded
	ErrInvalidInputProof = errors.New("invalid input proof")

	// ErrInvalidPublicKey is returned when a supplied public key cannot be loaded
	ErrInvalidPublicKey = errors.New("invalid public key")
)

// Runtime is the process-wide part of an engine: parameter loading and other
// one-time setup, and construction of per-instance engines.
type Runtime interface {
	// Bootstrap performs the one-time global setup. Callers guarantee it runs
	// at most once successfully per process.
	Bootstrap(ctx context.Context) error

	// NewEngine returns an engine bound to publicKey. When publicKey is nil
	// the engine generates its own keypair.
	NewEngine(publicKey []byte) (Engine, error)
}

// Engine is a bootstrapped engine holding (or not) a keypair
type Engine interface {
	// HasKeypair reports whether the engine holds a usable public key
	HasKeypair() bool

	// PublicKey returns the serialized public key
	PublicKey() ([]byte, error)
}

// Ciphertext is the output of a single encryption primitive
type Ciphertext struct {
	// Data is the serialized ciphertext
	Data []byte

	// Handles are the on-chain references to the encrypted inputs
	Handles []common.Hash

	// InputProof is the blob accompanying the handles on submission
	InputProof []byte
}

// Verify checks that the ciphertext is complete
func (c *Ciphertext) Verify() error {
	switch {
	case c == nil:
		return ErrInvalidCiphertext
	case len(c.Data) == 0:
		return errors.Join(ErrInvalidCiphertext, errors.New("empty ciphertext data"))
	case len(c.Handles) == 0:
		return errors.Join(ErrInvalidCiphertext, errors.New("no handles"))
	}
	return nil
}

// BoolEncrypter encrypts booleans
type BoolEncrypter interface {
	EncryptBool(v bool) (*Ciphertext, error)
}

// Uint4Encrypter encrypts 4-bit unsigned integers. Values above 15 are
// rejected by the caller before reaching the engine.
type Uint4Encrypter interface {
	EncryptUint4(v uint8) (*Ciphertext, error)
}

type Uint8Encrypter interface {
	EncryptUint8(v uint8) (*Ciphertext, error)
}

type Uint16Encrypter interface {
	EncryptUint16(v uint16) (*Ciphertext, error)
}

type Uint32Encrypter interface {
	EncryptUint32(v uint32) (*Ciphertext, error)
}

type Uint64Encrypter interface {
	EncryptUint64(v uint64) (*Ciphertext, error)
}

// Uint128Encrypter encrypts 128-bit unsigned integers. The upper 128 bits of
// v are always zero.
type Uint128Encrypter interface {
	EncryptUint128(v *uint256.Int) (*Ciphertext, error)
}

type Uint256Encrypter interface {
	EncryptUint256(v *uint256.Int) (*Ciphertext, error)
}

type AddressEncrypter interface {
	EncryptAddress(v common.Address) (*Ciphertext, error)
}

// BytesEncrypter encrypts an opaque byte string
type BytesEncrypter interface {
	EncryptBytes(v []byte) (*Ciphertext, error)
}

// Bytes256Encrypter encrypts a fixed 256-byte buffer
type Bytes256Encrypter interface {
	EncryptBytes256(v [256]byte) (*Ciphertext, error)
}
