// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"
	"fmt"

	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/log"

	"github.com/luxfi/fhevm/engine"
)

// EncryptInput is one element of an encryption batch
type EncryptInput struct {
	Value any
	Type  EncryptionType
}

// EncryptValue coerces value to t and encrypts it with the instance's engine.
// Exactly one engine primitive runs per call.
func EncryptValue(ctx context.Context, inst *Instance, value any, t EncryptionType) (*EncryptedValue, error) {
	if !IsInstanceReady(inst) {
		return nil, ErrNotReady
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ct, err := encrypt(inst.engine, value, t)
	if err != nil {
		return nil, err
	}
	if err := ct.Verify(); err != nil {
		return nil, fmt.Errorf("engine returned an unusable %s ciphertext: %w", t, err)
	}

	handles := make([]string, len(ct.Handles))
	for i, h := range ct.Handles {
		handles[i] = h.Hex()
	}
	return &EncryptedValue{
		Data:       ct.Data,
		Handles:    handles,
		InputProof: hexutil.Encode(ct.InputProof),
	}, nil
}

// EncryptBatch encrypts inputs in order and stops at the first failure,
// which is reported as a *BatchError
func EncryptBatch(ctx context.Context, inst *Instance, inputs []EncryptInput) ([]*EncryptedValue, error) {
	if !IsInstanceReady(inst) {
		return nil, ErrNotReady
	}
	out := make([]*EncryptedValue, 0, len(inputs))
	for i, in := range inputs {
		ev, err := EncryptValue(ctx, inst, in.Value, in.Type)
		if err != nil {
			inst.log.Debug("encryption batch failed",
				log.String("type", in.Type.String()),
				log.Err(err),
			)
			return nil, &BatchError{Index: i, Err: err}
		}
		out = append(out, ev)
	}
	return out, nil
}

func unsupported(t EncryptionType) error {
	return fmt.Errorf("%w: engine cannot encrypt %s", ErrUnsupportedType, t)
}

func encrypt(e engine.Engine, value any, t EncryptionType) (*engine.Ciphertext, error) {
	switch t {
	case Bool:
		enc, ok := e.(engine.BoolEncrypter)
		if !ok {
			return nil, unsupported(t)
		}
		return enc.EncryptBool(truthy(value))

	case Uint4:
		v, err := toUnsigned(value, 4)
		if err != nil {
			return nil, err
		}
		enc, ok := e.(engine.Uint4Encrypter)
		if !ok {
			return nil, unsupported(t)
		}
		return enc.EncryptUint4(uint8(v.Uint64()))

	case Uint8:
		v, err := toUnsigned(value, 8)
		if err != nil {
			return nil, err
		}
		enc, ok := e.(engine.Uint8Encrypter)
		if !ok {
			return nil, unsupported(t)
		}
		return enc.EncryptUint8(uint8(v.Uint64()))

	case Uint16:
		v, err := toUnsigned(value, 16)
		if err != nil {
			return nil, err
		}
		enc, ok := e.(engine.Uint16Encrypter)
		if !ok {
			return nil, unsupported(t)
		}
		return enc.EncryptUint16(uint16(v.Uint64()))

	case Uint32:
		v, err := toUnsigned(value, 32)
		if err != nil {
			return nil, err
		}
		enc, ok := e.(engine.Uint32Encrypter)
		if !ok {
			return nil, unsupported(t)
		}
		return enc.EncryptUint32(uint32(v.Uint64()))

	case Uint64:
		v, err := toUnsigned(value, 64)
		if err != nil {
			return nil, err
		}
		enc, ok := e.(engine.Uint64Encrypter)
		if !ok {
			return nil, unsupported(t)
		}
		return enc.EncryptUint64(v.Uint64())

	case Uint128:
		v, err := toUnsigned(value, 128)
		if err != nil {
			return nil, err
		}
		enc, ok := e.(engine.Uint128Encrypter)
		if !ok {
			return nil, unsupported(t)
		}
		return enc.EncryptUint128(v)

	case Uint256:
		v, err := toUnsigned(value, 256)
		if err != nil {
			return nil, err
		}
		enc, ok := e.(engine.Uint256Encrypter)
		if !ok {
			return nil, unsupported(t)
		}
		return enc.EncryptUint256(v)

	case Address:
		v, err := toAddress(value)
		if err != nil {
			return nil, err
		}
		enc, ok := e.(engine.AddressEncrypter)
		if !ok {
			return nil, unsupported(t)
		}
		return enc.EncryptAddress(v)

	case Bytes:
		v, err := toBytes(value)
		if err != nil {
			return nil, err
		}
		enc, ok := e.(engine.BytesEncrypter)
		if !ok {
			return nil, unsupported(t)
		}
		return enc.EncryptBytes(v)

	case Bytes256:
		v, err := toBytes256(value)
		if err != nil {
			return nil, err
		}
		enc, ok := e.(engine.Bytes256Encrypter)
		if !ok {
			return nil, unsupported(t)
		}
		return enc.EncryptBytes256(v)

	default:
		return nil, unsupported(t)
	}
}
