// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package lattice

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/he/heint"

	"github.com/luxfi/fhevm/engine"
)

var (
	_ engine.Engine            = (*Engine)(nil)
	_ engine.BoolEncrypter     = (*Engine)(nil)
	_ engine.Uint4Encrypter    = (*Engine)(nil)
	_ engine.Uint8Encrypter    = (*Engine)(nil)
	_ engine.Uint16Encrypter   = (*Engine)(nil)
	_ engine.Uint32Encrypter   = (*Engine)(nil)
	_ engine.Uint64Encrypter   = (*Engine)(nil)
	_ engine.Uint128Encrypter  = (*Engine)(nil)
	_ engine.Uint256Encrypter  = (*Engine)(nil)
	_ engine.AddressEncrypter  = (*Engine)(nil)
	_ engine.BytesEncrypter    = (*Engine)(nil)
	_ engine.Bytes256Encrypter = (*Engine)(nil)
)

// Engine encrypts values under a BGV public key. The encoder and encryptor
// keep internal buffers, so encryption is serialized.
type Engine struct {
	params  heint.Parameters
	keys    *KeyPair
	pkBytes []byte

	lock      sync.Mutex
	encoder   *heint.Encoder
	encryptor *rlwe.Encryptor
}

func NewEngine(params heint.Parameters, keys *KeyPair) (*Engine, error) {
	if keys == nil || keys.Public == nil {
		return nil, engine.ErrInvalidPublicKey
	}
	pkBytes, err := keys.Public.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize public key: %w", err)
	}
	return &Engine{
		params:    params,
		keys:      keys,
		pkBytes:   pkBytes,
		encoder:   heint.NewEncoder(params),
		encryptor: heint.NewEncryptor(params, keys.Public),
	}, nil
}

func (e *Engine) HasKeypair() bool {
	return len(e.pkBytes) > 0
}

func (e *Engine) PublicKey() ([]byte, error) {
	if !e.HasKeypair() {
		return nil, engine.ErrInvalidPublicKey
	}
	return common.CopyBytes(e.pkBytes), nil
}

// KeyPair returns the engine's keys. The secret key is only present when the
// engine generated the keypair itself.
func (e *Engine) KeyPair() *KeyPair {
	return e.keys
}

func (e *Engine) EncryptBool(v bool) (*engine.Ciphertext, error) {
	b := byte(0)
	if v {
		b = 1
	}
	return e.encrypt(engine.FheBool, []byte{b})
}

func (e *Engine) EncryptUint4(v uint8) (*engine.Ciphertext, error) {
	if v > 0x0f {
		return nil, fmt.Errorf("value %d overflows 4 bits", v)
	}
	return e.encrypt(engine.FheUint4, []byte{v})
}

func (e *Engine) EncryptUint8(v uint8) (*engine.Ciphertext, error) {
	return e.encrypt(engine.FheUint8, []byte{v})
}

func (e *Engine) EncryptUint16(v uint16) (*engine.Ciphertext, error) {
	return e.encrypt(engine.FheUint16, binary.BigEndian.AppendUint16(nil, v))
}

func (e *Engine) EncryptUint32(v uint32) (*engine.Ciphertext, error) {
	return e.encrypt(engine.FheUint32, binary.BigEndian.AppendUint32(nil, v))
}

func (e *Engine) EncryptUint64(v uint64) (*engine.Ciphertext, error) {
	return e.encrypt(engine.FheUint64, binary.BigEndian.AppendUint64(nil, v))
}

func (e *Engine) EncryptUint128(v *uint256.Int) (*engine.Ciphertext, error) {
	if v.BitLen() > 128 {
		return nil, fmt.Errorf("value %s overflows 128 bits", v.Dec())
	}
	b := v.Bytes32()
	return e.encrypt(engine.FheUint128, b[16:])
}

func (e *Engine) EncryptUint256(v *uint256.Int) (*engine.Ciphertext, error) {
	b := v.Bytes32()
	return e.encrypt(engine.FheUint256, b[:])
}

func (e *Engine) EncryptAddress(v common.Address) (*engine.Ciphertext, error) {
	return e.encrypt(engine.FheAddress, v.Bytes())
}

func (e *Engine) EncryptBytes(v []byte) (*engine.Ciphertext, error) {
	return e.encrypt(engine.FheBytes, v)
}

func (e *Engine) EncryptBytes256(v [256]byte) (*engine.Ciphertext, error) {
	return e.encrypt(engine.FheBytes256, v[:])
}

func (e *Engine) encrypt(t engine.FheType, payload []byte) (*engine.Ciphertext, error) {
	slots, err := encodeSlots(e.params, t, payload)
	if err != nil {
		return nil, err
	}

	e.lock.Lock()
	pt := heint.NewPlaintext(e.params, e.params.MaxLevel())
	if err := e.encoder.Encode(slots, pt); err != nil {
		e.lock.Unlock()
		return nil, fmt.Errorf("failed to encode %s: %w", t, err)
	}
	ct, err := e.encryptor.EncryptNew(pt)
	e.lock.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt %s: %w", t, err)
	}

	data, err := ct.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s ciphertext: %w", t, err)
	}
	handle := engine.DeriveHandle(data, t, 0)
	proof, err := engine.EncodeInputProof([]common.Hash{handle}, data)
	if err != nil {
		return nil, err
	}
	return &engine.Ciphertext{
		Data:       data,
		Handles:    []common.Hash{handle},
		InputProof: proof,
	}, nil
}
