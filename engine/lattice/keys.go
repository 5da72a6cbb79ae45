// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package lattice

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/he/heint"

	"github.com/luxfi/fhevm/engine"
)

var errMalformedKeyPair = errors.New("malformed keypair encoding")

// KeyPair holds a BGV keypair. Secret is nil on client-side engines that
// only received a public key.
type KeyPair struct {
	Secret *rlwe.SecretKey
	Public *rlwe.PublicKey
}

func GenerateKeyPair(params heint.Parameters) *KeyPair {
	sk, pk := heint.NewKeyGenerator(params).GenKeyPairNew()
	return &KeyPair{Secret: sk, Public: pk}
}

func UnmarshalPublicKey(params heint.Parameters, b []byte) (*rlwe.PublicKey, error) {
	pk := rlwe.NewPublicKey(params)
	if err := unmarshal(pk, b); err != nil {
		return nil, fmt.Errorf("%w: %w", engine.ErrInvalidPublicKey, err)
	}
	return pk, nil
}

// MarshalBinary encodes both keys as [uint32 secret length][secret][public]
func (kp *KeyPair) MarshalBinary() ([]byte, error) {
	if kp.Secret == nil || kp.Public == nil {
		return nil, errMalformedKeyPair
	}
	skBytes, err := kp.Secret.MarshalBinary()
	if err != nil {
		return nil, err
	}
	pkBytes, err := kp.Public.MarshalBinary()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 4, 4+len(skBytes)+len(pkBytes))
	binary.BigEndian.PutUint32(out, uint32(len(skBytes)))
	out = append(out, skBytes...)
	return append(out, pkBytes...), nil
}

// UnmarshalKeyPair decodes the output of KeyPair.MarshalBinary
func UnmarshalKeyPair(params heint.Parameters, b []byte) (*KeyPair, error) {
	if len(b) < 4 {
		return nil, errMalformedKeyPair
	}
	skLen := int(binary.BigEndian.Uint32(b))
	if len(b) < 4+skLen {
		return nil, errMalformedKeyPair
	}
	sk := rlwe.NewSecretKey(params)
	if err := unmarshal(sk, b[4:4+skLen]); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedKeyPair, err)
	}
	pk, err := UnmarshalPublicKey(params, b[4+skLen:])
	if err != nil {
		return nil, err
	}
	return &KeyPair{Secret: sk, Public: pk}, nil
}
