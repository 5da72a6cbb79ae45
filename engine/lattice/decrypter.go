// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package lattice

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/he/heint"

	"github.com/luxfi/fhevm/engine"
)

// Decrypter recovers plaintexts with the network secret key. It is only
// used by gateways; clients never hold the network secret.
type Decrypter struct {
	params heint.Parameters

	lock      sync.Mutex
	encoder   *heint.Encoder
	decryptor *rlwe.Decryptor
}

func NewDecrypter(params heint.Parameters, sk *rlwe.SecretKey) *Decrypter {
	return &Decrypter{
		params:    params,
		encoder:   heint.NewEncoder(params),
		decryptor: heint.NewDecryptor(params, sk),
	}
}

// DecryptPayload returns the type code and raw payload stored in data.
// Malformed data yields engine.ErrInvalidCiphertext.
func (d *Decrypter) DecryptPayload(data []byte) (engine.FheType, []byte, error) {
	ct := heint.NewCiphertext(d.params, 1, d.params.MaxLevel())
	if err := unmarshal(ct, data); err != nil {
		return 0, nil, fmt.Errorf("%w: %w", engine.ErrInvalidCiphertext, err)
	}
	if ct.Degree() != 1 || ct.Level() > d.params.MaxLevel() {
		return 0, nil, fmt.Errorf("%w: unexpected degree %d or level %d", engine.ErrInvalidCiphertext, ct.Degree(), ct.Level())
	}

	slots, err := d.decode(ct)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", engine.ErrInvalidCiphertext, err)
	}
	return decodeSlots(d.params, slots)
}

func (d *Decrypter) decode(ct *rlwe.Ciphertext) (slots []uint64, err error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decryption failed: %v", r)
		}
	}()

	slots = make([]uint64, d.params.N())
	pt := d.decryptor.DecryptNew(ct)
	if err := d.encoder.Decode(pt, slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// Decrypt returns the plaintext as a big-endian integer
func (d *Decrypter) Decrypt(data []byte) (engine.FheType, *big.Int, error) {
	t, payload, err := d.DecryptPayload(data)
	if err != nil {
		return 0, nil, err
	}
	return t, new(big.Int).SetBytes(payload), nil
}
