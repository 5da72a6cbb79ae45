// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package lattice implements the engine capability contract on top of the
// BGV scheme. Every value is encoded as a byte string, one byte per slot,
// behind a two-slot header carrying the type code and the payload length.
package lattice

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"sync"

	"github.com/tuneinsight/lattigo/v5/he/heint"

	"github.com/luxfi/fhevm/engine"
)

const (
	typeSlot    = 0
	lengthSlot  = 1
	headerSlots = 2
)

var (
	// DefaultParameters is a 128-bit secure BGV parameter set with a
	// plaintext modulus large enough to hold one byte per slot.
	DefaultParameters = heint.ParametersLiteral{
		LogN:             12,
		LogQ:             []int{39, 31},
		LogP:             []int{39},
		PlaintextModulus: 0x10001,
	}

	ErrNotBootstrapped = errors.New("lattice runtime not bootstrapped")
	ErrPayloadTooLarge = errors.New("payload exceeds slot capacity")

	defaultRuntime = NewRuntime(DefaultParameters)

	_ engine.Runtime = (*Runtime)(nil)
)

// Default returns the process-wide runtime using DefaultParameters
func Default() *Runtime {
	return defaultRuntime
}

// Runtime loads the BGV parameters once and builds engines from them
type Runtime struct {
	literal heint.ParametersLiteral

	lock   sync.RWMutex
	params *heint.Parameters
}

func NewRuntime(literal heint.ParametersLiteral) *Runtime {
	return &Runtime{literal: literal}
}

// Bootstrap derives the parameters from the literal. Repeated calls after a
// success are no-ops.
func (r *Runtime) Bootstrap(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if r.params != nil {
		return nil
	}
	params, err := heint.NewParametersFromLiteral(r.literal)
	if err != nil {
		return fmt.Errorf("invalid BGV parameters: %w", err)
	}
	r.params = &params
	return nil
}

// Parameters returns the bootstrapped parameters
func (r *Runtime) Parameters() (heint.Parameters, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.params == nil {
		return heint.Parameters{}, ErrNotBootstrapped
	}
	return *r.params, nil
}

// NewEngine returns an engine encrypting under publicKey, or under a freshly
// generated keypair when publicKey is nil.
func (r *Runtime) NewEngine(publicKey []byte) (engine.Engine, error) {
	params, err := r.Parameters()
	if err != nil {
		return nil, err
	}
	if publicKey == nil {
		return NewEngine(params, GenerateKeyPair(params))
	}
	pk, err := UnmarshalPublicKey(params, publicKey)
	if err != nil {
		return nil, err
	}
	return NewEngine(params, &KeyPair{Public: pk})
}

// capacity is the largest payload a single ciphertext carries
func capacity(params heint.Parameters) int {
	return params.N() - headerSlots
}

func encodeSlots(params heint.Parameters, t engine.FheType, payload []byte) ([]uint64, error) {
	if len(payload) > capacity(params) {
		return nil, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(payload), capacity(params))
	}
	slots := make([]uint64, params.N())
	slots[typeSlot] = uint64(t)
	slots[lengthSlot] = uint64(len(payload))
	for i, b := range payload {
		slots[headerSlots+i] = uint64(b)
	}
	return slots, nil
}

func decodeSlots(params heint.Parameters, slots []uint64) (engine.FheType, []byte, error) {
	if slots[typeSlot] > 0xff {
		return 0, nil, fmt.Errorf("%w: type slot %d", engine.ErrInvalidCiphertext, slots[typeSlot])
	}
	length := slots[lengthSlot]
	if length > uint64(capacity(params)) {
		return 0, nil, fmt.Errorf("%w: length slot %d", engine.ErrInvalidCiphertext, length)
	}
	payload := make([]byte, length)
	for i := range payload {
		v := slots[headerSlots+i]
		if v > 0xff {
			return 0, nil, fmt.Errorf("%w: slot %d out of byte range", engine.ErrInvalidCiphertext, headerSlots+i)
		}
		payload[i] = byte(v)
	}
	return engine.FheType(slots[typeSlot]), payload, nil
}

// unmarshal decodes b into v. lattigo panics on some truncated or
// oversized encodings, those are reported as errors.
func unmarshal(v encoding.BinaryUnmarshaler, b []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed encoding: %v", r)
		}
	}()
	return v.UnmarshalBinary(b)
}
