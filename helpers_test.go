// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/fhevm/engine"
)

var errTestBootstrap = errors.New("bootstrap failed")

// testRuntime is a runtime whose engines encode values in the clear
type testRuntime struct {
	bootstrapCalls atomic.Int32
	// failures is the number of bootstrap attempts that fail before one
	// succeeds
	failures atomic.Int32
	// blockFirst makes the first bootstrap wait for its context
	blockFirst bool
	// release, when set, holds every bootstrap until closed regardless of
	// the context
	release chan struct{}

	noKeypair bool
	limited   bool

	lock    sync.Mutex
	engines []*testEngine
}

func (r *testRuntime) Bootstrap(ctx context.Context) error {
	n := r.bootstrapCalls.Add(1)
	if r.release != nil {
		<-r.release
	}
	if r.blockFirst && n == 1 {
		<-ctx.Done()
		return ctx.Err()
	}
	if r.failures.Add(-1) >= 0 {
		return errTestBootstrap
	}
	return nil
}

func (r *testRuntime) NewEngine(publicKey []byte) (engine.Engine, error) {
	if publicKey == nil {
		publicKey = []byte{0x70, 0x6b}
	}
	if r.limited {
		return &limitedEngine{publicKey: publicKey}, nil
	}
	e := &testEngine{
		publicKey: publicKey,
		keypair:   !r.noKeypair,
	}
	r.lock.Lock()
	r.engines = append(r.engines, e)
	r.lock.Unlock()
	return e, nil
}

// calls returns the number of encryptions across all engines
func (r *testRuntime) calls() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	total := 0
	for _, e := range r.engines {
		total += int(e.calls.Load())
	}
	return total
}

// testEngine encrypts by prefixing the type code to the payload
type testEngine struct {
	publicKey []byte
	keypair   bool
	calls     atomic.Int32
}

func (e *testEngine) HasKeypair() bool {
	return e.keypair
}

func (e *testEngine) PublicKey() ([]byte, error) {
	return e.publicKey, nil
}

func (e *testEngine) encrypt(t engine.FheType, payload []byte) (*engine.Ciphertext, error) {
	e.calls.Add(1)
	ct := append([]byte{byte(t)}, payload...)
	h := engine.DeriveHandle(ct, t, 0)
	proof, err := engine.EncodeInputProof([]common.Hash{h}, ct)
	if err != nil {
		return nil, err
	}
	return &engine.Ciphertext{
		Data:       ct,
		Handles:    []common.Hash{h},
		InputProof: proof,
	}, nil
}

func (e *testEngine) EncryptBool(v bool) (*engine.Ciphertext, error) {
	b := byte(0)
	if v {
		b = 1
	}
	return e.encrypt(engine.FheBool, []byte{b})
}

func (e *testEngine) EncryptUint4(v uint8) (*engine.Ciphertext, error) {
	return e.encrypt(engine.FheUint4, []byte{v})
}

func (e *testEngine) EncryptUint8(v uint8) (*engine.Ciphertext, error) {
	return e.encrypt(engine.FheUint8, []byte{v})
}

func (e *testEngine) EncryptUint16(v uint16) (*engine.Ciphertext, error) {
	return e.encrypt(engine.FheUint16, uint256.NewInt(uint64(v)).Bytes())
}

func (e *testEngine) EncryptUint32(v uint32) (*engine.Ciphertext, error) {
	return e.encrypt(engine.FheUint32, uint256.NewInt(uint64(v)).Bytes())
}

func (e *testEngine) EncryptUint64(v uint64) (*engine.Ciphertext, error) {
	return e.encrypt(engine.FheUint64, uint256.NewInt(v).Bytes())
}

func (e *testEngine) EncryptUint128(v *uint256.Int) (*engine.Ciphertext, error) {
	return e.encrypt(engine.FheUint128, v.Bytes())
}

func (e *testEngine) EncryptUint256(v *uint256.Int) (*engine.Ciphertext, error) {
	return e.encrypt(engine.FheUint256, v.Bytes())
}

func (e *testEngine) EncryptAddress(v common.Address) (*engine.Ciphertext, error) {
	return e.encrypt(engine.FheAddress, v.Bytes())
}

func (e *testEngine) EncryptBytes(v []byte) (*engine.Ciphertext, error) {
	return e.encrypt(engine.FheBytes, v)
}

func (e *testEngine) EncryptBytes256(v [256]byte) (*engine.Ciphertext, error) {
	return e.encrypt(engine.FheBytes256, v[:])
}

// limitedEngine holds a keypair but has no encryption primitives
type limitedEngine struct {
	publicKey []byte
}

func (*limitedEngine) HasKeypair() bool {
	return true
}

func (e *limitedEngine) PublicKey() ([]byte, error) {
	return e.publicKey, nil
}

func newTestInstance(t *testing.T, rt *testRuntime, opts ...Option) *Instance {
	t.Helper()

	opts = append([]Option{WithRuntime(rt)}, opts...)
	inst, err := CreateInstance(context.Background(), Config{Network: Localhost}, opts...)
	require.NoError(t, err)
	return inst
}
