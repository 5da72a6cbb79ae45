// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func TestCreateInstanceLocalhost(t *testing.T) {
	require := require.New(t)

	rt := &testRuntime{}
	inst := newTestInstance(t, rt)

	require.True(IsInstanceReady(inst))
	require.Equal(Localhost, inst.Network())
	require.Equal(int64(31337), inst.ChainID().Int64())
	require.Equal("http://localhost:8545", inst.GatewayURL())
	require.Equal(common.Address{}, inst.KMSContractAddress())
	require.Equal(common.Address{}, inst.ACLContractAddress())

	pk, err := GetPublicKey(inst)
	require.NoError(err)
	require.Equal([]byte{0x70, 0x6b}, pk)
}

func TestCreateInstanceWithPublicKey(t *testing.T) {
	require := require.New(t)

	inst, err := CreateInstance(context.Background(), Config{
		Network:   Localhost,
		PublicKey: []byte{0x01, 0x02, 0x03},
	}, WithRuntime(&testRuntime{}))
	require.NoError(err)

	pk, err := GetPublicKey(inst)
	require.NoError(err)
	require.Equal([]byte{0x01, 0x02, 0x03}, pk)
}

func TestCreateInstanceFailures(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		runtime     *testRuntime
		expectedErr error
	}{
		{
			name:        "unknown network",
			config:      Config{Network: "mainnet"},
			runtime:     &testRuntime{},
			expectedErr: ErrUnknownNetwork,
		},
		{
			name:    "invalid contract address",
			config:  Config{Network: Localhost, KMSContractAddress: "0xzz"},
			runtime: &testRuntime{},
		},
		{
			name:        "engine without keypair",
			config:      Config{Network: Localhost},
			runtime:     &testRuntime{noKeypair: true},
			expectedErr: ErrNoKeypair,
		},
		{
			name:        "bootstrap failure",
			config:      Config{Network: Localhost},
			runtime:     func() *testRuntime { rt := &testRuntime{}; rt.failures.Store(1); return rt }(),
			expectedErr: errTestBootstrap,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			inst, err := CreateInstance(context.Background(), test.config, WithRuntime(test.runtime))
			require.ErrorIs(err, ErrInitialization)
			if test.expectedErr != nil {
				require.ErrorIs(err, test.expectedErr)
			}
			require.Nil(inst)
			require.False(IsInstanceReady(inst))
		})
	}
}

func TestBootstrapFailureIsRetried(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	rt := &testRuntime{}
	rt.failures.Store(1)

	_, err := CreateInstance(ctx, Config{Network: Localhost}, WithRuntime(rt))
	require.ErrorIs(err, errTestBootstrap)

	_, err = CreateInstance(ctx, Config{Network: Localhost}, WithRuntime(rt))
	require.NoError(err)
	_, err = CreateInstance(ctx, Config{Network: Localhost}, WithRuntime(rt))
	require.NoError(err)

	// one failed attempt, one successful, none after
	require.Equal(int32(2), rt.bootstrapCalls.Load())
}

func TestBootstrapOncePerRuntime(t *testing.T) {
	require := require.New(t)

	rt := &testRuntime{}
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := CreateInstance(context.Background(), Config{Network: Localhost}, WithRuntime(rt))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(err)
	}
	require.Equal(int32(1), rt.bootstrapCalls.Load())
}

func TestBootstrapWaitHonorsContext(t *testing.T) {
	require := require.New(t)

	rt := &testRuntime{release: make(chan struct{})}
	first := make(chan error, 1)
	go func() {
		_, err := CreateInstance(context.Background(), Config{Network: Localhost}, WithRuntime(rt))
		first <- err
	}()
	require.Eventually(func() bool {
		return rt.bootstrapCalls.Load() == 1
	}, time.Second, time.Millisecond)

	// a caller waiting behind a stalled bootstrap gives up with its context
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := CreateInstance(ctx, Config{Network: Localhost}, WithRuntime(rt))
	require.ErrorIs(err, context.DeadlineExceeded)
	require.ErrorIs(err, ErrInitialization)

	close(rt.release)
	require.NoError(<-first)

	_, err = CreateInstance(context.Background(), Config{Network: Localhost}, WithRuntime(rt))
	require.NoError(err)
	require.Equal(int32(1), rt.bootstrapCalls.Load())
}

func TestGetPublicKeyWithoutInstance(t *testing.T) {
	require := require.New(t)

	_, err := GetPublicKey(nil)
	require.ErrorIs(err, ErrNoKeypair)

	_, err = GetPublicKey(&Instance{engine: &testEngine{}})
	require.ErrorIs(err, ErrNoKeypair)
}
