// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func TestConfigResolve(t *testing.T) {
	tests := []struct {
		name         string
		config       Config
		expected     NetworkConfig
		fellBack     bool
		expectedErr  error
		expectAnyErr bool
	}{
		{
			name:     "empty selects sepolia",
			config:   Config{},
			expected: networks[Sepolia],
		},
		{
			name:   "sepolia",
			config: Config{Network: Sepolia},
			expected: NetworkConfig{
				Name:               Sepolia,
				ChainID:            11155111,
				GatewayURL:         "https://gateway.sepolia.zama.ai",
				KMSContractAddress: common.HexToAddress("0x9D6891A6240D6130c54ae243d8005063D05fE14b"),
				ACLContractAddress: common.HexToAddress("0xFee8407e2f5e3Ee68ad77cAE98c434e637f516e5"),
			},
		},
		{
			name:   "localhost",
			config: Config{Network: Localhost},
			expected: NetworkConfig{
				Name:       Localhost,
				ChainID:    31337,
				GatewayURL: "http://localhost:8545",
			},
		},
		{
			name:        "unknown network",
			config:      Config{Network: "mainnet"},
			expectedErr: ErrUnknownNetwork,
		},
		{
			name:   "unknown network with fallback",
			config: Config{Network: "devnet", AllowNetworkFallback: true},
			expected: NetworkConfig{
				Name:               "devnet",
				ChainID:            11155111,
				GatewayURL:         "https://gateway.sepolia.zama.ai",
				KMSContractAddress: common.HexToAddress("0x9D6891A6240D6130c54ae243d8005063D05fE14b"),
				ACLContractAddress: common.HexToAddress("0xFee8407e2f5e3Ee68ad77cAE98c434e637f516e5"),
			},
			fellBack: true,
		},
		{
			name: "overrides",
			config: Config{
				Network:            Localhost,
				ChainID:            9000,
				GatewayURL:         "http://127.0.0.1:9090",
				KMSContractAddress: "0x00000000000000000000000000000000000000aa",
				ACLContractAddress: "0x00000000000000000000000000000000000000bb",
			},
			expected: NetworkConfig{
				Name:               Localhost,
				ChainID:            9000,
				GatewayURL:         "http://127.0.0.1:9090",
				KMSContractAddress: common.HexToAddress("0xaa"),
				ACLContractAddress: common.HexToAddress("0xbb"),
			},
		},
		{
			name:         "invalid kms address",
			config:       Config{Network: Localhost, KMSContractAddress: "0x1234"},
			expectAnyErr: true,
		},
		{
			name:         "invalid acl address",
			config:       Config{Network: Localhost, ACLContractAddress: "not an address"},
			expectAnyErr: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			resolved, fellBack, err := test.config.Resolve()
			switch {
			case test.expectedErr != nil:
				require.ErrorIs(err, test.expectedErr)
				return
			case test.expectAnyErr:
				require.Error(err)
				return
			}
			require.NoError(err)
			require.Equal(test.expected, resolved)
			require.Equal(test.fellBack, fellBack)
		})
	}
}

func TestNetworksSorted(t *testing.T) {
	require := require.New(t)

	ns := Networks()
	require.Len(ns, 2)
	require.Equal(Localhost, ns[0].Name)
	require.Equal(Sepolia, ns[1].Name)

	n, ok := LookupNetwork(Sepolia)
	require.True(ok)
	require.Equal(uint64(11155111), n.ChainID)

	_, ok = LookupNetwork("unknown")
	require.False(ok)
}
