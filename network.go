// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"fmt"
	"sort"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
)

const (
	Sepolia   = "sepolia"
	Localhost = "localhost"

	// DefaultNetwork is used when Config.Network is empty
	DefaultNetwork = Sepolia

	// DefaultGatewayURL is the last resort gateway of a decrypt request
	DefaultGatewayURL = "https://gateway.sepolia.zama.ai"
)

// NetworkConfig is the resolved network an instance is bound to
type NetworkConfig struct {
	Name               string         `json:"name"`
	ChainID            uint64         `json:"chainId"`
	GatewayURL         string         `json:"gatewayUrl"`
	KMSContractAddress common.Address `json:"kmsContractAddress"`
	ACLContractAddress common.Address `json:"aclContractAddress"`
}

var networks = map[string]NetworkConfig{
	Sepolia: {
		Name:               Sepolia,
		ChainID:            11155111,
		GatewayURL:         DefaultGatewayURL,
		KMSContractAddress: common.HexToAddress("0x9D6891A6240D6130c54ae243d8005063D05fE14b"),
		ACLContractAddress: common.HexToAddress("0xFee8407e2f5e3Ee68ad77cAE98c434e637f516e5"),
	},
	Localhost: {
		Name:       Localhost,
		ChainID:    31337,
		GatewayURL: "http://localhost:8545",
	},
}

// LookupNetwork returns the defaults of a known network
func LookupNetwork(name string) (NetworkConfig, bool) {
	n, ok := networks[name]
	return n, ok
}

// Networks returns the known networks sorted by name
func Networks() []NetworkConfig {
	out := make([]NetworkConfig, 0, len(networks))
	for _, n := range networks {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Config selects a network and overrides its defaults
type Config struct {
	// Network is "sepolia", "localhost" or a custom name. Empty selects
	// sepolia.
	Network string `json:"network" mapstructure:"network"`

	// ChainID overrides the network's chain id when non-zero
	ChainID uint64 `json:"chainId,omitempty" mapstructure:"chain-id"`

	GatewayURL         string `json:"gatewayUrl,omitempty" mapstructure:"gateway-url"`
	KMSContractAddress string `json:"kmsContractAddress,omitempty" mapstructure:"kms-contract-address"`
	ACLContractAddress string `json:"aclContractAddress,omitempty" mapstructure:"acl-contract-address"`

	// PublicKey is a serialized engine public key. When nil the engine
	// generates a keypair.
	PublicKey hexutil.Bytes `json:"publicKey,omitempty" mapstructure:"-"`

	// AllowNetworkFallback resolves unknown networks to the sepolia
	// defaults instead of failing
	AllowNetworkFallback bool `json:"allowNetworkFallback,omitempty" mapstructure:"allow-network-fallback"`
}

// Resolve applies the overrides of c to its network's defaults. The second
// return value reports whether an unknown network fell back to the default.
func (c Config) Resolve() (NetworkConfig, bool, error) {
	name := c.Network
	if name == "" {
		name = DefaultNetwork
	}

	resolved, known := networks[name]
	fellBack := false
	if !known {
		if !c.AllowNetworkFallback {
			return NetworkConfig{}, false, fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
		}
		resolved = networks[DefaultNetwork]
		resolved.Name = name
		fellBack = true
	}

	if c.ChainID != 0 {
		resolved.ChainID = c.ChainID
	}
	if c.GatewayURL != "" {
		resolved.GatewayURL = c.GatewayURL
	}
	if c.KMSContractAddress != "" {
		if !common.IsHexAddress(c.KMSContractAddress) {
			return NetworkConfig{}, false, fmt.Errorf("invalid KMS contract address %q", c.KMSContractAddress)
		}
		resolved.KMSContractAddress = common.HexToAddress(c.KMSContractAddress)
	}
	if c.ACLContractAddress != "" {
		if !common.IsHexAddress(c.ACLContractAddress) {
			return NetworkConfig{}, false, fmt.Errorf("invalid ACL contract address %q", c.ACLContractAddress)
		}
		resolved.ACLContractAddress = common.HexToAddress(c.ACLContractAddress)
	}
	return resolved, fellBack, nil
}
