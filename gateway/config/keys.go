// Copyright (C) 2024-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	// Command line option keys
	ConfigFileKey = "config-file"

	// Environment variable keys
	ConfigFileEnvKey = "CONFIG_FILE"

	// Top-level configuration keys
	APIPortKey         = "api-port"
	ChainIDKey         = "chain-id"
	DataDirKey         = "data-dir"
	StoreCacheSizeKey  = "store-cache-size"
	NetworkKeyFileKey  = "network-key-file"
	KMSSignaturesKey   = "kms-signatures"
	ShutdownTimeoutKey = "shutdown-timeout"
)
