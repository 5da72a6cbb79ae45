// Copyright (C) 2024-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment variables, e.g. FHEVM_GATEWAY_API_PORT
const envPrefix = "FHEVM_GATEWAY"

func NewConfig(v *viper.Viper) (Config, error) {
	cfg, err := BuildConfig(v)
	if err != nil {
		return cfg, err
	}
	if err = cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("failed to validate configuration: %w", err)
	}
	return cfg, nil
}

// AddFlags registers the gateway flags on fs
func AddFlags(fs *pflag.FlagSet) {
	fs.String(ConfigFileKey, "", "Path to a JSON configuration file")
	fs.Uint16(APIPortKey, defaultAPIPort, "Port the gateway API listens on")
	fs.Uint64(ChainIDKey, defaultChainID, "Chain id used in the authorization domain")
	fs.String(DataDirKey, "", "Directory for persistent ciphertext storage. In-memory when empty")
	fs.Int(StoreCacheSizeKey, defaultStoreCacheSize, "Number of ciphertexts kept in memory")
	fs.String(NetworkKeyFileKey, "", "File holding the network keypair. Generated when missing")
	fs.Bool(KMSSignaturesKey, true, "Sign reencryption responses with a KMS key")
	fs.Duration(ShutdownTimeoutKey, defaultShutdownTimeout, "Graceful shutdown timeout")
}

// BuildViper builds the viper instance. All config keys may be provided via
// flag, environment variable or an optional JSON config file.
func BuildViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	// Map flag names to env var names. Flags are capitalized, and hyphens are replaced with underscores.
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	filename := v.GetString(ConfigFileKey)
	if filename == "" {
		filename = os.Getenv(ConfigFileEnvKey)
	}
	if filename == "" {
		return v, nil
	}
	v.SetConfigFile(filename)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return v, nil
}

func SetDefaultConfigValues(v *viper.Viper) {
	v.SetDefault(APIPortKey, defaultAPIPort)
	v.SetDefault(ChainIDKey, defaultChainID)
	v.SetDefault(StoreCacheSizeKey, defaultStoreCacheSize)
	v.SetDefault(KMSSignaturesKey, true)
	v.SetDefault(ShutdownTimeoutKey, defaultShutdownTimeout)
}

// BuildConfig constructs the gateway config using Viper.
// The following precedence order is used. Each item takes precedence over the item below it:
//  1. Flags
//  2. Environment variables
//  3. Config file
//  4. Defaults
func BuildConfig(v *viper.Viper) (Config, error) {
	SetDefaultConfigValues(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal viper config: %w", err)
	}
	cfg.DataDir = getExpandedPath(v, DataDirKey)
	cfg.NetworkKeyFile = getExpandedPath(v, NetworkKeyFileKey)
	return cfg, nil
}

// getExpandedPath gets the string in viper corresponding to [key] and expands
// any variables using the OS env.
func getExpandedPath(v *viper.Viper, key string) string {
	return os.Expand(
		v.GetString(key),
		func(strVar string) string {
			return os.Getenv(strVar)
		},
	)
}
