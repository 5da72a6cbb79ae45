// Copyright (C) 2024-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	defaultAPIPort         = uint16(8545)
	defaultChainID         = uint64(31337)
	defaultStoreCacheSize  = 1024
	defaultShutdownTimeout = 5 * time.Second
)

var (
	errInvalidChainID   = errors.New("chain id must be positive")
	errInvalidCacheSize = errors.New("store cache size must be positive")
)

// Config is the development gateway configuration
type Config struct {
	APIPort         uint16        `mapstructure:"api-port" json:"api-port"`
	ChainID         uint64        `mapstructure:"chain-id" json:"chain-id"`
	DataDir         string        `mapstructure:"data-dir" json:"data-dir"`
	StoreCacheSize  int           `mapstructure:"store-cache-size" json:"store-cache-size"`
	NetworkKeyFile  string        `mapstructure:"network-key-file" json:"network-key-file"`
	KMSSignatures   bool          `mapstructure:"kms-signatures" json:"kms-signatures"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout" json:"shutdown-timeout"`
}

func (c *Config) Validate() error {
	if c.ChainID == 0 {
		return errInvalidChainID
	}
	if c.StoreCacheSize <= 0 {
		return fmt.Errorf("%w: %d", errInvalidCacheSize, c.StoreCacheSize)
	}
	return nil
}

// Persistent reports whether ciphertexts are stored on disk
func (c *Config) Persistent() bool {
	return c.DataDir != ""
}
