// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package fhevm is a client toolkit for FHEVM networks. It creates an
// engine-backed instance bound to a network, encrypts plaintext values into
// ciphertext handles with input proofs, and decrypts handles through a
// gateway using EIP-712 authorization signatures.
package fhevm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/luxfi/fhevm/engine"
	"github.com/luxfi/fhevm/signer"
)

// Instance is a ready, immutable binding of an engine keypair to a network.
// An Instance is only ever returned fully initialized and is safe for
// concurrent use.
type Instance struct {
	network        NetworkConfig
	engine         engine.Engine
	httpClient     *http.Client
	gatewayTimeout time.Duration
	signer         signer.Signer
	log            log.Logger
}

// CreateInstance resolves cfg, bootstraps the engine runtime if needed and
// builds an engine holding a keypair. Any failure is reported as
// ErrInitialization.
func CreateInstance(ctx context.Context, cfg Config, opts ...Option) (*Instance, error) {
	o := newOptions(opts)

	network, fellBack, err := cfg.Resolve()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	if fellBack {
		o.log.Warn("unknown network, using default network parameters",
			log.String("network", network.Name),
			log.String("default", DefaultNetwork),
		)
	}

	if err := ensureEngineReady(ctx, o.runtime, o.log); err != nil {
		return nil, fmt.Errorf("%w: engine bootstrap: %w", ErrInitialization, err)
	}

	var publicKey []byte
	if len(cfg.PublicKey) > 0 {
		publicKey = cfg.PublicKey
	}
	eng, err := o.runtime.NewEngine(publicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	if eng == nil || !eng.HasKeypair() {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, ErrNoKeypair)
	}

	o.log.Info("created fhevm instance",
		log.String("network", network.Name),
		log.String("gateway", network.GatewayURL),
	)
	return &Instance{
		network:        network,
		engine:         eng,
		httpClient:     o.httpClient,
		gatewayTimeout: o.gatewayTimeout,
		signer:         o.signer,
		log:            o.log,
	}, nil
}

// IsInstanceReady reports whether inst exists and holds a keypair
func IsInstanceReady(inst *Instance) bool {
	return inst != nil && inst.engine != nil && inst.engine.HasKeypair()
}

// GetPublicKey returns the serialized public key of inst
func GetPublicKey(inst *Instance) ([]byte, error) {
	if !IsInstanceReady(inst) {
		return nil, ErrNoKeypair
	}
	pk, err := inst.engine.PublicKey()
	if err != nil {
		return nil, errors.Join(ErrNoKeypair, err)
	}
	if len(pk) == 0 {
		return nil, ErrNoKeypair
	}
	return pk, nil
}

// Network returns the name of the network the instance is bound to
func (i *Instance) Network() string {
	return i.network.Name
}

// Config returns the resolved network configuration
func (i *Instance) Config() NetworkConfig {
	return i.network
}

func (i *Instance) ChainID() *big.Int {
	return new(big.Int).SetUint64(i.network.ChainID)
}

func (i *Instance) GatewayURL() string {
	return i.network.GatewayURL
}

func (i *Instance) KMSContractAddress() common.Address {
	return i.network.KMSContractAddress
}

func (i *Instance) ACLContractAddress() common.Address {
	return i.network.ACLContractAddress
}
