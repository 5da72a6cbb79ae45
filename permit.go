// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/fhevm/cache"
	"github.com/luxfi/fhevm/signer"
)

// DefaultPermitTTL is how long a cached permit is reused
const DefaultPermitTTL = 24 * time.Hour

type permitKey struct {
	contract  common.Address
	owner     common.Address
	chainID   string
	publicKey common.Hash
}

// PermitCache reuses reencryption permits per (contract, owner, signer
// chain, public key). Concurrent requests for the same permit share one
// signature request.
type PermitCache struct {
	cache *cache.TTLCache[permitKey, *AuthorizationSignature]
}

// NewPermitCache returns a cache keeping permits for ttl, or for
// DefaultPermitTTL when ttl is not positive
func NewPermitCache(ttl time.Duration) *PermitCache {
	if ttl <= 0 {
		ttl = DefaultPermitTTL
	}
	return &PermitCache{
		cache: cache.NewTTLCache[permitKey, *AuthorizationSignature](ttl),
	}
}

// Get returns a cached permit, creating one with s if none is fresh. The
// chain the signer is connected to is part of the key, so a signer that
// switched chains gets a permit for its current chain.
func (c *PermitCache) Get(ctx context.Context, inst *Instance, contract, user string, s signer.Signer) (*AuthorizationSignature, error) {
	key, err := c.key(inst, contract, user)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = inst.signer
	}
	if s == nil {
		return nil, ErrNoSigner
	}
	chainID, err := s.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get signer chain id: %w", err)
	}
	key.chainID = chainID.String()

	for {
		var fetched bool
		permit, err := c.cache.Get(key, func(permitKey) (*AuthorizationSignature, error) {
			fetched = true
			return CreateReencryptionPermit(ctx, inst, contract, user, s)
		}, false)
		// A shared fetch canceled by another caller is retried with ctx
		if err != nil && !fetched && ctx.Err() == nil && isContextError(err) {
			continue
		}
		return permit, err
	}
}

// Forget drops the cached permits of (contract, user) for inst on every
// chain
func (c *PermitCache) Forget(inst *Instance, contract, user string) error {
	key, err := c.key(inst, contract, user)
	if err != nil {
		return err
	}
	c.cache.RemoveFunc(func(k permitKey) bool {
		return k.contract == key.contract && k.owner == key.owner && k.publicKey == key.publicKey
	})
	return nil
}

func (*PermitCache) key(inst *Instance, contract, user string) (permitKey, error) {
	publicKey, err := GetPublicKey(inst)
	if err != nil {
		if !IsInstanceReady(inst) {
			return permitKey{}, ErrNotReady
		}
		return permitKey{}, err
	}
	contractAddr, err := toAddress(contract)
	if err != nil {
		return permitKey{}, fmt.Errorf("contract address: %w", err)
	}
	owner, err := toAddress(user)
	if err != nil {
		return permitKey{}, fmt.Errorf("user address: %w", err)
	}
	return permitKey{
		contract:  contractAddr,
		owner:     owner,
		publicKey: common.Keccak256Hash(publicKey),
	}, nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
