// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/geth/signer/core/apitypes"

	"github.com/luxfi/fhevm/eip712"
)

var (
	_ Signer = (*LocalSigner)(nil)
	_ Signer = (*RemoteSigner)(nil)

	ErrNoAccounts = errors.New("wallet exposes no accounts")
)

// Signer is the signing capability bound to one account
type Signer interface {
	// Address returns the signing account
	Address() common.Address

	// ChainID returns the chain the signer is connected to
	ChainID(ctx context.Context) (*big.Int, error)

	// SignTypedData signs an EIP-712 message
	SignTypedData(ctx context.Context, td apitypes.TypedData) ([]byte, error)

	// SignMessage signs message with the personal-sign prefix
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
}

// LocalSigner signs with an in-process secp256k1 key
type LocalSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
}

// NewLocalSigner creates a new local signer for chainID
func NewLocalSigner(key *ecdsa.PrivateKey, chainID *big.Int) *LocalSigner {
	return &LocalSigner{
		key:     key,
		address: common.PubkeyToAddress(key.PublicKey),
		chainID: new(big.Int).Set(chainID),
	}
}

// NewLocalSignerFromHex parses a hex private key, with or without 0x prefix
func NewLocalSignerFromHex(hexKey string, chainID *big.Int) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(trim0x(hexKey))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewLocalSigner(key, chainID), nil
}

func (s *LocalSigner) Address() common.Address {
	return s.address
}

func (s *LocalSigner) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(s.chainID), nil
}

func (s *LocalSigner) SignTypedData(_ context.Context, td apitypes.TypedData) ([]byte, error) {
	return eip712.Sign(td, s.key)
}

func (s *LocalSigner) SignMessage(_ context.Context, message []byte) ([]byte, error) {
	return eip712.SignPersonal(message, s.key)
}

// SignerClient is the JSON-RPC transport of a remote wallet. *rpc.Client
// satisfies it.
type SignerClient interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// RemoteSigner signs through a wallet exposing the standard eth_ namespace
type RemoteSigner struct {
	client  SignerClient
	address common.Address
}

// NewRemoteSigner creates a signer for address. When address is the zero
// address the wallet's first account is used.
func NewRemoteSigner(ctx context.Context, client SignerClient, address common.Address) (*RemoteSigner, error) {
	if address == (common.Address{}) {
		var accounts []common.Address
		if err := client.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
			return nil, fmt.Errorf("failed to list wallet accounts: %w", err)
		}
		if len(accounts) == 0 {
			return nil, ErrNoAccounts
		}
		address = accounts[0]
	}
	return &RemoteSigner{
		client:  client,
		address: address,
	}, nil
}

func (s *RemoteSigner) Address() common.Address {
	return s.address
}

func (s *RemoteSigner) ChainID(ctx context.Context) (*big.Int, error) {
	var id hexutil.Big
	if err := s.client.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	return (*big.Int)(&id), nil
}

func (s *RemoteSigner) SignTypedData(ctx context.Context, td apitypes.TypedData) ([]byte, error) {
	payload, err := json.Marshal(td)
	if err != nil {
		return nil, err
	}
	var sig hexutil.Bytes
	if err := s.client.CallContext(ctx, &sig, "eth_signTypedData_v4", s.address, string(payload)); err != nil {
		return nil, fmt.Errorf("failed to sign remotely: %w", err)
	}
	return sig, nil
}

func (s *RemoteSigner) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	var sig hexutil.Bytes
	if err := s.client.CallContext(ctx, &sig, "personal_sign", hexutil.Bytes(message), s.address); err != nil {
		return nil, fmt.Errorf("failed to sign remotely: %w", err)
	}
	return sig, nil
}

func trim0x(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
