// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package eip712 builds and verifies the domain-separated typed-data
// messages that authorize reencryption of ciphertext handles.
//
// A signature is bound to a domain of (chain id, verifying contract): a
// signature produced for one contract never verifies for another.
package eip712

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/accounts"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/geth/common/math"
	"github.com/luxfi/geth/signer/core/apitypes"
)

const (
	DomainName    = "Authorization token"
	DomainVersion = "1"

	// ReencryptType authorizes reencryption of a single handle
	ReencryptType = "Reencrypt"
	// PermitType authorizes reencryption of any handle of a contract for an owner
	PermitType = "ReencryptPermit"

	domainType = "EIP712Domain"

	// SignatureLength is the length of a recoverable secp256k1 signature
	SignatureLength = crypto.SignatureLength
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrSignerMismatch   = errors.New("recovered signer does not match")
	ErrInvalidChainID   = errors.New("invalid chain id")

	domainFields = []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	}
	reencryptFields = []apitypes.Type{
		{Name: "publicKey", Type: "bytes"},
		{Name: "handle", Type: "uint256"},
	}
	permitFields = []apitypes.Type{
		{Name: "publicKey", Type: "bytes"},
		{Name: "owner", Type: "address"},
	}
)

// Domain returns the authorization domain for contract on chainID
func Domain(chainID *big.Int, contract common.Address) apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              DomainName,
		Version:           DomainVersion,
		ChainId:           (*math.HexOrDecimal256)(new(big.Int).Set(chainID)),
		VerifyingContract: contract.Hex(),
	}
}

// NewReencrypt returns the message authorizing reencryption of handle under
// publicKey. The handle is carried as a base-10 string.
func NewReencrypt(chainID *big.Int, contract common.Address, publicKey []byte, handle *uint256.Int) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			domainType:    domainFields,
			ReencryptType: reencryptFields,
		},
		PrimaryType: ReencryptType,
		Domain:      Domain(chainID, contract),
		Message: apitypes.TypedDataMessage{
			"publicKey": hexutil.Encode(publicKey),
			"handle":    handle.Dec(),
		},
	}
}

// NewPermit returns the message authorizing reencryption of owner's values
// held by contract under publicKey
func NewPermit(chainID *big.Int, contract common.Address, publicKey []byte, owner common.Address) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			domainType: domainFields,
			PermitType: permitFields,
		},
		PrimaryType: PermitType,
		Domain:      Domain(chainID, contract),
		Message: apitypes.TypedDataMessage{
			"publicKey": hexutil.Encode(publicKey),
			"owner":     owner.Hex(),
		},
	}
}

// Hash returns the EIP-712 signing digest of td
func Hash(td apitypes.TypedData) ([]byte, error) {
	if td.Domain.ChainId == nil || (*big.Int)(td.Domain.ChainId).Sign() <= 0 {
		return nil, ErrInvalidChainID
	}
	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data: %w", err)
	}
	return hash, nil
}

// Sign signs td with key. The recovery id is offset by 27, as wallets do.
func Sign(td apitypes.TypedData, key *ecdsa.PrivateKey) ([]byte, error) {
	hash, err := Hash(td)
	if err != nil {
		return nil, err
	}
	return signHash(hash, key)
}

// SignPersonal signs message with the personal-sign prefix
func SignPersonal(message []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	return signHash(accounts.TextHash(message), key)
}

// Recover returns the address that signed td
func Recover(td apitypes.TypedData, sig []byte) (common.Address, error) {
	hash, err := Hash(td)
	if err != nil {
		return common.Address{}, err
	}
	return recoverHash(hash, sig)
}

// RecoverPersonal returns the address that personal-signed message
func RecoverPersonal(message, sig []byte) (common.Address, error) {
	return recoverHash(accounts.TextHash(message), sig)
}

// Verify checks that td was signed by expected
func Verify(td apitypes.TypedData, sig []byte, expected common.Address) error {
	signer, err := Recover(td, sig)
	if err != nil {
		return err
	}
	if signer != expected {
		return fmt.Errorf("%w: got %s, expected %s", ErrSignerMismatch, signer, expected)
	}
	return nil
}

// EqualAddress compares two hex addresses ignoring case
func EqualAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimPrefix(a, "0x"), strings.TrimPrefix(b, "0x"))
}

func signHash(hash []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

func recoverHash(hash, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}
	normalized := common.CopyBytes(sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(hash, normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	return common.PubkeyToAddress(*pub), nil
}
