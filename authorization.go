// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/signer/core/apitypes"

	"github.com/luxfi/fhevm/eip712"
	"github.com/luxfi/fhevm/signer"
)

// AuthorizationSignature is a signed typed-data authorization together with
// the public key it authorizes
type AuthorizationSignature struct {
	TypedData apitypes.TypedData
	Signature []byte
	PublicKey []byte
}

// Verify checks that the authorization was signed by expected for contract
// on chainID. The typed data is rebuilt for that domain, so a signature
// issued for one contract does not verify for another.
func (a *AuthorizationSignature) Verify(expected common.Address, chainID *big.Int, contract common.Address) error {
	if chainID == nil {
		return eip712.ErrInvalidChainID
	}
	td := a.TypedData
	td.Domain = eip712.Domain(chainID, contract)
	return eip712.Verify(td, a.Signature, expected)
}

// CreateReencryptionPermit asks s to sign a permit allowing reencryption of
// user's values held by contract under the instance's public key. The chain
// id is taken from the signer.
func CreateReencryptionPermit(ctx context.Context, inst *Instance, contract, user string, s signer.Signer) (*AuthorizationSignature, error) {
	if !IsInstanceReady(inst) {
		return nil, ErrNotReady
	}
	contractAddr, err := toAddress(contract)
	if err != nil {
		return nil, fmt.Errorf("contract address: %w", err)
	}
	owner, err := toAddress(user)
	if err != nil {
		return nil, fmt.Errorf("user address: %w", err)
	}
	if s == nil {
		s = inst.signer
	}
	if s == nil {
		return nil, ErrNoSigner
	}
	if s.Address() != owner {
		return nil, fmt.Errorf("%w: signer %s does not control %s", ErrNoSigner, s.Address(), owner)
	}
	publicKey, err := GetPublicKey(inst)
	if err != nil {
		return nil, err
	}

	chainID, err := s.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get signer chain id: %w", err)
	}
	td := eip712.NewPermit(chainID, contractAddr, publicKey, owner)
	sig, err := s.SignTypedData(ctx, td)
	if err != nil {
		return nil, fmt.Errorf("failed to sign reencryption permit: %w", err)
	}
	return &AuthorizationSignature{
		TypedData: td,
		Signature: sig,
		PublicKey: publicKey,
	}, nil
}

// VerifyDecryptSignature reports whether signature is a personal-sign
// signature over publicKey by expectedAddress. Any failure reads as false.
func VerifyDecryptSignature(signature, publicKey []byte, expectedAddress string) bool {
	if !common.IsHexAddress(expectedAddress) {
		return false
	}
	recovered, err := eip712.RecoverPersonal(publicKey, signature)
	if err != nil {
		return false
	}
	return eip712.EqualAddress(recovered.Hex(), expectedAddress)
}
