// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/luxfi/crypto"
	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/geth/common"
)

var (
	ErrInvalidKMSSignature = errors.New("invalid KMS signature")

	responseDomain = []byte("fhevm-reencrypt-response")
)

// ResponseDigest is the message a KMS signs to attest that handle decrypts
// to value
func ResponseDigest(handle common.Hash, value *big.Int) []byte {
	return crypto.Keccak256(responseDomain, handle.Bytes(), value.Bytes())
}

// KMSSigner attests reencryption responses with a BLS key
type KMSSigner struct {
	sk *bls.SecretKey
	pk *bls.PublicKey
}

func NewKMSSigner(sk *bls.SecretKey) *KMSSigner {
	return &KMSSigner{
		sk: sk,
		pk: sk.PublicKey(),
	}
}

// GenerateKMSSigner returns a signer with a fresh key
func GenerateKMSSigner() (*KMSSigner, error) {
	sk, err := bls.NewSecretKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate KMS key: %w", err)
	}
	return NewKMSSigner(sk), nil
}

func (k *KMSSigner) Sign(handle common.Hash, value *big.Int) ([]byte, error) {
	sig, err := k.sk.Sign(ResponseDigest(handle, value))
	if err != nil {
		return nil, err
	}
	return bls.SignatureToBytes(sig), nil
}

// PublicKey returns the compressed public key
func (k *KMSSigner) PublicKey() []byte {
	return bls.PublicKeyToCompressedBytes(k.pk)
}

// VerifyResponseSignature checks a KMS attestation returned with a
// reencryption response
func VerifyResponseSignature(kmsPublicKey []byte, handle common.Hash, value *big.Int, sig []byte) error {
	pk, err := bls.PublicKeyFromCompressedBytes(kmsPublicKey)
	if err != nil {
		return fmt.Errorf("%w: public key: %w", ErrInvalidKMSSignature, err)
	}
	signature, err := bls.SignatureFromBytes(sig)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKMSSignature, err)
	}
	if !bls.Verify(pk, signature, ResponseDigest(handle, value)) {
		return ErrInvalidKMSSignature
	}
	return nil
}
