// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"fmt"

	"github.com/luxfi/geth/common"
)

// HandleVersion is stored in the last byte of every derived handle
const HandleVersion byte = 0

// MaxHandles is the largest number of handles one input proof can carry
const MaxHandles = 255

// FheType is the on-chain type code embedded in a handle
type FheType uint8

const (
	FheBool     FheType = 0
	FheUint4    FheType = 1
	FheUint8    FheType = 2
	FheUint16   FheType = 3
	FheUint32   FheType = 4
	FheUint64   FheType = 5
	FheUint128  FheType = 6
	FheAddress  FheType = 7
	FheUint256  FheType = 8
	FheBytes    FheType = 9
	FheBytes256 FheType = 11
)

func (t FheType) String() string {
	switch t {
	case FheBool:
		return "ebool"
	case FheUint4:
		return "euint4"
	case FheUint8:
		return "euint8"
	case FheUint16:
		return "euint16"
	case FheUint32:
		return "euint32"
	case FheUint64:
		return "euint64"
	case FheUint128:
		return "euint128"
	case FheAddress:
		return "eaddress"
	case FheUint256:
		return "euint256"
	case FheBytes:
		return "ebytes"
	case FheBytes256:
		return "ebytes256"
	default:
		return fmt.Sprintf("FheType(%d)", uint8(t))
	}
}

// DeriveHandle computes the handle of the index-th input encrypted in ct.
// The handle is the keccak256 digest of the serialized ciphertext with the
// index, type code and version written into its last three bytes.
func DeriveHandle(ct []byte, t FheType, index uint8) common.Hash {
	h := common.Keccak256Hash(ct, []byte{index})
	h[29] = index
	h[30] = byte(t)
	h[31] = HandleVersion
	return h
}

// HandleType returns the type code embedded in h
func HandleType(h common.Hash) FheType {
	return FheType(h[30])
}

// EncodeInputProof serializes handles and the ciphertext they reference as
// [count][count * 32-byte handle][ciphertext].
func EncodeInputProof(handles []common.Hash, ct []byte) ([]byte, error) {
	if len(handles) == 0 || len(handles) > MaxHandles {
		return nil, fmt.Errorf("%w: %d handles", ErrInvalidInputProof, len(handles))
	}
	proof := make([]byte, 0, 1+len(handles)*common.HashLength+len(ct))
	proof = append(proof, byte(len(handles)))
	for _, h := range handles {
		proof = append(proof, h.Bytes()...)
	}
	return append(proof, ct...), nil
}

// DecodeInputProof is the inverse of EncodeInputProof
func DecodeInputProof(proof []byte) ([]common.Hash, []byte, error) {
	if len(proof) == 0 {
		return nil, nil, fmt.Errorf("%w: empty", ErrInvalidInputProof)
	}
	count := int(proof[0])
	if count == 0 {
		return nil, nil, fmt.Errorf("%w: no handles", ErrInvalidInputProof)
	}
	end := 1 + count*common.HashLength
	if len(proof) <= end {
		return nil, nil, fmt.Errorf("%w: truncated (%d bytes, %d handles)", ErrInvalidInputProof, len(proof), count)
	}
	handles := make([]common.Hash, count)
	for i := range handles {
		offset := 1 + i*common.HashLength
		handles[i] = common.BytesToHash(proof[offset : offset+common.HashLength])
	}
	return handles, proof[end:], nil
}
