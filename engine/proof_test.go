package engine

import (
	"bytes"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func TestDeriveHandle(t *testing.T) {
	require := require.New(t)

	ct := []byte("ciphertext")
	h0 := DeriveHandle(ct, FheUint64, 0)
	h1 := DeriveHandle(ct, FheUint64, 1)

	require.NotEqual(h0, h1)
	require.Equal(FheUint64, HandleType(h0))
	require.Equal(byte(1), h1[29])
	require.Equal(HandleVersion, h0[31])
	require.Equal(h0, DeriveHandle(ct, FheUint64, 0))
	require.NotEqual(h0, DeriveHandle([]byte("other"), FheUint64, 0))
}

func TestInputProof(t *testing.T) {
	tests := []struct {
		name        string
		handles     []common.Hash
		ct          []byte
		expectedErr error
	}{
		{
			name:    "single handle",
			handles: []common.Hash{{0x01}},
			ct:      []byte{0xaa, 0xbb},
		},
		{
			name:    "many handles",
			handles: []common.Hash{{0x01}, {0x02}, {0x03}},
			ct:      bytes.Repeat([]byte{0x7f}, 64),
		},
		{
			name:        "no handles",
			ct:          []byte{0x01},
			expectedErr: ErrInvalidInputProof,
		},
		{
			name:        "too many handles",
			handles:     make([]common.Hash, MaxHandles+1),
			ct:          []byte{0x01},
			expectedErr: ErrInvalidInputProof,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			proof, err := EncodeInputProof(tt.handles, tt.ct)
			require.ErrorIs(err, tt.expectedErr)
			if tt.expectedErr != nil {
				return
			}

			handles, ct, err := DecodeInputProof(proof)
			require.NoError(err)
			require.Equal(tt.handles, handles)
			require.Equal(tt.ct, ct)
		})
	}
}

func TestDecodeInputProofTruncated(t *testing.T) {
	require := require.New(t)

	_, _, err := DecodeInputProof(nil)
	require.ErrorIs(err, ErrInvalidInputProof)

	_, _, err = DecodeInputProof([]byte{2, 0x01})
	require.ErrorIs(err, ErrInvalidInputProof)

	_, _, err = DecodeInputProof([]byte{0, 0x01})
	require.ErrorIs(err, ErrInvalidInputProof)
}

func TestCiphertextVerify(t *testing.T) {
	require := require.New(t)

	var nilCt *Ciphertext
	require.ErrorIs(nilCt.Verify(), ErrInvalidCiphertext)
	require.ErrorIs((&Ciphertext{Handles: []common.Hash{{1}}}).Verify(), ErrInvalidCiphertext)
	require.ErrorIs((&Ciphertext{Data: []byte{1}}).Verify(), ErrInvalidCiphertext)
	require.NoError((&Ciphertext{Data: []byte{1}, Handles: []common.Hash{{1}}}).Verify())
}
