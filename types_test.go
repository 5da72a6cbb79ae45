// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInterpretBytes(t *testing.T) {
	tests := []struct {
		name        string
		value       *big.Int
		length      int
		expected    []byte
		expectedErr error
	}{
		{
			name:     "leading zero restored",
			value:    new(big.Int).SetBytes([]byte{0x00, 0x01}),
			length:   2,
			expected: []byte{0x00, 0x01},
		},
		{
			name:     "zero value",
			value:    new(big.Int),
			length:   3,
			expected: []byte{0x00, 0x00, 0x00},
		},
		{
			name:     "exact length",
			value:    big.NewInt(0x0102),
			length:   2,
			expected: []byte{0x01, 0x02},
		},
		{
			name:        "too long",
			value:       big.NewInt(0x010203),
			length:      2,
			expectedErr: ErrRange,
		},
		{
			name:        "negative length",
			value:       big.NewInt(1),
			length:      -1,
			expectedErr: ErrRange,
		},
		{
			name:        "no value",
			length:      1,
			expectedErr: ErrConversion,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			res := &DecryptResult{Value: test.value}
			b, err := res.InterpretBytes(test.length)
			require.ErrorIs(err, test.expectedErr)
			if test.expectedErr != nil {
				return
			}
			require.Equal(test.expected, b)
		})
	}
}

func TestInterpretBytesIsMinimal(t *testing.T) {
	res := &DecryptResult{Value: new(big.Int).SetBytes([]byte{0x00, 0x01})}
	b, err := res.Interpret(Bytes)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, b)
}
