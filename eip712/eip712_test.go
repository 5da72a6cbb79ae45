package eip712

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

var (
	contractA = common.HexToAddress("0x1111111111111111111111111111111111111111")
	contractB = common.HexToAddress("0x2222222222222222222222222222222222222222")
	chainID   = big.NewInt(11155111)
)

func TestReencryptBinding(t *testing.T) {
	require := require.New(t)

	key, err := crypto.GenerateKey()
	require.NoError(err)
	owner := common.PubkeyToAddress(key.PublicKey)
	publicKey := []byte{0xde, 0xad, 0xbe, 0xef}
	handle := uint256.NewInt(42)

	td := NewReencrypt(chainID, contractA, publicKey, handle)
	require.Equal(ReencryptType, td.PrimaryType)
	require.Equal("42", td.Message["handle"])
	require.Equal("0xdeadbeef", td.Message["publicKey"])

	sig, err := Sign(td, key)
	require.NoError(err)
	require.Len(sig, SignatureLength)
	require.GreaterOrEqual(sig[64], byte(27))
	require.NoError(Verify(td, sig, owner))

	// Same signature, different verifying contract
	err = Verify(NewReencrypt(chainID, contractB, publicKey, handle), sig, owner)
	require.ErrorIs(err, ErrSignerMismatch)

	// Same signature, different chain
	err = Verify(NewReencrypt(big.NewInt(31337), contractA, publicKey, handle), sig, owner)
	require.ErrorIs(err, ErrSignerMismatch)

	// Same signature, different handle
	err = Verify(NewReencrypt(chainID, contractA, publicKey, uint256.NewInt(43)), sig, owner)
	require.ErrorIs(err, ErrSignerMismatch)
}

func TestPermitSchemaDiffers(t *testing.T) {
	require := require.New(t)

	key, err := crypto.GenerateKey()
	require.NoError(err)
	owner := common.PubkeyToAddress(key.PublicKey)
	publicKey := []byte{0x01}

	permit := NewPermit(chainID, contractA, publicKey, owner)
	require.Equal(PermitType, permit.PrimaryType)
	require.Equal(owner.Hex(), permit.Message["owner"])

	permitHash, err := Hash(permit)
	require.NoError(err)
	reencryptHash, err := Hash(NewReencrypt(chainID, contractA, publicKey, uint256.NewInt(0)))
	require.NoError(err)
	require.NotEqual(permitHash, reencryptHash)

	sig, err := Sign(permit, key)
	require.NoError(err)
	signer, err := Recover(permit, sig)
	require.NoError(err)
	require.Equal(owner, signer)
}

func TestHashRequiresChainID(t *testing.T) {
	td := NewReencrypt(big.NewInt(0), contractA, nil, uint256.NewInt(1))
	_, err := Hash(td)
	require.ErrorIs(t, err, ErrInvalidChainID)
}

func TestRecoverPersonal(t *testing.T) {
	require := require.New(t)

	key, err := crypto.GenerateKey()
	require.NoError(err)
	msg := []byte("public key bytes")

	sig, err := SignPersonal(msg, key)
	require.NoError(err)
	signer, err := RecoverPersonal(msg, sig)
	require.NoError(err)
	require.Equal(common.PubkeyToAddress(key.PublicKey), signer)

	_, err = RecoverPersonal(msg, sig[:10])
	require.ErrorIs(err, ErrInvalidSignature)
}

func TestEqualAddress(t *testing.T) {
	require := require.New(t)

	require.True(EqualAddress("0xAbCd", "0xabcd"))
	require.True(EqualAddress("abcd", "0xABCD"))
	require.False(EqualAddress("0xabce", "0xabcd"))
}
