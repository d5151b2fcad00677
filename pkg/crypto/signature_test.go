package crypto

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T) (string, string) {
	t.Helper()
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	return hexutil.Encode(ethcrypto.FromECDSA(key)), ethcrypto.PubkeyToAddress(key.PublicKey).Hex()
}

func TestVerifySignature(t *testing.T) {
	keyHex, address := newTestSigner(t)
	msg := "Sign this message to link your wallet.\nNonce: abc123"

	sig, err := SignMessage(msg, keyHex)
	require.NoError(t, err)

	assert.True(t, VerifySignature(msg, sig, address))
	assert.True(t, VerifySignature(msg, sig, strings.ToLower(address)))
	assert.True(t, VerifySignature(msg, strings.TrimPrefix(sig, "0x"), address))

	raw, err := hexutil.Decode(sig)
	require.NoError(t, err)
	raw[64] -= 27
	assert.True(t, VerifySignature(msg, hexutil.Encode(raw), address), "v in {0,1}")

	assert.False(t, VerifySignature(msg+"x", sig, address))

	_, otherAddress := newTestSigner(t)
	assert.False(t, VerifySignature(msg, sig, otherAddress))
}

func TestVerifySignature_Malformed(t *testing.T) {
	keyHex, address := newTestSigner(t)
	sig, err := SignMessage("hello", keyHex)
	require.NoError(t, err)

	raw, err := hexutil.Decode(sig)
	require.NoError(t, err)
	raw[64] = 9

	cases := map[string][2]string{
		"not hex":     {"zz", address},
		"short":       {"0x1234", address},
		"bad v":       {hexutil.Encode(raw), address},
		"bad address": {sig, "0x1234"},
		"empty":       {"", address},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.False(t, VerifySignature("hello", tc[0], tc[1]))
		})
	}
}
