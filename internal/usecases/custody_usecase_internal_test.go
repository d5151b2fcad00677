package usecases

import (
	"crypto/ecdsa"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"soulbound.backend/pkg/crypto"
)

func TestCreateCustodialWallet_KeyGenerationFailure(t *testing.T) {
	orig := generateKey
	t.Cleanup(func() { generateKey = orig })
	generateKey = func() (*ecdsa.PrivateKey, error) {
		return nil, errors.New("entropy exhausted")
	}

	cipher, err := crypto.NewKeyCipher(strings.Repeat("cd", 32))
	require.NoError(t, err)

	_, _, err = NewCustodyUsecase(nil, cipher).CreateCustodialWallet()
	require.ErrorContains(t, err, "entropy exhausted")
}
