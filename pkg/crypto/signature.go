package crypto

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// VerifySignature reports whether signature is a personal_sign (EIP-191)
// signature of message by expectedAddress. Malformed input returns false.
func VerifySignature(message, signature, expectedAddress string) bool {
	if !common.IsHexAddress(expectedAddress) {
		return false
	}

	sig, err := hexutil.Decode(ensureHexPrefix(strings.TrimSpace(signature)))
	if err != nil || len(sig) != ethcrypto.SignatureLength {
		return false
	}

	// Wallets emit v as 27/28; SigToPub wants 0/1.
	sig = append([]byte(nil), sig...)
	switch sig[ethcrypto.RecoveryIDOffset] {
	case 27, 28:
		sig[ethcrypto.RecoveryIDOffset] -= 27
	case 0, 1:
	default:
		return false
	}

	pub, err := ethcrypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return false
	}

	recovered := ethcrypto.PubkeyToAddress(*pub)
	return recovered == common.HexToAddress(expectedAddress)
}

// SignMessage produces a personal_sign signature with v in {27, 28}.
func SignMessage(message string, privateKeyHex string) (string, error) {
	key, err := ethcrypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return "", err
	}
	sig, err := ethcrypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		return "", err
	}
	sig[ethcrypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

func ensureHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return "0x" + s[2:]
	}
	return "0x" + s
}
