package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

var randomRead = rand.Read

// codeAlphabet is Crockford base32 without the ambiguous I, L, O and U.
const codeAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// GenerateRandomToken generates a random token of specified length
func GenerateRandomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := randomRead(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// GenerateCode returns n random characters from the redemption code alphabet.
func GenerateCode(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := randomRead(bytes); err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	out := make([]byte, n)
	for i, b := range bytes {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}
