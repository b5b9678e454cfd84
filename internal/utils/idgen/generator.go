package idgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const secureIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateSecureID returns "<prefix>_<length random chars>" drawn from [0-9a-z].
func GenerateSecureID(prefix string, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid id length %d", length)
	}

	var sb strings.Builder
	sb.Grow(len(prefix) + 1 + length)
	sb.WriteString(prefix)
	sb.WriteByte('_')

	max := big.NewInt(int64(len(secureIDAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate random id: %w", err)
		}
		sb.WriteByte(secureIDAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// HasPrefix reports whether id was produced by GenerateSecureID with prefix.
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"_") && len(id) > len(prefix)+1
}
