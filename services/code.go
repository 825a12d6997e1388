package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// InvitationCodeAlphabet omits characters that are easy to confuse (0/O, 1/I).
const InvitationCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// InvitationCodeLength is the length of every generated invitation code.
const InvitationCodeLength = 6

// GenerateRandomCode returns length characters drawn uniformly from
// InvitationCodeAlphabet. Uniqueness is the caller's concern.
func GenerateRandomCode(length int) (string, error) {
	max := big.NewInt(int64(len(InvitationCodeAlphabet)))
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate invitation code: %w", err)
		}
		code[i] = InvitationCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
