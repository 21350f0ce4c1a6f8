package room

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// IDLength is the number of characters in a room code.
const IDLength = 6

// idAlphabet omits characters that are easy to misread (I, O, 0, 1).
const idAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateID returns a random human-typable room code.
func GenerateID() (string, error) {
	code := make([]byte, IDLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(idAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = idAlphabet[n.Int64()]
	}
	return string(code), nil
}

// NormalizeID canonicalizes a client-supplied room code. It reports false
// when the code cannot be a room id.
func NormalizeID(raw string) (string, bool) {
	id := strings.ToUpper(strings.TrimSpace(raw))
	if len(id) != IDLength {
		return "", false
	}
	for _, c := range id {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return "", false
		}
	}
	return id, true
}
