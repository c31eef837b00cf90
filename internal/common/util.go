package common

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// WipeByteArray overwrites b with zeros. A nil slice is ignored.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// RandomString returns a string of length n whose characters are drawn
// uniformly from alphabet using crypto/rand.
func RandomString(n int, alphabet string) (string, error) {
	if alphabet == "" {
		return "", fmt.Errorf("empty alphabet")
	}

	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}

	return string(out), nil
}
