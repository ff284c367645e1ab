package transfer

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// passwordLength is the number of characters in a generated link password.
const passwordLength = 12

// passwordAlphabet is lowercase hex — the passwords gate casual access to a
// time-limited link, they are not high-entropy secrets.
const passwordAlphabet = "0123456789abcdef"

// GeneratePassword returns a random 12-character lowercase-hex password for
// protecting a shared link when the caller did not supply one.
func GeneratePassword() (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))

	buf := make([]byte, passwordLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("transfer: generating password: %w", err)
		}

		buf[i] = passwordAlphabet[n.Int64()]
	}

	return string(buf), nil
}
