package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

// otpDigits is the fixed width of generated verification codes.
const otpDigits = 6

var otpModulus = big.NewInt(1_000_000)

// GenerateOTP produces a uniformly random 6-digit numeric code (leading
// zeros preserved) together with its SHA-256 digest. The caller
// persists the digest and transmits the plaintext out of band.
func GenerateOTP() (code string, hash string, err error) {
	n, err := rand.Int(rand.Reader, otpModulus)
	if err != nil {
		return "", "", fmt.Errorf("generate otp: %w", err)
	}

	code = fmt.Sprintf("%0*d", otpDigits, n.Int64())
	return code, HashToken(code), nil
}

// HashToken calculates a SHA-256 hash of the provided value. Used for
// both verification codes and refresh tokens so stored values can be
// compared without keeping plaintext.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
