package common

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateRandByteArray returns size cryptographically random bytes.
// It panics if the system RNG fails, since no caller can recover from that.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// MakeRandHexString returns a random hex string of size source bytes
// (the result is 2*size characters long).
func MakeRandHexString(size int) (string, error) {
	return hex.EncodeToString(GenerateRandByteArray(size)), nil
}
