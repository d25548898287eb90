// Package random generates random strings for secrets and keys.
package random

import (
	"crypto/rand"
	"math/big"
)

const alphanumeric = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Seq returns a random alphanumeric string of length n drawn from crypto/rand.
func Seq(n int) string {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(alphanumeric)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		buf[i] = alphanumeric[idx.Int64()]
	}
	return string(buf)
}
