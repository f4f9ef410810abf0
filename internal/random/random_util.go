// Package random provides small helpers for generating randomized test
// fixtures (addresses, nonces, payload bytes).
package random

import (
	"math/rand"
	"time"
)

// String returns a random uppercase string of length n.
func String(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(Int(65, 90))
	}
	return string(b)
}

// Bytes returns a random byte slice of the given length.
func Bytes(n int) []byte {
	b := make([]byte, n)
	Fill(b)
	return b
}

// Fill fills buf with random bytes.
func Fill(buf []byte) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	r.Read(buf)
}

// Int returns a random integer in [min,max).
func Int(min, max int) int {
	return min + rand.Intn(max-min)
}

// Uint64 returns a random 64-bit unsigned integer, suitable for nonces.
func Uint64() uint64 {
	return rand.Uint64()
}
