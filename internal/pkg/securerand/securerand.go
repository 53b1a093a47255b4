// Package securerand generates unguessable identifiers for the session
// layer. It degrades to math/rand when the strong source is unavailable;
// tokens are advisory, not a hard security boundary.
package securerand

import (
	"crypto/rand"
	mathrand "math/rand"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Token returns a random string of length n drawn from a 62-char alphabet.
func Token(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		for i := range buf {
			buf[i] = byte(mathrand.Intn(256))
		}
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out)
}
