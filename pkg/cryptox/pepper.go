package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
)

// Configuration for Argon2id hashing.
const (
	memory      = 19 * 1024 // Memory usage in KiB (19 MiB)
	iterations  = 2         // Iteration count
	parallelism = 1         // Number of threads
	keyLength   = 32        // Length of the generated hash
	saltLength  = 16        // Length of the salt
)

var (
	pepperMu sync.Mutex
	pepper   string
)

// SetPepper fixes the secret appended to every password before hashing.
// Hashes made under one pepper do not verify under another.
func SetPepper(p string) {
	pepperMu.Lock()
	defer pepperMu.Unlock()
	pepper = p
}

// GetPepper returns the configured pepper, generating a random one for the
// lifetime of the process when none was set.
func GetPepper() string {
	pepperMu.Lock()
	defer pepperMu.Unlock()

	if pepper == "" {
		buf := make([]byte, keyLength)
		_, _ = rand.Read(buf)
		pepper = base64.RawURLEncoding.EncodeToString(buf)
	}
	return pepper
}
