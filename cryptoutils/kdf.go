package cryptoutils

import (
	"golang.org/x/crypto/argon2"
)

// SeedFromPassphrase derives a 32-byte master seed from a passphrase using
// Argon2id. The same passphrase and salt always produce the same seed,
// which keeps development deployments reproducible without storing the
// seed anywhere.
//
// Parameters: time=1, memory=64*1024, threads=4, keyLen=32
func SeedFromPassphrase(passphrase []byte, salt []byte) []byte {
	fullSalt := append([]byte("ssh-host-seed-"), salt...)
	return argon2.IDKey(passphrase, fullSalt, 1, 64*1024, 4, 32)
}
