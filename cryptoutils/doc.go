// Package cryptoutils provides cryptographic operations shared by the KMS,
// the admin API, and the command line tools.
//
// This package implements asymmetric encryption for protecting Shamir
// shares in transit, PEM key file handling for administrator identities,
// and passphrase-based seed derivation for development deployments.
//
// The encryption scheme is ECIES (Elliptic Curve Integrated Encryption
// Scheme) with the following components:
//
//   - Ephemeral ECDH key agreement on the recipient's curve
//   - HKDF-SHA256 for key derivation
//   - AES-256-GCM for symmetric encryption with authentication
//   - Unique ephemeral keys for each encryption operation
//
// # Key Functions
//
// # EncryptWithPublicKey - Encrypts data using a public key in PEM format
//
// # DecryptWithPrivateKey - Decrypts data using a private key in PEM format
//
// # SeedFromPassphrase - Derives a reproducible master seed with Argon2id
//
// # Encryption Format
//
// The encrypted data follows this binary format:
//
//	[ephemeral key length (2 bytes)][ephemeral key][nonce (12 bytes)][ciphertext]
//
// Where:
//   - Ephemeral key length: uint16 in big-endian format
//   - Ephemeral key: elliptic curve point in uncompressed form
//   - Nonce: 12-byte nonce for AES-GCM
//   - Ciphertext: The encrypted data with GCM authentication tag
//
// # Key Files
//
// PrivateKeyPEM and PublicKeyPEM wrap PEM-encoded EC keys with validation
// and typed access to the underlying ECDSA keys. Administrator identities
// are distributed as these files and referenced by the admin API for
// request signature verification and share encryption.
//
// # Usage Example
//
//	// Encrypt a share for an administrator
//	encryptedShare, err := cryptoutils.EncryptWithPublicKey(adminPubkey, share)
//	if err != nil {
//	    log.Fatalf("Failed to encrypt: %v", err)
//	}
//
//	// The administrator later decrypts it with their private key
//	share, err := cryptoutils.DecryptWithPrivateKey(adminPrivkey, encryptedShare)
//	if err != nil {
//	    log.Fatalf("Failed to decrypt: %v", err)
//	}
package cryptoutils
