// Package interfaces defines core interfaces and types for the SSH key
// provisioning system, separating interface definitions from implementations.
//
// # Key Management
//
// KMS: Derives SSH host key pairs deterministically from a master seed and
// signs data on behalf of hosts. Implementations differ in how the seed is
// obtained: direct configuration for development, Shamir secret sharing
// bootstrap for production.
//
// # Storage Interfaces
//
// KeyStore: Provides fingerprint-addressed storage for SSH public keys
// across multiple backend types (file, S3, IPFS, GitHub, Vault).
//
// KeyStoreFactory: Creates key stores from URI strings and manages
// multi-backend configurations for redundant storage.
//
// # Core Types
//
// The package also defines the types shared across components:
//
// - Fingerprint: 32-byte SHA-256 digest of an SSH public key wire blob
// - HostName: validated DNS name of a managed host
// - KeyRole: storage namespace separating host keys from authorized keys
// - StorageBackendLocation: parsed storage backend URI
// - PrivateKeyPEM/PublicKeyPEM: PEM-encoded EC keys for admin authentication
package interfaces
