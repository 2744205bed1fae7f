// Package storage provides a fingerprint-addressed key store with pluggable backends.
//
// The storage package offers a unified interface for storing and retrieving SSH
// public key blobs identified by their SHA-256 fingerprint across multiple backends:
//
//   - File system storage for local development and testing
//   - S3-compatible storage for cloud deployments
//   - IPFS storage for decentralized distribution
//   - GitHub storage for repository-managed key material
//   - Vault storage for token-authenticated deployments
//
// # Storage URI Format
//
// Key store backends are specified using URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - file:///var/lib/ssh-keys/
//   - s3://bucket-name/prefix/?region=us-west-2
//   - ipfs://ipfs.example.com:5001/ssh-keys/
//   - github://owner/repo?ref=main
//   - vault://vault.example.com:8200/secret/ssh-keys
//
// # Fingerprint Addressing
//
// Key blobs are stored and retrieved using fingerprint addressing, where the
// identifier is the SHA-256 hash of the SSH wire blob. The two key roles
// (host keys and authorized keys) are stored in separate namespaces:
//
//	host_keys/<fingerprint-hex>
//	authorized_keys/<fingerprint-hex>
//
// Because identifiers are content hashes, backends can verify fetched blobs by
// recomputing the fingerprint. The multi-store does this on every read and
// skips backends serving corrupted data.
//
// # GitHub Storage (Read-Only)
//
// The GitHubBackend fetches key blobs from a GitHub repository via the
// contents API. The repository holds one file per key, named by fingerprint
// under the per-role directories. Useful for key material managed through
// pull request review.
//
// URI format: github://owner/repo?ref=branch
//
// # Vault Storage
//
// The VaultBackend stores key blobs in HashiCorp Vault using the KV v2 secret
// engine with path format {mount}/data/{path}/{role}/{fingerprint}. The Vault
// token is taken from the URI userinfo or a token query parameter.
//
// URI format: vault://TOKEN@vault.example.com:8200/secret/ssh-keys
//
// # Multi-Backend Example
//
//	factory := storage.NewKeyStoreFactory(logger)
//
//	locations := make([]interfaces.StorageBackendLocation, 0)
//	for _, uri := range []string{
//	    "file:///var/lib/ssh-keys/",
//	    "s3://key-bucket/ssh/?region=us-west-2",
//	    "vault://vault.example.com:8200/secret/ssh-keys",
//	} {
//	    location, err := interfaces.NewStorageBackendLocation(uri)
//	    if err != nil {
//	        log.Fatalf("Invalid storage location: %v", err)
//	    }
//	    locations = append(locations, location)
//	}
//
//	multiStore, err := factory.CreateMultiStore(locations)
//	if err != nil {
//	    log.Fatalf("Failed to create key store: %v", err)
//	}
package storage
