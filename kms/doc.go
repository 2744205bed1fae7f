// Package kms provides key management for SSH host keys.
//
// The KMS derives host key pairs for managed hosts, signs data on their
// behalf, and controls access to the master seed the derivation is rooted
// in. It implements the interfaces.KMS interface:
//
//	// KMS derives and serves SSH host keys.
//	type KMS interface {
//	    // HostPublicKey returns the host public key for the given curve.
//	    HostPublicKey(host HostName, curve sshkeys.Curve) (sshkeys.PublicKey, error)
//
//	    // HostKeyPair returns the full host key pair for the given curve.
//	    HostKeyPair(host HostName, curve sshkeys.Curve) (sshkeys.PrivateKey, error)
//
//	    // SignHostData signs data with the host key for the given curve.
//	    SignHostData(host HostName, curve sshkeys.Curve, data []byte) ([]byte, error)
//	}
//
// The package includes these implementations:
//
// # SeedKMS
//
// A basic implementation that derives host keys deterministically from a
// master seed. One HKDF-SHA256 stream per (host, curve) pair produces the
// private scalar, so the same seed always yields the same host keys and
// replicas need no shared storage. Suitable for development, and as the
// derivation core behind ShamirKMS.
//
// # ShamirKMS
//
// An enhanced implementation using Shamir's Secret Sharing for secure
// master seed management. The seed is split into shares, distributed to
// administrators, and never stored in persistent storage. It requires a
// threshold number of authorized administrators to submit their shares to
// reconstruct the seed.
//
// ## Master Seed Protection
//
// The ShamirKMS protects the master seed through several mechanisms:
//
//   - Split into N shares, requiring M (threshold) shares to reconstruct
//   - Original master seed securely erased after splitting
//   - Each share distributed to a different administrator
//   - Shares cryptographically signed by administrators' private keys
//   - Reconstructed seed exists only in memory, never written to persistent storage
//
// This ensures that no single administrator can compromise the master seed
// and recovery requires cooperation of multiple authorized administrators.
//
// # Key Derivation
//
// Host keys are derived deterministically using:
//   - Master seed (provided at initialization or reconstructed from shares)
//   - Host name (identifies the managed host)
//   - SSH algorithm name (separates the three supported curves)
//
// # Usage Example: SeedKMS
//
//	// Create a SeedKMS with a secure master seed
//	masterSeed := make([]byte, 32)
//	rand.Read(masterSeed)
//	seedKMS, err := kms.NewSeedKMS(masterSeed)
//	if err != nil {
//	    log.Fatalf("Failed to create KMS: %v", err)
//	}
//
//	// Get the P-256 host key for a managed host
//	host, _ := interfaces.NewHostName("node-1.example.com")
//	hostKey, err := seedKMS.HostPublicKey(host, sshkeys.CurveNISTP256)
//	if err != nil {
//	    log.Fatalf("Failed to derive host key: %v", err)
//	}
//	fmt.Println(hostKey)
package kms
