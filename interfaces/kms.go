package interfaces

import (
	"github.com/ruteri/ssh-key-provisioning-backend/sshkeys"
)

// KMS derives and serves SSH host keys. Derivation is deterministic for a
// given master seed, so every replica holding the seed serves identical
// host keys without coordination.
type KMS interface {
	// HostPublicKey returns the host public key for the given curve.
	HostPublicKey(host HostName, curve sshkeys.Curve) (sshkeys.PublicKey, error)

	// HostKeyPair returns the full host key pair for the given curve.
	// Callers own the returned pair and must not persist it.
	HostKeyPair(host HostName, curve sshkeys.Curve) (sshkeys.PrivateKey, error)

	// SignHostData signs data with the host key for the given curve and
	// returns an ASN.1 DER encoded ECDSA signature.
	SignHostData(host HostName, curve sshkeys.Curve, data []byte) ([]byte, error)
}
