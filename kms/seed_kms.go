package kms

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/hkdf"

	"github.com/ruteri/ssh-key-provisioning-backend/interfaces"
	"github.com/ruteri/ssh-key-provisioning-backend/sshkeys"
)

// SeedKMS provides a deterministic key management implementation. Host
// key pairs are derived from a master seed on demand and never touch
// persistent storage, so every replica holding the seed serves the same
// keys across restarts.
type SeedKMS struct {
	masterSeed []byte
}

var _ interfaces.KMS = (*SeedKMS)(nil)

// NewSeedKMS creates a new instance with the provided master seed.
// The master seed must be at least 32 bytes long.
func NewSeedKMS(masterSeed []byte) (*SeedKMS, error) {
	if len(masterSeed) < 32 {
		return nil, errors.New("master seed must be at least 32 bytes")
	}

	seed := make([]byte, len(masterSeed))
	copy(seed, masterSeed)
	return &SeedKMS{masterSeed: seed}, nil
}

// WithSeed creates a new SeedKMS with the provided seed.
// Useful for testing with deterministic keys.
func (k *SeedKMS) WithSeed(seed []byte) *SeedKMS {
	newkms := &SeedKMS{masterSeed: make([]byte, len(seed))}
	copy(newkms.masterSeed, seed)
	return newkms
}

// HostPublicKey returns the host public key for the given curve.
func (k *SeedKMS) HostPublicKey(host interfaces.HostName, curve sshkeys.Curve) (sshkeys.PublicKey, error) {
	pair, err := k.deriveHostKey(host, curve)
	if err != nil {
		return nil, err
	}
	return pair.PublicKey()
}

// HostKeyPair returns the full host key pair for the given curve.
func (k *SeedKMS) HostKeyPair(host interfaces.HostName, curve sshkeys.Curve) (sshkeys.PrivateKey, error) {
	return k.deriveHostKey(host, curve)
}

// SignHostData signs data with the host key for the given curve and
// returns an ASN.1 DER encoded ECDSA signature.
func (k *SeedKMS) SignHostData(host interfaces.HostName, curve sshkeys.Curve, data []byte) ([]byte, error) {
	pair, err := k.deriveHostKey(host, curve)
	if err != nil {
		return nil, err
	}
	return pair.Sign(data)
}

// deriveHostKey derives the key pair for one host and curve. The scalar
// comes from an HKDF-SHA256 stream keyed by the master seed and bound to
// the host name and SSH algorithm name.
func (k *SeedKMS) deriveHostKey(host interfaces.HostName, curve sshkeys.Curve) (*sshkeys.ECDSAKeyPair, error) {
	if err := host.Validate(); err != nil {
		return nil, fmt.Errorf("invalid host name: %w", err)
	}

	params := curve.Params()
	if params == nil {
		return nil, fmt.Errorf("unsupported curve: %s", curve)
	}

	info := fmt.Sprintf("ssh-host-key/%s/%s", host, curve.AlgorithmName())
	stream := hkdf.New(sha256.New, k.masterSeed, nil, []byte(info))

	// Extra random bits method, FIPS 186-4 B.4.1: draw 64 bits over the
	// order, reduce mod N-1, shift into [1, N-1].
	raw := make([]byte, (params.N.BitLen()+7)/8+8)
	if _, err := io.ReadFull(stream, raw); err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}

	scalar := new(big.Int).SetBytes(raw)
	scalar.Mod(scalar, new(big.Int).Sub(params.N, big.NewInt(1)))
	scalar.Add(scalar, big.NewInt(1))

	priv := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: params},
		D:         scalar,
	}
	priv.PublicKey.X, priv.PublicKey.Y = params.ScalarBaseMult(scalar.Bytes())

	return sshkeys.NewECDSAKeyPair(priv)
}
