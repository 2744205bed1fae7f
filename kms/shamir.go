package kms

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/vault/shamir"
	"github.com/ruteri/ssh-key-provisioning-backend/cryptoutils"
	"github.com/ruteri/ssh-key-provisioning-backend/interfaces"
	"github.com/ruteri/ssh-key-provisioning-backend/sshkeys"
)

// ErrLocked is returned by key operations before enough shares have been
// submitted to reconstruct the master seed.
var ErrLocked = errors.New("KMS is locked - need more shares to unlock")

// ShamirKMS enhances SeedKMS with Shamir Secret Sharing for secure master
// seed management. The master seed is split into shares and distributed to
// administrators, requiring a threshold number of shares to reconstruct
// the seed and unlock the KMS.
//
// The master seed is never stored in persistent storage. During
// initialization, the seed is split into shares, distributed to
// administrators, and then erased. When the KMS needs to be started, the
// shares are collected and combined to reconstruct the master seed, which
// is then kept only in memory.
type ShamirKMS struct {
	mu             sync.RWMutex
	masterSeed     []byte         // The reconstructed master seed, stored only in memory
	isUnlocked     bool           // Whether the KMS has been unlocked with sufficient shares
	threshold      int            // Minimum number of shares required to reconstruct the master seed
	receivedShares map[int][]byte // Temporary storage for shares during reconstruction

	// Map of allowed admin public key fingerprints
	adminPubKeys map[string][]byte
}

var _ interfaces.KMS = (*ShamirKMS)(nil)

// ShamirConfig contains configuration parameters for creating a ShamirKMS instance.
type ShamirConfig struct {
	// Threshold is the minimum number of shares required to reconstruct the master seed
	Threshold int
	// AdminPubKeys is the list of authorized administrator public keys in PEM format
	AdminPubKeys [][]byte
}

// SeedKMS returns the derivation core backed by the reconstructed seed.
func (k *ShamirKMS) SeedKMS() *SeedKMS {
	return &SeedKMS{masterSeed: k.masterSeed}
}

// NewShamirKMS creates a new ShamirKMS instance for initial setup. This
// function splits the master seed into one share per administrator using
// Shamir's Secret Sharing. The shares must be securely distributed and the
// original master seed should be securely erased after this function
// returns.
func NewShamirKMS(masterSeed []byte, config ShamirConfig) (*ShamirKMS, [][]byte, error) {
	if len(masterSeed) < 32 {
		return nil, nil, errors.New("master seed must be at least 32 bytes")
	}

	if config.Threshold < 2 {
		return nil, nil, errors.New("threshold must be at least 2")
	}

	if len(config.AdminPubKeys) < config.Threshold {
		return nil, nil, errors.New("total shares must be at least equal to threshold")
	}

	// Split master seed into shares
	shares, err := shamir.Split(masterSeed, len(config.AdminPubKeys), config.Threshold)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to split master seed: %w", err)
	}

	kms := &ShamirKMS{
		masterSeed:     masterSeed,
		isUnlocked:     true,
		threshold:      config.Threshold,
		receivedShares: make(map[int][]byte),
		adminPubKeys:   make(map[string][]byte),
	}

	if err := kms.registerAdmins(config.AdminPubKeys); err != nil {
		return nil, nil, err
	}

	return kms, shares, nil
}

// NewShamirKMSRecovery creates a new ShamirKMS instance in recovery mode.
// This function should be used when starting the KMS without a master
// seed. The KMS will remain in a locked state until enough valid shares
// are submitted to reconstruct the master seed.
func NewShamirKMSRecovery(config ShamirConfig) (*ShamirKMS, error) {
	kms := &ShamirKMS{
		masterSeed:     nil,
		isUnlocked:     false,
		threshold:      config.Threshold,
		receivedShares: make(map[int][]byte),
		adminPubKeys:   make(map[string][]byte),
	}

	if err := kms.registerAdmins(config.AdminPubKeys); err != nil {
		return nil, err
	}

	return kms, nil
}

func (k *ShamirKMS) registerAdmins(adminPubKeys [][]byte) error {
	for _, publicKeyPEM := range adminPubKeys {
		if err := cryptoutils.PublicKeyPEM(publicKeyPEM).Validate(); err != nil {
			return fmt.Errorf("invalid admin pubkey %s: %w", publicKeyPEM, err)
		}
		fingerprint := sha256.Sum256(publicKeyPEM)
		k.adminPubKeys[hex.EncodeToString(fingerprint[:])] = publicKeyPEM
	}
	return nil
}

// SubmitShare submits a key share with cryptographic verification. Each
// share must be signed by the administrator's private key to prove its
// authenticity: ECDSA signatures cover the SHA-256 digest of the share,
// Ed25519 signatures cover the share itself. When the threshold number of
// valid shares are received, the master seed is automatically
// reconstructed and the KMS transitions to an unlocked state.
//
// Parameters:
//   - shareIndex: The index number of the share (0-based)
//   - share: The actual share data
//   - signature: The signature over the share, signed by the admin's private key
//   - adminPubKeyPEM: The administrator's public key in PEM format
//
// Returns:
//   - Error if the share is invalid, the signature verification fails, or the admin is not authorized
func (k *ShamirKMS) SubmitShare(shareIndex int, share, signature, adminPubKeyPEM []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	// Check if the KMS is already unlocked
	if k.isUnlocked {
		return errors.New("KMS is already unlocked")
	}

	// Verify the admin's public key is registered
	fingerprint := sha256.Sum256(adminPubKeyPEM)
	fingerprintHex := hex.EncodeToString(fingerprint[:])
	pubkeyForFingerprint, found := k.adminPubKeys[fingerprintHex]
	if !found {
		return errors.New("unregistered admin public key")
	}

	if !bytes.Equal(pubkeyForFingerprint, adminPubKeyPEM) {
		return errors.New("invalid pubkey passed for a matching fingerprint")
	}

	// Parse the admin's public key
	block, _ := pem.Decode(adminPubKeyPEM)
	if block == nil {
		return errors.New("failed to decode admin public key PEM")
	}

	pubKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return fmt.Errorf("failed to parse admin public key: %w", err)
	}

	switch adminKey := pubKey.(type) {
	case *ecdsa.PublicKey:
		digest := sha256.Sum256(share)
		if !ecdsa.VerifyASN1(adminKey, digest[:], signature) {
			return errors.New("invalid signature")
		}
	case ed25519.PublicKey:
		if !ed25519.Verify(adminKey, share, signature) {
			return errors.New("invalid signature")
		}
	default:
		return errors.New("admin public key is neither ECDSA nor ED25519 key")
	}

	// Store the share
	k.receivedShares[shareIndex] = share

	// Try to reconstruct the master seed if we have enough shares
	return k.tryReconstruct()
}

// tryReconstruct attempts to reconstruct the master seed from the received
// shares. If enough shares (meeting or exceeding the threshold) have been
// received, Shamir's algorithm is used to combine them and recover the
// original master seed. After successful reconstruction, all shares are
// securely wiped from memory.
func (k *ShamirKMS) tryReconstruct() error {
	if len(k.receivedShares) < k.threshold {
		return nil // Not enough shares yet, but this is not an error
	}

	// Collect shares for reconstruction
	shares := make([][]byte, 0, len(k.receivedShares))
	for _, share := range k.receivedShares {
		shares = append(shares, share)
	}

	// Reconstruct the master seed
	masterSeed, err := shamir.Combine(shares)
	if err != nil {
		return fmt.Errorf("failed to reconstruct master seed: %w", err)
	}

	// Set the master seed and unlock the KMS
	k.masterSeed = masterSeed
	k.isUnlocked = true

	// Clear shares from memory for security
	for i := range k.receivedShares {
		wipeBytes(k.receivedShares[i])
	}
	k.receivedShares = make(map[int][]byte) // Reset map

	return nil
}

// IsUnlocked returns whether the KMS has been successfully unlocked.
// The KMS is considered unlocked when enough valid shares have been
// submitted and the master seed has been successfully reconstructed.
func (k *ShamirKMS) IsUnlocked() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.isUnlocked
}

// HostPublicKey returns the host public key for the given curve.
// This method delegates to SeedKMS once the ShamirKMS is unlocked.
// Returns ErrLocked while the KMS is locked.
func (k *ShamirKMS) HostPublicKey(host interfaces.HostName, curve sshkeys.Curve) (sshkeys.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if !k.isUnlocked {
		return nil, ErrLocked
	}

	return k.SeedKMS().HostPublicKey(host, curve)
}

// HostKeyPair returns the full host key pair for the given curve.
// This method delegates to SeedKMS once the ShamirKMS is unlocked.
// Returns ErrLocked while the KMS is locked.
func (k *ShamirKMS) HostKeyPair(host interfaces.HostName, curve sshkeys.Curve) (sshkeys.PrivateKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if !k.isUnlocked {
		return nil, ErrLocked
	}

	return k.SeedKMS().HostKeyPair(host, curve)
}

// SignHostData signs data with the host key for the given curve.
// This method delegates to SeedKMS once the ShamirKMS is unlocked.
// Returns ErrLocked while the KMS is locked.
func (k *ShamirKMS) SignHostData(host interfaces.HostName, curve sshkeys.Curve, data []byte) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if !k.isUnlocked {
		return nil, ErrLocked
	}

	return k.SeedKMS().SignHostData(host, curve, data)
}

// Securely wipe data from memory
func wipeBytes(data []byte) {
	for i := range data {
		data[i] = 0
	}
}

// SignShare generates a cryptographic signature for a share using an
// administrator's private key. Administrators use this when submitting
// their share during recovery. The signature covers the SHA-256 digest of
// the share and proves that the share is being submitted by the
// legitimate holder.
//
// Parameters:
//   - share: The share data to sign
//   - privateKey: The administrator's ECDSA private key
//
// Returns:
//   - The ASN.1 encoded signature
//   - Error if the signing operation fails
func SignShare(share []byte, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	digest := sha256.Sum256(share)
	return ecdsa.SignASN1(rand.Reader, privateKey, digest[:])
}
