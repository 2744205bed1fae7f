package kms

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/ssh-key-provisioning-backend/cryptoutils"
	"github.com/ruteri/ssh-key-provisioning-backend/interfaces"
	"github.com/ruteri/ssh-key-provisioning-backend/sshkeys"
)

// testAdmins generates admin key pairs and the matching ShamirConfig.
func testAdmins(t *testing.T, count, threshold int) ([]*ecdsa.PrivateKey, ShamirConfig) {
	t.Helper()

	adminKeys := make([]*ecdsa.PrivateKey, count)
	adminPubKeyPEMs := make([][]byte, count)

	for i := 0; i < count; i++ {
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err, "Failed to generate admin key")
		adminKeys[i] = key

		pubPEM, err := cryptoutils.MarshalPublicKey(&key.PublicKey)
		require.NoError(t, err, "Failed to marshal public key")
		adminPubKeyPEMs[i] = pubPEM
	}

	return adminKeys, ShamirConfig{Threshold: threshold, AdminPubKeys: adminPubKeyPEMs}
}

func TestShamirKMS_NewShamirKMS(t *testing.T) {
	masterSeed := make([]byte, 32)
	_, err := rand.Read(masterSeed)
	require.NoError(t, err, "Failed to generate test master seed")

	_, config := testAdmins(t, 5, 3)

	kms, shares, err := NewShamirKMS(masterSeed, config)
	require.NoError(t, err, "NewShamirKMS should succeed with valid parameters")
	assert.NotNil(t, kms, "KMS should not be nil")
	assert.Equal(t, 5, len(shares), "Should generate one share per admin")
	assert.True(t, kms.IsUnlocked(), "KMS should start in unlocked state when initiated with master seed")

	// Threshold larger than the admin set
	_, smallConfig := testAdmins(t, 2, 3)
	_, _, err = NewShamirKMS(masterSeed, smallConfig)
	assert.Error(t, err, "Should fail when threshold > total shares")

	// Threshold below 2
	_, lowConfig := testAdmins(t, 5, 1)
	_, _, err = NewShamirKMS(masterSeed, lowConfig)
	assert.Error(t, err, "Should fail when threshold < 2")

	// Too short master seed
	_, _, err = NewShamirKMS(make([]byte, 16), config)
	assert.Error(t, err, "Should fail with master seed < 32 bytes")

	// Malformed admin key
	badConfig := ShamirConfig{Threshold: 2, AdminPubKeys: [][]byte{[]byte("not-a-valid-pem"), []byte("also-bad")}}
	_, _, err = NewShamirKMS(masterSeed, badConfig)
	assert.Error(t, err, "Should fail with invalid admin public keys")
}

func TestShamirKMS_Recovery(t *testing.T) {
	masterSeed := make([]byte, 32)
	_, err := rand.Read(masterSeed)
	require.NoError(t, err, "Failed to generate test master seed")

	adminKeys, config := testAdmins(t, 5, 3)

	// Generation side splits the seed
	_, shares, err := NewShamirKMS(masterSeed, config)
	require.NoError(t, err, "Failed to create KMS")
	require.Equal(t, 5, len(shares))

	// Recovery side starts locked
	recoveryKms, err := NewShamirKMSRecovery(config)
	require.NoError(t, err)
	assert.False(t, recoveryKms.IsUnlocked(), "KMS should start in locked state")

	host, err := interfaces.NewHostName("node-1.example.com")
	require.NoError(t, err)

	// Operations fail while locked
	_, err = recoveryKms.HostPublicKey(host, sshkeys.CurveNISTP256)
	assert.ErrorIs(t, err, ErrLocked)
	_, err = recoveryKms.HostKeyPair(host, sshkeys.CurveNISTP256)
	assert.ErrorIs(t, err, ErrLocked)
	_, err = recoveryKms.SignHostData(host, sshkeys.CurveNISTP256, []byte("data"))
	assert.ErrorIs(t, err, ErrLocked)

	// Submit threshold-1 shares, still locked
	for i := 0; i < 2; i++ {
		signature, err := SignShare(shares[i], adminKeys[i])
		require.NoError(t, err, "Failed to sign share")

		err = recoveryKms.SubmitShare(i, shares[i], signature, config.AdminPubKeys[i])
		require.NoError(t, err, "Share submission should succeed")
	}
	assert.False(t, recoveryKms.IsUnlocked(), "KMS should stay locked below threshold")

	// Third share unlocks
	signature, err := SignShare(shares[2], adminKeys[2])
	require.NoError(t, err)
	err = recoveryKms.SubmitShare(2, shares[2], signature, config.AdminPubKeys[2])
	require.NoError(t, err)

	assert.True(t, recoveryKms.IsUnlocked(), "KMS should be unlocked after threshold shares")

	// Recovered KMS serves the same keys as a SeedKMS with the original seed
	direct, err := NewSeedKMS(masterSeed)
	require.NoError(t, err)

	expected, err := direct.HostPublicKey(host, sshkeys.CurveNISTP256)
	require.NoError(t, err)

	recovered, err := recoveryKms.HostPublicKey(host, sshkeys.CurveNISTP256)
	require.NoError(t, err)

	assert.True(t, expected.Equal(recovered), "recovered seed must derive identical host keys")
}

func TestShamirKMS_ShareSubmissionRejects(t *testing.T) {
	masterSeed := make([]byte, 32)
	_, err := rand.Read(masterSeed)
	require.NoError(t, err)

	adminKeys, config := testAdmins(t, 5, 3)

	_, shares, err := NewShamirKMS(masterSeed, config)
	require.NoError(t, err)

	recoveryKms, err := NewShamirKMSRecovery(config)
	require.NoError(t, err)

	// Invalid signature
	err = recoveryKms.SubmitShare(0, shares[0], []byte("invalid-signature"), config.AdminPubKeys[0])
	assert.Error(t, err, "Should fail with invalid signature")

	// Signature by the wrong admin
	wrongSig, err := SignShare(shares[0], adminKeys[1])
	require.NoError(t, err)
	err = recoveryKms.SubmitShare(0, shares[0], wrongSig, config.AdminPubKeys[0])
	assert.Error(t, err, "Should fail when the signature does not match the presented key")

	// Unregistered admin
	unregisteredKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	unregPubKeyPEM, err := cryptoutils.MarshalPublicKey(&unregisteredKey.PublicKey)
	require.NoError(t, err)

	sig, err := SignShare(shares[0], unregisteredKey)
	require.NoError(t, err)
	err = recoveryKms.SubmitShare(0, shares[0], sig, unregPubKeyPEM)
	assert.Error(t, err, "Should fail with unregistered admin")

	// Valid submissions on an already-unlocked KMS are rejected
	for i := 0; i < 3; i++ {
		signature, err := SignShare(shares[i], adminKeys[i])
		require.NoError(t, err)
		require.NoError(t, recoveryKms.SubmitShare(i, shares[i], signature, config.AdminPubKeys[i]))
	}
	require.True(t, recoveryKms.IsUnlocked())

	signature, err := SignShare(shares[3], adminKeys[3])
	require.NoError(t, err)
	err = recoveryKms.SubmitShare(3, shares[3], signature, config.AdminPubKeys[3])
	assert.Error(t, err, "Unlocked KMS should not accept more shares")
}

func TestSignShare(t *testing.T) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err, "Failed to generate key")

	share := []byte("test-share-data")

	signature, err := SignShare(share, privateKey)
	assert.NoError(t, err, "Should sign share successfully")
	assert.NotEmpty(t, signature, "Signature should not be empty")

	// Verify the signature covers the share digest
	hash := sha256.Sum256(share)
	valid := ecdsa.VerifyASN1(&privateKey.PublicKey, hash[:], signature)
	assert.True(t, valid, "Signature should be valid")
}
