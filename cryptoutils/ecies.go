package cryptoutils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// eciesInfo binds derived keys to this scheme so an ECDH secret cannot
// be replayed into another protocol.
var eciesInfo = []byte("ssh-key-provisioning ecies v1")

const gcmNonceSize = 12

// EncryptWithPublicKey encrypts data for the holder of the private key
// matching publicKeyPEM. It implements ECIES with ephemeral ECDH key
// agreement, HKDF-SHA256 key derivation, and AES-256-GCM authenticated
// encryption. A fresh ephemeral key is generated for each encryption
// operation, providing forward secrecy.
//
// Output format: [ephemeral key length (2 bytes)][ephemeral key][nonce][ciphertext]
func EncryptWithPublicKey(publicKeyPEM PublicKeyPEM, data []byte) ([]byte, error) {
	ecdsaPub, err := publicKeyPEM.ECDSAKey()
	if err != nil {
		return nil, err
	}

	recipient, err := ecdsaPub.ECDH()
	if err != nil {
		return nil, fmt.Errorf("public key not usable for ECDH: %w", err)
	}

	ephemeralKey, err := recipient.Curve().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ephemeral key: %w", err)
	}

	sharedSecret, err := ephemeralKey.ECDH(recipient)
	if err != nil {
		return nil, fmt.Errorf("key agreement failed: %w", err)
	}

	aead, err := deriveAEAD(sharedSecret)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := aead.Seal(nil, nonce, data, nil)

	// Uncompressed point for NIST curves.
	ephemeralBytes := ephemeralKey.PublicKey().Bytes()

	result := make([]byte, 2, 2+len(ephemeralBytes)+len(nonce)+len(ciphertext))
	binary.BigEndian.PutUint16(result[0:2], uint16(len(ephemeralBytes)))
	result = append(result, ephemeralBytes...)
	result = append(result, nonce...)
	result = append(result, ciphertext...)

	return result, nil
}

// DecryptWithPrivateKey decrypts data encrypted with EncryptWithPublicKey
// using the corresponding private key. It parses the binary format
// containing the ephemeral public key, nonce, and ciphertext, then
// performs ECDH key agreement to derive the decryption key.
func DecryptWithPrivateKey(privateKeyPEM PrivateKeyPEM, encryptedData []byte) ([]byte, error) {
	ecdsaPriv, err := privateKeyPEM.ECDSAKey()
	if err != nil {
		return nil, err
	}

	recipient, err := ecdsaPriv.ECDH()
	if err != nil {
		return nil, fmt.Errorf("private key not usable for ECDH: %w", err)
	}

	if len(encryptedData) < 2 {
		return nil, errors.New("encrypted data too short")
	}

	ephemeralLen := int(binary.BigEndian.Uint16(encryptedData[0:2]))
	if len(encryptedData) < 2+ephemeralLen+gcmNonceSize {
		return nil, errors.New("encrypted data has invalid format")
	}

	ephemeralKey, err := recipient.Curve().NewPublicKey(encryptedData[2 : 2+ephemeralLen])
	if err != nil {
		return nil, fmt.Errorf("invalid ephemeral public key: %w", err)
	}

	sharedSecret, err := recipient.ECDH(ephemeralKey)
	if err != nil {
		return nil, fmt.Errorf("key agreement failed: %w", err)
	}

	aead, err := deriveAEAD(sharedSecret)
	if err != nil {
		return nil, err
	}

	nonceStart := 2 + ephemeralLen
	nonce := encryptedData[nonceStart : nonceStart+gcmNonceSize]
	ciphertext := encryptedData[nonceStart+gcmNonceSize:]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}

func deriveAEAD(sharedSecret []byte) (cipher.AEAD, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, sharedSecret, nil, eciesInfo), key); err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}

	aesBlock, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return cipher.NewGCM(aesBlock)
}
