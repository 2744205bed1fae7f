package cryptoutils

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// PrivateKeyPEM represents an EC private key in PEM format, as stored in
// admin key files and passed between components.
type PrivateKeyPEM []byte

// NewPrivateKeyPEM creates a new private key object from PEM-encoded data with validation.
func NewPrivateKeyPEM(data []byte) (PrivateKeyPEM, error) {
	// Validate PEM format
	block, _ := pem.Decode(data)
	if block == nil || (block.Type != "PRIVATE KEY" && block.Type != "EC PRIVATE KEY") {
		return PrivateKeyPEM{}, errors.New("invalid private key: not in PEM format or not a private key")
	}

	// Try to parse it as a PKCS8 private key
	_, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		// Try to parse it as an EC private key
		_, err = x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return PrivateKeyPEM{}, fmt.Errorf("invalid private key structure: %w", err)
		}
	}

	return PrivateKeyPEM(data), nil
}

// Validate checks if the private key is properly formed.
func (priv PrivateKeyPEM) Validate() error {
	_, err := NewPrivateKeyPEM(priv)
	return err
}

// ECDSAKey returns the parsed ECDSA private key.
func (priv PrivateKeyPEM) ECDSAKey() (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(priv)
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}

	// Try to parse it as a PKCS8 private key
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		ecKey, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("not an ECDSA private key: %T", key)
		}
		return ecKey, nil
	}

	// Try to parse it as an EC private key
	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.New("failed to parse private key")
	}
	return key, nil
}

// PublicKeyPEM represents an EC public key in PEM format (PKIX form).
type PublicKeyPEM []byte

// NewPublicKeyPEM creates a new public key object from PEM-encoded data with validation.
func NewPublicKeyPEM(data []byte) (PublicKeyPEM, error) {
	// Validate PEM format
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "PUBLIC KEY" {
		return PublicKeyPEM{}, errors.New("invalid public key: not in PEM format or not a public key")
	}

	// Validate public key structure
	_, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return PublicKeyPEM{}, fmt.Errorf("invalid public key structure: %w", err)
	}

	return PublicKeyPEM(data), nil
}

// Validate checks if the public key is properly formed.
func (pub PublicKeyPEM) Validate() error {
	_, err := NewPublicKeyPEM(pub)
	return err
}

// ECDSAKey returns the parsed ECDSA public key.
func (pub PublicKeyPEM) ECDSAKey() (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(pub)
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	ecKey, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an ECDSA public key: %T", key)
	}
	return ecKey, nil
}

// MarshalPrivateKey encodes an ECDSA private key as an EC PRIVATE KEY PEM block.
func MarshalPrivateKey(key *ecdsa.PrivateKey) (PrivateKeyPEM, error) {
	keyBytes, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, err
	}

	return PrivateKeyPEM(pem.EncodeToMemory(&pem.Block{
		Type:  "EC PRIVATE KEY",
		Bytes: keyBytes,
	})), nil
}

// MarshalPublicKey encodes an ECDSA public key as a PKIX PUBLIC KEY PEM block.
func MarshalPublicKey(key *ecdsa.PublicKey) (PublicKeyPEM, error) {
	keyBytes, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, err
	}

	return PublicKeyPEM(pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: keyBytes,
	})), nil
}

// RandomP256Keypair generates a fresh P-256 key pair in PEM form, for
// admin identities and tests.
func RandomP256Keypair() (PublicKeyPEM, PrivateKeyPEM, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, err
	}

	privateKeyPEM, err := MarshalPrivateKey(privateKey)
	if err != nil {
		return nil, nil, err
	}

	publicKeyPEM, err := MarshalPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, nil, err
	}

	return publicKeyPEM, privateKeyPEM, nil
}
