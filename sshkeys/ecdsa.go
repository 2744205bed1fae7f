package sshkeys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha1"
	"encoding/asn1"
	"encoding/base64"
	"fmt"
	"math/big"
)

// ECDSAPublicKey is an ECDSA public key on one of the supported NIST
// curves, paired with its curve tag. The value owns its provider key
// handle; the handle is copied in at construction and never exposed.
type ECDSAPublicKey struct {
	curve Curve
	pub   *ecdsa.PublicKey
}

// NewECDSAPublicKey validates and wraps a provider public key. The key's
// curve must be one of the supported three and its point must lie on that
// curve; anything else fails with ErrInvalidFormat.
func NewECDSAPublicKey(pub *ecdsa.PublicKey) (*ECDSAPublicKey, error) {
	if pub == nil || pub.X == nil || pub.Y == nil {
		return nil, fmt.Errorf("incomplete public key: %w", ErrInvalidFormat)
	}
	curve, err := CurveFromParams(pub.Curve)
	if err != nil {
		return nil, err
	}
	if !pub.Curve.IsOnCurve(pub.X, pub.Y) {
		return nil, fmt.Errorf("point is not on %s: %w", curve.Ident(), ErrInvalidFormat)
	}
	return &ECDSAPublicKey{
		curve: curve,
		pub: &ecdsa.PublicKey{
			Curve: pub.Curve,
			X:     new(big.Int).Set(pub.X),
			Y:     new(big.Int).Set(pub.Y),
		},
	}, nil
}

// ParseECDSAPublicKey constructs a public key from a curve tag and an
// uncompressed point encoding (0x04 || X || Y, fixed-width big-endian
// coordinates). Points that do not decode onto the curve fail with
// ErrInvalidFormat.
func ParseECDSAPublicKey(curve Curve, point []byte) (*ECDSAPublicKey, error) {
	params := curve.Params()
	if params == nil {
		return nil, fmt.Errorf("invalid curve tag: %w", ErrInvalidFormat)
	}
	x, y := elliptic.Unmarshal(params, point)
	if x == nil {
		return nil, fmt.Errorf("malformed %s point encoding: %w", curve.Ident(), ErrInvalidFormat)
	}
	return &ECDSAPublicKey{
		curve: curve,
		pub:   &ecdsa.PublicKey{Curve: params, X: x, Y: y},
	}, nil
}

// Curve returns the curve tag.
func (k *ECDSAPublicKey) Curve() Curve { return k.curve }

// Size returns the nominal key size in bits.
func (k *ECDSAPublicKey) Size() int { return k.curve.Size() }

// Keytype returns the SSH algorithm name for this key.
func (k *ECDSAPublicKey) Keytype() string { return k.curve.AlgorithmName() }

// Blob returns the SSH wire encoding of the key.
func (k *ECDSAPublicKey) Blob() ([]byte, error) {
	return marshalBlob(k.curve, k.pub)
}

// Verify checks sig, an ASN.1 DER ECDSA signature over the SHA-1 digest of
// data. A well-formed signature that does not match returns (false, nil).
// A sig that cannot be parsed as a DER ECDSA signature at all returns an
// error wrapping ErrCryptoFailure.
//
// The digest is SHA-1 regardless of curve size, to match the signatures
// produced by Sign.
func (k *ECDSAPublicKey) Verify(data, sig []byte) (bool, error) {
	r, s, err := parseSignature(sig)
	if err != nil {
		return false, err
	}
	digest := sha1.Sum(data)
	return ecdsa.Verify(k.pub, digest[:], r, s), nil
}

// Equal reports whether other is an ECDSA key for the same group element
// on the same curve. Keys on different curves are never equal, even when
// their coordinates coincide.
func (k *ECDSAPublicKey) Equal(other PublicKey) bool {
	o, ok := other.(*ECDSAPublicKey)
	if !ok {
		return false
	}
	return k.curve == o.curve && k.pub.Equal(o.pub)
}

// String renders the key in public-key line format:
// "<algorithm> <base64 blob>", standard base64 with padding, no wrapping.
// The result is valid input for SSH tooling.
func (k *ECDSAPublicKey) String() string {
	blob, err := k.Blob()
	if err != nil {
		return k.Keytype() + " <invalid>"
	}
	return k.Keytype() + " " + base64.StdEncoding.EncodeToString(blob)
}

// ECDSAKeyPair is an ECDSA private key on one of the supported NIST
// curves, paired with its curve tag. Read-side operations go through the
// derived public key; only Sign touches the private scalar.
type ECDSAKeyPair struct {
	curve Curve
	priv  *ecdsa.PrivateKey
}

// NewECDSAKeyPair validates and wraps a provider private key, with the
// same curve and point checks as NewECDSAPublicKey.
func NewECDSAKeyPair(priv *ecdsa.PrivateKey) (*ECDSAKeyPair, error) {
	if priv == nil || priv.D == nil {
		return nil, fmt.Errorf("incomplete private key: %w", ErrInvalidFormat)
	}
	pub, err := NewECDSAPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	return &ECDSAKeyPair{
		curve: pub.curve,
		priv: &ecdsa.PrivateKey{
			PublicKey: *pub.pub,
			D:         new(big.Int).Set(priv.D),
		},
	}, nil
}

// GenerateKeyPair creates a fresh random key pair on the given curve.
func GenerateKeyPair(curve Curve) (*ECDSAKeyPair, error) {
	params := curve.Params()
	if params == nil {
		return nil, fmt.Errorf("invalid curve tag: %w", ErrInvalidFormat)
	}
	priv, err := ecdsa.GenerateKey(params, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating %s key: %w", curve.Ident(), ErrCryptoFailure)
	}
	return &ECDSAKeyPair{curve: curve, priv: priv}, nil
}

// Curve returns the curve tag.
func (k *ECDSAKeyPair) Curve() Curve { return k.curve }

// Size returns the nominal key size in bits.
func (k *ECDSAKeyPair) Size() int { return k.curve.Size() }

// Keytype returns the SSH algorithm name for this key.
func (k *ECDSAKeyPair) Keytype() string { return k.curve.AlgorithmName() }

// PublicKey returns a standalone copy of the public half. The returned
// key shares no mutable state with the pair.
func (k *ECDSAKeyPair) PublicKey() (PublicKey, error) {
	return NewECDSAPublicKey(&k.priv.PublicKey)
}

// Blob returns the SSH wire encoding of the public half.
func (k *ECDSAKeyPair) Blob() ([]byte, error) {
	return marshalBlob(k.curve, &k.priv.PublicKey)
}

// Verify checks a signature against the public half, with the same
// contract as ECDSAPublicKey.Verify. The private scalar is not consulted.
func (k *ECDSAKeyPair) Verify(data, sig []byte) (bool, error) {
	pub, err := k.PublicKey()
	if err != nil {
		return false, err
	}
	return pub.Verify(data, sig)
}

// Sign produces an ASN.1 DER (r, s) ECDSA signature over the SHA-1 digest
// of data. The digest is SHA-1 for every curve size; peers that insist on
// the RFC 5656 digest-per-curve pairing will reject these signatures.
func (k *ECDSAKeyPair) Sign(data []byte) ([]byte, error) {
	digest := sha1.Sum(data)
	sig, err := ecdsa.SignASN1(rand.Reader, k.priv, digest[:])
	if err != nil {
		return nil, fmt.Errorf("signing with %s key: %w", k.curve.Ident(), ErrCryptoFailure)
	}
	return sig, nil
}

// String renders the public half in public-key line format.
func (k *ECDSAKeyPair) String() string {
	blob, err := k.Blob()
	if err != nil {
		return k.Keytype() + " <invalid>"
	}
	return k.Keytype() + " " + base64.StdEncoding.EncodeToString(blob)
}

// derSignature is the ASN.1 structure of an ECDSA signature.
type derSignature struct {
	R, S *big.Int
}

// parseSignature splits a DER-encoded ECDSA signature into its integers.
// Any structural problem, including trailing bytes, wraps ErrCryptoFailure.
func parseSignature(sig []byte) (r, s *big.Int, err error) {
	var parsed derSignature
	rest, err := asn1.Unmarshal(sig, &parsed)
	if err != nil {
		return nil, nil, fmt.Errorf("malformed signature: %w", ErrCryptoFailure)
	}
	if len(rest) != 0 {
		return nil, nil, fmt.Errorf("trailing bytes after signature: %w", ErrCryptoFailure)
	}
	return parsed.R, parsed.S, nil
}
