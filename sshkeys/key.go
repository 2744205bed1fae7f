package sshkeys

// PublicKey is the read-only capability over an SSH key: inspect, encode
// and verify. Code that does not sign should accept this interface.
type PublicKey interface {
	// Size returns the nominal key size in bits.
	Size() int

	// Keytype returns the SSH algorithm name for the key.
	Keytype() string

	// Blob returns the SSH wire encoding of the key.
	Blob() ([]byte, error)

	// Verify checks an ASN.1 DER ECDSA signature over the SHA-1 digest of
	// data. A well-formed signature that does not match returns
	// (false, nil); a signature the provider cannot parse returns an error.
	Verify(data, sig []byte) (bool, error)

	// Equal reports whether other represents the same group element on the
	// same curve.
	Equal(other PublicKey) bool
}

// PrivateKey is the signing capability. The private material never leaves
// the implementation; holders can derive the public half.
type PrivateKey interface {
	// Size returns the nominal key size in bits.
	Size() int

	// Keytype returns the SSH algorithm name for the key.
	Keytype() string

	// PublicKey returns a standalone public key sharing no mutable state
	// with the pair.
	PublicKey() (PublicKey, error)

	// Sign produces an ASN.1 DER (r, s) ECDSA signature over the SHA-1
	// digest of data.
	Sign(data []byte) ([]byte, error)
}

var (
	_ PublicKey  = (*ECDSAPublicKey)(nil)
	_ PrivateKey = (*ECDSAKeyPair)(nil)
)
