package interfaces

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ruteri/ssh-key-provisioning-backend/cryptoutils"
)

// PrivateKeyPEM is a PEM-encoded EC private key.
type PrivateKeyPEM = cryptoutils.PrivateKeyPEM

// PublicKeyPEM is a PEM-encoded EC public key in SPKI form.
type PublicKeyPEM = cryptoutils.PublicKeyPEM

// Fingerprint is the 32-byte SHA-256 digest of an SSH public key wire blob.
// It addresses keys in storage and identifies them in API requests.
type Fingerprint [32]byte

// ComputeFingerprint calculates the fingerprint of an SSH wire blob.
func ComputeFingerprint(blob []byte) Fingerprint {
	return Fingerprint(sha256.Sum256(blob))
}

// NewFingerprintFromBytes creates a fingerprint from a raw 32-byte digest.
func NewFingerprintFromBytes(source []byte) (Fingerprint, error) {
	if len(source) != 32 {
		return Fingerprint{}, errors.New("invalid fingerprint conversion from bytes: incorrect length")
	}

	var digest [32]byte
	copy(digest[:], source)
	return Fingerprint(digest), nil
}

// NewFingerprintFromHex parses a 64-character hex digest, the form used
// in storage paths and URL segments.
func NewFingerprintFromHex(source string) (Fingerprint, error) {
	clean := strings.TrimPrefix(source, "0x")
	if len(clean) != 64 {
		return Fingerprint{}, errors.New("invalid fingerprint length: hex string must be 64 characters")
	}

	digestBytes, err := hex.DecodeString(clean)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("invalid hex format: %w", err)
	}

	var digest [32]byte
	copy(digest[:], digestBytes)
	return Fingerprint(digest), nil
}

// ParseFingerprint parses the OpenSSH display form "SHA256:<base64>".
// The digest part may be padded or unpadded base64.
func ParseFingerprint(source string) (Fingerprint, error) {
	clean := strings.TrimPrefix(source, "SHA256:")
	clean = strings.TrimRight(clean, "=")

	digest, err := base64.RawStdEncoding.DecodeString(clean)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("invalid fingerprint encoding: %w", err)
	}

	return NewFingerprintFromBytes(digest)
}

// String returns the OpenSSH display form "SHA256:<base64>" with
// unpadded standard base64, matching ssh-keygen -lf output.
func (fp Fingerprint) String() string {
	return "SHA256:" + base64.RawStdEncoding.EncodeToString(fp[:])
}

// Hex returns the digest as lowercase hex.
func (fp Fingerprint) Hex() string {
	return hex.EncodeToString(fp[:])
}

// Bytes returns the raw 32-byte digest.
func (fp Fingerprint) Bytes() []byte {
	return fp[:]
}

// Equal compares two fingerprints.
func (fp Fingerprint) Equal(other Fingerprint) bool {
	return bytes.Equal(fp[:], other[:])
}

// KeyRole indicates the storage namespace for a key.
type KeyRole int

const (
	// HostKeyRole for SSH host public keys
	HostKeyRole KeyRole = iota
	// AuthorizedKeyRole for user public keys accepted for login
	AuthorizedKeyRole
)

// ParseKeyRole maps a namespace name back to its role.
func ParseKeyRole(s string) (KeyRole, error) {
	switch s {
	case "host_keys":
		return HostKeyRole, nil
	case "authorized_keys":
		return AuthorizedKeyRole, nil
	default:
		return 0, fmt.Errorf("unknown key role: %s", s)
	}
}

// String returns the namespace name.
func (r KeyRole) String() string {
	switch r {
	case HostKeyRole:
		return "host_keys"
	case AuthorizedKeyRole:
		return "authorized_keys"
	default:
		return "unknown"
	}
}

// HostName is a validated DNS name identifying a host whose SSH keys
// are provisioned by this service.
type HostName string

var hostNameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?)*$`)

// NewHostName creates a new host name with validation. Labels follow
// RFC 1035 length and character rules. A single trailing dot is
// accepted and stripped, and the result is lowercased.
func NewHostName(name string) (HostName, error) {
	trimmed := strings.TrimSuffix(name, ".")
	if trimmed == "" {
		return HostName(""), errors.New("empty host name")
	}
	if len(trimmed) > 253 {
		return HostName(""), fmt.Errorf("host name exceeds 253 characters: %s", name)
	}
	if !hostNameRegex.MatchString(trimmed) {
		return HostName(""), fmt.Errorf("invalid host name format: %s", name)
	}

	return HostName(strings.ToLower(trimmed)), nil
}

// String returns the host name as a string.
func (h HostName) String() string {
	return string(h)
}

// Validate checks if the host name has a valid format.
func (h HostName) Validate() error {
	_, err := NewHostName(string(h))
	return err
}
