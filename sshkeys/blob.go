package sshkeys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"

	"github.com/ruteri/ssh-key-provisioning-backend/sshbuf"
)

// marshalBlob serializes an EC public key in SSH wire format: algorithm
// name, short curve identifier and uncompressed point, each as a
// length-prefixed field.
func marshalBlob(curve Curve, pub *ecdsa.PublicKey) ([]byte, error) {
	if pub == nil || pub.X == nil || pub.Y == nil {
		return nil, fmt.Errorf("incomplete public key: %w", ErrEncoding)
	}
	params := curve.Params()
	if params == nil {
		return nil, fmt.Errorf("invalid curve tag: %w", ErrEncoding)
	}

	var b sshbuf.Writer
	b.WriteString(curve.AlgorithmName())
	b.WriteString(curve.Ident())
	b.WriteBytes(elliptic.Marshal(params, pub.X, pub.Y))
	return b.Bytes(), nil
}

// ParseBlob decodes an SSH wire blob back into a public key. The algorithm
// name must be consistent with the curve identifier, the point must decode
// onto the named curve, and no trailing bytes are allowed. An identifier
// outside the supported set fails with ErrUnsupportedCurve, structural
// problems with ErrInvalidFormat.
func ParseBlob(blob []byte) (*ECDSAPublicKey, error) {
	r := sshbuf.NewReader(blob)

	name, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("reading algorithm name: %w", ErrInvalidFormat)
	}
	ident, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("reading curve identifier: %w", ErrInvalidFormat)
	}
	curve, err := ParseCurve(ident)
	if err != nil {
		return nil, err
	}
	if name != curve.AlgorithmName() {
		return nil, fmt.Errorf("algorithm %q does not match curve %q: %w", name, ident, ErrInvalidFormat)
	}

	point, err := r.ReadBytes()
	if err != nil {
		return nil, fmt.Errorf("reading curve point: %w", ErrInvalidFormat)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after key blob: %w", r.Len(), ErrInvalidFormat)
	}

	return ParseECDSAPublicKey(curve, point)
}
