package sshkeys

import (
	"crypto/elliptic"
	"fmt"
)

// Curve identifies one of the supported NIST prime curves. The zero value
// is invalid; valid values come from the constants below, ParseCurve, or
// CurveFromParams.
type Curve int

const (
	// CurveNISTP256 is NIST P-256 (secp256r1).
	CurveNISTP256 Curve = iota + 1

	// CurveNISTP384 is NIST P-384 (secp384r1).
	CurveNISTP384

	// CurveNISTP521 is NIST P-521 (secp521r1).
	CurveNISTP521
)

// Size returns the nominal curve size in bits: 256, 384 or 521. Note that
// P-521 is 521, not 512.
func (c Curve) Size() int {
	switch c {
	case CurveNISTP256:
		return 256
	case CurveNISTP384:
		return 384
	case CurveNISTP521:
		return 521
	}
	return 0
}

// AlgorithmName returns the SSH algorithm name carried as the first field
// of the key blob, e.g. "ecdsa-sha2-nistp256".
func (c Curve) AlgorithmName() string {
	switch c {
	case CurveNISTP256:
		return "ecdsa-sha2-nistp256"
	case CurveNISTP384:
		return "ecdsa-sha2-nistp384"
	case CurveNISTP521:
		return "ecdsa-sha2-nistp521"
	}
	return ""
}

// Ident returns the short curve identifier carried as the second field of
// the key blob, e.g. "nistp256".
func (c Curve) Ident() string {
	switch c {
	case CurveNISTP256:
		return "nistp256"
	case CurveNISTP384:
		return "nistp384"
	case CurveNISTP521:
		return "nistp521"
	}
	return ""
}

// Params returns the provider curve implementing the group operations, or
// nil for an invalid Curve.
func (c Curve) Params() elliptic.Curve {
	switch c {
	case CurveNISTP256:
		return elliptic.P256()
	case CurveNISTP384:
		return elliptic.P384()
	case CurveNISTP521:
		return elliptic.P521()
	}
	return nil
}

// String returns the short curve identifier, or "unknown" for an invalid
// Curve.
func (c Curve) String() string {
	if ident := c.Ident(); ident != "" {
		return ident
	}
	return "unknown"
}

// ParseCurve maps a short curve identifier to its Curve. Only the exact
// identifiers "nistp256", "nistp384" and "nistp521" are accepted; any
// other input, including algorithm names, aliases and case variants, fails
// with ErrUnsupportedCurve.
func ParseCurve(s string) (Curve, error) {
	switch s {
	case "nistp256":
		return CurveNISTP256, nil
	case "nistp384":
		return CurveNISTP384, nil
	case "nistp521":
		return CurveNISTP521, nil
	}
	return 0, fmt.Errorf("curve ident %q: %w", s, ErrUnsupportedCurve)
}

// CurveFromParams maps a provider curve handle back to its Curve. A nil
// handle or one naming a curve outside the supported set fails with
// ErrInvalidFormat.
func CurveFromParams(params elliptic.Curve) (Curve, error) {
	switch params {
	case elliptic.P256():
		return CurveNISTP256, nil
	case elliptic.P384():
		return CurveNISTP384, nil
	case elliptic.P521():
		return CurveNISTP521, nil
	}
	return 0, fmt.Errorf("unrecognized curve parameters: %w", ErrInvalidFormat)
}
