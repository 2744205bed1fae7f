package sshkeys

import (
	"crypto/elliptic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurve_Attributes(t *testing.T) {
	assert.Equal(t, 256, CurveNISTP256.Size())
	assert.Equal(t, 384, CurveNISTP384.Size())
	assert.Equal(t, 521, CurveNISTP521.Size(), "P-521 is 521 bits, not 512")

	assert.Equal(t, "ecdsa-sha2-nistp256", CurveNISTP256.AlgorithmName())
	assert.Equal(t, "ecdsa-sha2-nistp384", CurveNISTP384.AlgorithmName())
	assert.Equal(t, "ecdsa-sha2-nistp521", CurveNISTP521.AlgorithmName())

	assert.Equal(t, "nistp256", CurveNISTP256.Ident())
	assert.Equal(t, "nistp384", CurveNISTP384.Ident())
	assert.Equal(t, "nistp521", CurveNISTP521.Ident())

	assert.Equal(t, elliptic.P256(), CurveNISTP256.Params())
	assert.Equal(t, elliptic.P384(), CurveNISTP384.Params())
	assert.Equal(t, elliptic.P521(), CurveNISTP521.Params())

	assert.Equal(t, "nistp256", CurveNISTP256.String())
}

func TestCurve_ZeroValue(t *testing.T) {
	var zero Curve
	assert.Equal(t, 0, zero.Size())
	assert.Equal(t, "", zero.AlgorithmName())
	assert.Equal(t, "", zero.Ident())
	assert.Nil(t, zero.Params())
	assert.Equal(t, "unknown", zero.String())
}

func TestParseCurve(t *testing.T) {
	cases := []struct {
		in    string
		curve Curve
		ok    bool
	}{
		{"nistp256", CurveNISTP256, true},
		{"nistp384", CurveNISTP384, true},
		{"nistp521", CurveNISTP521, true},
		{"nistp512", 0, false},
		{"nistp224", 0, false},
		{"NISTP256", 0, false},
		{"ecdsa-sha2-nistp256", 0, false},
		{"secp256r1", 0, false},
		{" nistp256", 0, false},
		{"", 0, false},
	}

	for _, tc := range cases {
		curve, err := ParseCurve(tc.in)
		if tc.ok {
			require.NoError(t, err, "ident %q should parse", tc.in)
			assert.Equal(t, tc.curve, curve)
		} else {
			require.ErrorIs(t, err, ErrUnsupportedCurve, "ident %q should be rejected", tc.in)
		}
	}
}

func TestParseCurve_RoundTrip(t *testing.T) {
	for _, curve := range []Curve{CurveNISTP256, CurveNISTP384, CurveNISTP521} {
		parsed, err := ParseCurve(curve.Ident())
		require.NoError(t, err)
		assert.Equal(t, curve, parsed)
	}
}

func TestCurveFromParams(t *testing.T) {
	curve, err := CurveFromParams(elliptic.P384())
	require.NoError(t, err)
	assert.Equal(t, CurveNISTP384, curve)

	_, err = CurveFromParams(elliptic.P224())
	require.ErrorIs(t, err, ErrInvalidFormat, "curves outside the supported set are a format error, not an unsupported-curve error")

	_, err = CurveFromParams(nil)
	require.ErrorIs(t, err, ErrInvalidFormat)
}
