package sshkeys

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// ParseAuthorizedKey parses one line in public-key ("authorized_keys")
// format: "<algorithm> <base64 blob> [comment]". It returns the key and
// the comment, if any. Non-ECDSA algorithms fail with ErrUnsupportedCurve
// so callers can tell foreign key types from broken ECDSA material.
func ParseAuthorizedKey(line string) (*ECDSAPublicKey, string, error) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) < 2 {
		return nil, "", fmt.Errorf("expected algorithm and key fields: %w", ErrInvalidFormat)
	}

	if _, err := ParseCurve(strings.TrimPrefix(fields[0], "ecdsa-sha2-")); err != nil {
		return nil, "", fmt.Errorf("algorithm %q: %w", fields[0], ErrUnsupportedCurve)
	}

	blob, err := base64.StdEncoding.DecodeString(fields[1])
	if err != nil {
		return nil, "", fmt.Errorf("key field is not valid base64: %w", ErrInvalidFormat)
	}

	key, err := ParseBlob(blob)
	if err != nil {
		return nil, "", err
	}
	if key.Keytype() != fields[0] {
		return nil, "", fmt.Errorf("algorithm field %q does not match key blob %q: %w", fields[0], key.Keytype(), ErrInvalidFormat)
	}

	comment := strings.Join(fields[2:], " ")
	return key, comment, nil
}
