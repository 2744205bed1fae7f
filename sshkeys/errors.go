package sshkeys

import "errors"

// ErrUnsupportedCurve indicates a curve identifier outside the supported
// set (nistp256, nistp384, nistp521).
var ErrUnsupportedCurve = errors.New("unsupported ecdsa curve")

// ErrInvalidFormat indicates key material that cannot be turned into a
// valid key value: unrecognized curve parameters, a point that is not on
// its curve, or a malformed encoding.
var ErrInvalidFormat = errors.New("invalid key format")

// ErrCryptoFailure indicates a sign or verify failure that is not a clean
// verification mismatch, such as a signature that cannot be parsed at all.
var ErrCryptoFailure = errors.New("crypto operation failed")

// ErrEncoding indicates a key that cannot be serialized, such as one with
// missing point coordinates.
var ErrEncoding = errors.New("key encoding failed")
