// Package sshkeys implements ECDSA keys on the NIST P-256, P-384 and P-521
// curves together with their SSH binary encoding.
//
// The package is built around a closed curve registry (Curve) and two owned
// value types: ECDSAPublicKey and ECDSAKeyPair. Values are validated at
// construction and wrap their provider key handles without exposing them,
// so a successfully constructed key is always on a supported curve and
// always serializable.
//
// The SSH wire encoding of a public key is three length-prefixed fields:
// the algorithm name (e.g. "ecdsa-sha2-nistp256"), the short curve
// identifier (e.g. "nistp256"), and the uncompressed curve point
// (0x04 || X || Y with fixed-width big-endian coordinates). ParseBlob and
// ParseAuthorizedKey decode the same formats back into key values.
//
// Signatures are ASN.1 DER (r, s) pairs over the SHA-1 digest of the
// message. SHA-1 is used for every curve size; see the Sign and Verify
// documentation before interoperating with other SSH stacks.
//
// Capability interfaces split consumers into readers (PublicKey) and
// signers (PrivateKey). Code that only needs to encode or verify should
// accept PublicKey.
package sshkeys
