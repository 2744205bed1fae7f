package api

// Header names used by the admin API for request authentication. The
// signature is an ASN.1 DER ECDSA signature over the SHA-256 digest of
// the request path concatenated with the request body, base64 encoded.
const (
	// AdminIDHeader carries the admin identifier from the whitelist.
	AdminIDHeader = "X-Admin-ID"

	// AdminSignatureHeader carries the base64 encoded request signature.
	AdminSignatureHeader = "X-Admin-Signature"
)

// HostKeyResponse describes one host key served by the public API.
type HostKeyResponse struct {
	// Hostname is the validated host the key belongs to.
	Hostname string `json:"hostname"`

	// Keytype is the SSH algorithm name, e.g. "ecdsa-sha2-nistp256".
	Keytype string `json:"keytype"`

	// Curve is the short curve identifier, e.g. "nistp256".
	Curve string `json:"curve"`

	// Blob is the SSH wire encoding of the public key, base64 encoded.
	Blob string `json:"blob"`

	// Fingerprint is the SHA256 fingerprint of the key blob in the
	// "SHA256:<base64>" form used by OpenSSH tooling.
	Fingerprint string `json:"fingerprint"`

	// AuthorizedKey is the single-line public key representation
	// "<algorithm> <base64 blob>".
	AuthorizedKey string `json:"authorized_key"`
}

// SignRequest asks the service to sign data with a host's derived key.
type SignRequest struct {
	// Curve selects which of the host's keys signs, e.g. "nistp256".
	Curve string `json:"curve"`

	// Data is the payload to sign, base64 encoded.
	Data string `json:"data"`
}

// SignResponse carries a signature produced by a host's derived key.
type SignResponse struct {
	// Hostname is the host whose key produced the signature.
	Hostname string `json:"hostname"`

	// Curve is the short curve identifier of the signing key.
	Curve string `json:"curve"`

	// Signature is the ASN.1 DER ECDSA signature, base64 encoded.
	Signature string `json:"signature"`
}

// VerifyRequest asks the service to check a signature against a host's
// public key.
type VerifyRequest struct {
	// Curve selects which of the host's keys verifies, e.g. "nistp256".
	Curve string `json:"curve"`

	// Data is the payload that was signed, base64 encoded.
	Data string `json:"data"`

	// Signature is the ASN.1 DER ECDSA signature to check, base64 encoded.
	Signature string `json:"signature"`
}

// VerifyResponse reports the outcome of a signature check. A well-formed
// signature that does not match yields Valid=false with a 200 response;
// malformed encodings are rejected with a 400 instead.
type VerifyResponse struct {
	Valid bool `json:"valid"`
}

// UploadKeyResponse acknowledges an authorized key upload.
type UploadKeyResponse struct {
	// Fingerprint is the SHA256 fingerprint under which the key was stored.
	Fingerprint string `json:"fingerprint"`

	// Keytype is the SSH algorithm name of the uploaded key.
	Keytype string `json:"keytype"`
}
