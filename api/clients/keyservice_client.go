package clients

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ruteri/ssh-key-provisioning-backend/api"
	"github.com/ruteri/ssh-key-provisioning-backend/interfaces"
	"github.com/ruteri/ssh-key-provisioning-backend/sshkeys"
)

// KeyServiceClient is a typed client for the host key API. The public
// routes work against the public listener; Sign and UploadKey are served
// only by the admin listener, so a client used for those must be pointed
// at the admin listener's base URL.
type KeyServiceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewKeyServiceClient creates a new client for the host key API.
//
// Parameters:
//   - baseURL: The base URL of the service (e.g., "http://localhost:8080")
//   - timeout: Request timeout duration (optional, default 30 seconds)
func NewKeyServiceClient(baseURL string, timeout ...time.Duration) *KeyServiceClient {
	clientTimeout := 30 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &KeyServiceClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
	}
}

// get fetches a path and returns the response body, treating any non-200
// status as an error carrying the response text.
func (c *KeyServiceClient) get(path string) ([]byte, error) {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", strings.TrimSpace(string(body)), interfaces.ErrKeyNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with code %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}

// postJSON sends a JSON body and decodes a JSON response into out. Any
// non-200 status is returned as an error carrying the response text.
func (c *KeyServiceClient) postJSON(path string, reqBody, out interface{}) error {
	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with code %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// HostKey fetches the host's public key for the given curve.
func (c *KeyServiceClient) HostKey(host interfaces.HostName, curve sshkeys.Curve) (*api.HostKeyResponse, error) {
	body, err := c.get(fmt.Sprintf("/api/public/hostkey/%s?curve=%s", host.String(), curve.String()))
	if err != nil {
		return nil, fmt.Errorf("host key request: %w", err)
	}

	var resp api.HostKeyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse host key response: %w", err)
	}

	return &resp, nil
}

// KnownHosts fetches the host's known_hosts line for the given curve. The
// returned line is newline terminated and appendable to a known_hosts
// file as is.
func (c *KeyServiceClient) KnownHosts(host interfaces.HostName, curve sshkeys.Curve) (string, error) {
	body, err := c.get(fmt.Sprintf("/api/public/known_hosts/%s?curve=%s", host.String(), curve.String()))
	if err != nil {
		return "", fmt.Errorf("known_hosts request: %w", err)
	}
	return string(body), nil
}

// SSHFP fetches the host's SSHFP records as a zone-file fragment.
func (c *KeyServiceClient) SSHFP(host interfaces.HostName, curve sshkeys.Curve) (string, error) {
	body, err := c.get(fmt.Sprintf("/api/public/sshfp/%s?curve=%s", host.String(), curve.String()))
	if err != nil {
		return "", fmt.Errorf("sshfp request: %w", err)
	}
	return string(body), nil
}

// Verify checks an ASN.1 DER signature over data against the host's
// public key. A well-formed signature that does not match returns
// (false, nil); a malformed signature encoding returns an error.
func (c *KeyServiceClient) Verify(host interfaces.HostName, curve sshkeys.Curve, data, signature []byte) (bool, error) {
	req := api.VerifyRequest{
		Curve:     curve.String(),
		Data:      base64.StdEncoding.EncodeToString(data),
		Signature: base64.StdEncoding.EncodeToString(signature),
	}

	var resp api.VerifyResponse
	if err := c.postJSON(fmt.Sprintf("/api/public/verify/%s", host.String()), req, &resp); err != nil {
		return false, fmt.Errorf("verify request: %w", err)
	}

	return resp.Valid, nil
}

// StoredKey fetches a stored authorized key by fingerprint. The result is
// an authorized-key line. A missing key wraps interfaces.ErrKeyNotFound.
func (c *KeyServiceClient) StoredKey(fp interfaces.Fingerprint) (string, error) {
	body, err := c.get(fmt.Sprintf("/api/public/keys/%s", fp.Hex()))
	if err != nil {
		return "", fmt.Errorf("stored key request: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

// Sign asks the service to sign data with the host's derived key. The
// signing route is served by the admin listener.
func (c *KeyServiceClient) Sign(host interfaces.HostName, curve sshkeys.Curve, data []byte) ([]byte, error) {
	req := api.SignRequest{
		Curve: curve.String(),
		Data:  base64.StdEncoding.EncodeToString(data),
	}

	var resp api.SignResponse
	if err := c.postJSON(fmt.Sprintf("/api/admin/sign/%s", host.String()), req, &resp); err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	signature, err := base64.StdEncoding.DecodeString(resp.Signature)
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature: %w", err)
	}

	return signature, nil
}

// UploadKey stores an authorized-key line through the admin API. The
// upload route is served by the admin listener.
func (c *KeyServiceClient) UploadKey(line string) (*api.UploadKeyResponse, error) {
	resp, err := c.httpClient.Post(c.baseURL+"/api/admin/keys", "text/plain", strings.NewReader(line))
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("upload failed with code %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var uploadResp api.UploadKeyResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return nil, fmt.Errorf("failed to parse upload response: %w", err)
	}

	return &uploadResp, nil
}
