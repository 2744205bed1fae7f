package clients

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ruteri/ssh-key-provisioning-backend/api"
	"github.com/ruteri/ssh-key-provisioning-backend/api/adminhandler"
	"github.com/ruteri/ssh-key-provisioning-backend/cryptoutils"
	"github.com/ruteri/ssh-key-provisioning-backend/kms"
)

// AdminClient drives the KMS bootstrap API on behalf of one administrator.
// It signs every request with the admin's private key, decrypts retrieved
// shares, and signs shares for submission during recovery.
type AdminClient struct {
	baseURL    string
	adminID    string
	privateKey *ecdsa.PrivateKey
	httpClient *http.Client
}

// NewAdminClient creates a new client for bootstrap operations.
//
// Parameters:
//   - baseURL: The base URL of the admin listener (e.g., "http://localhost:8081")
//   - adminID: The administrator's ID from the whitelist
//   - privateKey: The administrator's ECDSA private key
//   - timeout: Request timeout duration (optional, default 30 seconds)
func NewAdminClient(baseURL, adminID string, privateKey *ecdsa.PrivateKey, timeout ...time.Duration) *AdminClient {
	clientTimeout := 30 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &AdminClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		adminID:    adminID,
		privateKey: privateKey,
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
	}
}

// GetStatus queries the current status of the KMS bootstrap process.
//
// Returns:
//   - Status string ("initial", "generating_shares", "recovering", "complete")
//   - Error if the request fails
func (c *AdminClient) GetStatus() (string, error) {
	url := fmt.Sprintf("%s/api/admin/status", c.baseURL)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status request failed with code %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		State string `json:"state"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to parse status response: %w", err)
	}

	return result.State, nil
}

// InitGenerate initiates master seed generation and share distribution.
// The threshold and admin set are server-side configuration; the response
// reports the resulting share assignments.
//
// Returns:
//   - Response containing share assignments and instructions
//   - Error if the request fails
func (c *AdminClient) InitGenerate() (map[string]interface{}, error) {
	url := fmt.Sprintf("%s/api/admin/init/generate", c.baseURL)

	req, err := CreateSignedAdminRequest(http.MethodPost, url, nil, c.adminID, c.privateKey)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("init generate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("init generate failed with code %d: %s", resp.StatusCode, string(body))
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return result, nil
}

// InitRecover initiates the recovery process.
//
// Returns:
//   - Error if the request fails
func (c *AdminClient) InitRecover() error {
	url := fmt.Sprintf("%s/api/admin/init/recover", c.baseURL)

	req, err := CreateSignedAdminRequest(http.MethodPost, url, nil, c.adminID, c.privateKey)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("init recover request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("init recover failed with code %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// GetShare retrieves and decrypts the admin's share. Only the designated
// admin can retrieve their share; the server encrypts it to the admin's
// public key and this method decrypts it with the private key.
//
// Returns:
//   - Share index
//   - Decrypted share bytes, ready for submission during recovery
//   - Error if retrieval or decryption fails
func (c *AdminClient) GetShare() (int, []byte, error) {
	url := fmt.Sprintf("%s/api/admin/share", c.baseURL)

	req, err := CreateSignedAdminRequest(http.MethodGet, url, nil, c.adminID, c.privateKey)
	if err != nil {
		return 0, nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("get share request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, nil, fmt.Errorf("get share failed with code %d: %s", resp.StatusCode, string(body))
	}

	var result adminhandler.AdminGetShareResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, nil, fmt.Errorf("failed to parse response: %w", err)
	}

	encryptedShare, err := base64.StdEncoding.DecodeString(result.EncryptedShare)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to decode encrypted share: %w", err)
	}

	privateKeyPEM, err := cryptoutils.MarshalPrivateKey(c.privateKey)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode private key: %w", err)
	}

	share, err := cryptoutils.DecryptWithPrivateKey(privateKeyPEM, encryptedShare)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to decrypt share: %w", err)
	}

	return result.ShareIndex, share, nil
}

// SubmitShare signs and submits the admin's share during recovery.
//
// Parameters:
//   - shareIndex: The index of the share as reported at retrieval
//   - share: The decrypted share bytes
//
// Returns:
//   - Response message
//   - Error if signing or submission fails
func (c *AdminClient) SubmitShare(shareIndex int, share []byte) (string, error) {
	url := fmt.Sprintf("%s/api/admin/share", c.baseURL)

	signature, err := kms.SignShare(share, c.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign share: %w", err)
	}

	reqBody := map[string]interface{}{
		"share_index": shareIndex,
		"share":       base64.StdEncoding.EncodeToString(share),
		"signature":   base64.StdEncoding.EncodeToString(signature),
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := CreateSignedAdminRequest(http.MethodPost, url, reqJSON, c.adminID, c.privateKey)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit share request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("submit share failed with code %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Message string `json:"message"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return result.Message, nil
}

// WaitForCompletion polls the bootstrap status until it reaches the
// "complete" state or the timeout expires.
//
// Parameters:
//   - timeout: Maximum duration to wait
//   - interval: Polling interval
//
// Returns:
//   - Error if waiting times out or a status request fails
func (c *AdminClient) WaitForCompletion(timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		status, err := c.GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get bootstrap status: %w", err)
		}

		if status == "complete" {
			return nil
		}

		time.Sleep(interval)
	}

	return fmt.Errorf("timeout waiting for KMS bootstrap completion")
}

// CreateSignedAdminRequest creates a new HTTP request with admin
// authentication headers.
//
// The signature is created by:
//  1. Concatenating the request path with the request body (if any)
//  2. Computing the SHA-256 hash of this message
//  3. Signing the hash with the admin's private key using ECDSA
//  4. Base64-encoding the signature into the signature header
//
// Parameters:
//   - method: HTTP method (e.g., "GET", "POST")
//   - reqUrl: The request URL
//   - body: The request body (can be nil)
//   - adminID: The administrator's ID
//   - privateKey: The administrator's ECDSA private key
//
// Returns:
//   - The signed HTTP request
//   - Error if request creation or signing fails
func CreateSignedAdminRequest(method, reqUrl string, body []byte, adminID string, privateKey *ecdsa.PrivateKey) (*http.Request, error) {
	var req *http.Request
	var err error

	if body != nil {
		req, err = http.NewRequest(method, reqUrl, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequest(method, reqUrl, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
	}

	// The signature covers just the path, not the full URL
	parsedURL, err := url.Parse(reqUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	req.Header.Set(api.AdminIDHeader, adminID)

	message := parsedURL.Path
	if body != nil {
		message += string(body)
	}

	hash := sha256.Sum256([]byte(message))

	signature, err := ecdsa.SignASN1(rand.Reader, privateKey, hash[:])
	if err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	req.Header.Set(api.AdminSignatureHeader, base64.StdEncoding.EncodeToString(signature))

	return req, nil
}
