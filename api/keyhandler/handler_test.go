package keyhandler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/miekg/dns"
	"github.com/ruteri/ssh-key-provisioning-backend/api"
	"github.com/ruteri/ssh-key-provisioning-backend/interfaces"
	"github.com/ruteri/ssh-key-provisioning-backend/kms"
	"github.com/ruteri/ssh-key-provisioning-backend/storage"
	"github.com/ruteri/ssh-key-provisioning-backend/sshkeys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHost = "bastion.example.com"

// setupTestEnvironment creates a handler over a real seed-derived KMS and
// a file-backed key store, with public and admin routes mounted.
func setupTestEnvironment(t *testing.T) (interfaces.KMS, interfaces.KeyStore, *chi.Mux) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	masterSeed := bytes.Repeat([]byte{7}, 32)
	kmsInstance, err := kms.NewSeedKMS(masterSeed)
	require.NoError(t, err)

	keyStore, err := storage.NewFileBackend(t.TempDir(), logger)
	require.NoError(t, err)

	handler := NewHandler(kmsInstance, keyStore, logger)
	mux := chi.NewRouter()
	handler.RegisterRoutes(mux)
	handler.RegisterAdminRoutes(mux)
	return kmsInstance, keyStore, mux
}

func TestHandleHostKey(t *testing.T) {
	kmsInstance, _, mux := setupTestEnvironment(t)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/public/hostkey/%s", testHost), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp api.HostKeyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, testHost, resp.Hostname)
	assert.Equal(t, "ecdsa-sha2-nistp256", resp.Keytype)
	assert.Equal(t, "nistp256", resp.Curve)

	// The served blob matches the key the KMS derives.
	host, err := interfaces.NewHostName(testHost)
	require.NoError(t, err)
	pub, err := kmsInstance.HostPublicKey(host, sshkeys.CurveNISTP256)
	require.NoError(t, err)
	expectedBlob, err := pub.Blob()
	require.NoError(t, err)

	blob, err := base64.StdEncoding.DecodeString(resp.Blob)
	require.NoError(t, err)
	assert.Equal(t, expectedBlob, blob)
	assert.Equal(t, interfaces.ComputeFingerprint(expectedBlob).String(), resp.Fingerprint)
	assert.Equal(t, fmt.Sprintf("ecdsa-sha2-nistp256 %s", resp.Blob), resp.AuthorizedKey)
}

func TestHandleHostKey_CurveParameter(t *testing.T) {
	_, _, mux := setupTestEnvironment(t)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/public/hostkey/%s?curve=nistp384", testHost), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp api.HostKeyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ecdsa-sha2-nistp384", resp.Keytype)
	assert.Equal(t, "nistp384", resp.Curve)

	// Unsupported curves are rejected.
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/public/hostkey/%s?curve=ed25519", testHost), nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleHostKey_InvalidHost(t *testing.T) {
	_, _, mux := setupTestEnvironment(t)

	req := httptest.NewRequest(http.MethodGet, "/api/public/hostkey/-not-a-host-", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid host name")
}

func TestHandleKnownHosts(t *testing.T) {
	kmsInstance, _, mux := setupTestEnvironment(t)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/public/known_hosts/%s", testHost), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))

	line := strings.TrimSuffix(w.Body.String(), "\n")
	fields := strings.Fields(line)
	require.Len(t, fields, 3)
	assert.Equal(t, testHost, fields[0])
	assert.Equal(t, "ecdsa-sha2-nistp256", fields[1])

	host, err := interfaces.NewHostName(testHost)
	require.NoError(t, err)
	pub, err := kmsInstance.HostPublicKey(host, sshkeys.CurveNISTP256)
	require.NoError(t, err)
	expectedBlob, err := pub.Blob()
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(expectedBlob), fields[2])
}

func TestHandleSSHFP(t *testing.T) {
	_, _, mux := setupTestEnvironment(t)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/public/sshfp/%s", testHost), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))

	// Both fingerprint types come back as parseable zone lines.
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		rr, err := dns.NewRR(line)
		require.NoError(t, err, line)
		sshfpRR, ok := rr.(*dns.SSHFP)
		require.True(t, ok, line)
		assert.Equal(t, uint8(3), sshfpRR.Algorithm)
	}
}

func TestHandleVerify(t *testing.T) {
	kmsInstance, _, mux := setupTestEnvironment(t)

	host, err := interfaces.NewHostName(testHost)
	require.NoError(t, err)

	data := []byte("host identity payload")
	signature, err := kmsInstance.SignHostData(host, sshkeys.CurveNISTP256, data)
	require.NoError(t, err)

	postVerify := func(t *testing.T, body api.VerifyRequest) *httptest.ResponseRecorder {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/public/verify/%s", testHost), bytes.NewReader(encoded))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		return w
	}

	// A valid signature verifies.
	w := postVerify(t, api.VerifyRequest{
		Data:      base64.StdEncoding.EncodeToString(data),
		Signature: base64.StdEncoding.EncodeToString(signature),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp api.VerifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)

	// A signature over different data is a clean mismatch, not an error.
	w = postVerify(t, api.VerifyRequest{
		Data:      base64.StdEncoding.EncodeToString([]byte("other payload")),
		Signature: base64.StdEncoding.EncodeToString(signature),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)

	// Garbage signature bytes are a client error.
	w = postVerify(t, api.VerifyRequest{
		Data:      base64.StdEncoding.EncodeToString(data),
		Signature: base64.StdEncoding.EncodeToString([]byte("not a DER signature")),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "malformed signature")

	// Invalid base64 in the signature field is a client error.
	w = postVerify(t, api.VerifyRequest{
		Data:      base64.StdEncoding.EncodeToString(data),
		Signature: "!!! not base64 !!!",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid signature encoding")
}

func TestHandleStoredKey(t *testing.T) {
	_, keyStore, mux := setupTestEnvironment(t)

	// Store a key directly through the backend.
	keyPair, err := sshkeys.GenerateKeyPair(sshkeys.CurveNISTP256)
	require.NoError(t, err)
	blob, err := keyPair.Blob()
	require.NoError(t, err)
	fp, err := keyStore.Store(context.Background(), blob, interfaces.AuthorizedKeyRole)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/public/keys/%s", fp.Hex()), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	line := strings.TrimSpace(w.Body.String())
	assert.Equal(t, fmt.Sprintf("ecdsa-sha2-nistp256 %s", base64.StdEncoding.EncodeToString(blob)), line)

	// Unknown fingerprints are 404.
	missing := interfaces.ComputeFingerprint([]byte("no such key"))
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/public/keys/%s", missing.Hex()), nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Malformed fingerprints are a client error.
	req = httptest.NewRequest(http.MethodGet, "/api/public/keys/zzzz", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSign(t *testing.T) {
	kmsInstance, _, mux := setupTestEnvironment(t)

	data := []byte("data to sign")
	body, err := json.Marshal(api.SignRequest{
		Curve: "nistp384",
		Data:  base64.StdEncoding.EncodeToString(data),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/admin/sign/%s", testHost), bytes.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp api.SignResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, testHost, resp.Hostname)
	assert.Equal(t, "nistp384", resp.Curve)

	// The signature verifies against the host's public key.
	signature, err := base64.StdEncoding.DecodeString(resp.Signature)
	require.NoError(t, err)

	host, err := interfaces.NewHostName(testHost)
	require.NoError(t, err)
	pub, err := kmsInstance.HostPublicKey(host, sshkeys.CurveNISTP384)
	require.NoError(t, err)
	valid, err := pub.Verify(data, signature)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestHandleUploadKey(t *testing.T) {
	_, keyStore, mux := setupTestEnvironment(t)

	keyPair, err := sshkeys.GenerateKeyPair(sshkeys.CurveNISTP256)
	require.NoError(t, err)
	blob, err := keyPair.Blob()
	require.NoError(t, err)
	line := fmt.Sprintf("ecdsa-sha2-nistp256 %s user@example.com\n", base64.StdEncoding.EncodeToString(blob))

	req := httptest.NewRequest(http.MethodPost, "/api/admin/keys", strings.NewReader(line))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp api.UploadKeyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ecdsa-sha2-nistp256", resp.Keytype)
	assert.Equal(t, interfaces.ComputeFingerprint(blob).String(), resp.Fingerprint)

	// The key landed in the store under its fingerprint.
	stored, err := keyStore.Fetch(context.Background(), interfaces.ComputeFingerprint(blob), interfaces.AuthorizedKeyRole)
	require.NoError(t, err)
	assert.Equal(t, blob, stored)

	// Garbage uploads are rejected.
	req = httptest.NewRequest(http.MethodPost, "/api/admin/keys", strings.NewReader("ssh-rsa AAAA..."))
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/admin/keys", strings.NewReader(""))
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_NilKeyStore(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	masterSeed := bytes.Repeat([]byte{9}, 32)
	kmsInstance, err := kms.NewSeedKMS(masterSeed)
	require.NoError(t, err)

	handler := NewHandler(kmsInstance, nil, logger)
	mux := chi.NewRouter()
	handler.RegisterRoutes(mux)
	handler.RegisterAdminRoutes(mux)

	fp := interfaces.ComputeFingerprint([]byte("whatever"))
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/public/keys/%s", fp.Hex()), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/admin/keys", strings.NewReader("x"))
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// Host key derivation keeps working without a store.
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/public/hostkey/%s", testHost), nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
