package adminhandler

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/ssh-key-provisioning-backend/cryptoutils"
	"github.com/ruteri/ssh-key-provisioning-backend/kms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAdmin struct {
	id      string
	pubKey  cryptoutils.PublicKeyPEM
	privKey cryptoutils.PrivateKeyPEM
}

// setupTestAdmins creates n admin identities with fresh P-256 keypairs.
func setupTestAdmins(t *testing.T, n int) []testAdmin {
	admins := make([]testAdmin, 0, n)
	for i := 0; i < n; i++ {
		pubKey, privKey, err := cryptoutils.RandomP256Keypair()
		require.NoError(t, err)
		admins = append(admins, testAdmin{
			id:      fmt.Sprintf("admin-%d", i+1),
			pubKey:  pubKey,
			privKey: privKey,
		})
	}
	return admins
}

func adminPubKeyMap(admins []testAdmin) map[string][]byte {
	result := make(map[string][]byte)
	for _, admin := range admins {
		result[admin.id] = admin.pubKey
	}
	return result
}

// signedRequest builds a request carrying the admin identity headers,
// with the signature computed over the request path concatenated with
// the body.
func signedRequest(t *testing.T, admin testAdmin, method, path string, body []byte) *http.Request {
	privKey, err := admin.privKey.ECDSAKey()
	require.NoError(t, err)

	message := path + string(body)
	hash := sha256.Sum256([]byte(message))
	signature, err := ecdsa.SignASN1(rand.Reader, privKey, hash[:])
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("X-Admin-ID", admin.id)
	req.Header.Set("X-Admin-Signature", base64.StdEncoding.EncodeToString(signature))
	return req
}

func setupTestHandler(t *testing.T, threshold int, admins []testAdmin) (*AdminHandler, *chi.Mux) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler, err := NewAdminHandler(logger, threshold, adminPubKeyMap(admins))
	require.NoError(t, err)

	mux := chi.NewRouter()
	handler.RegisterRoutes(mux)
	return handler, mux
}

func getStatus(t *testing.T, mux *chi.Mux) map[string]interface{} {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/status", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	return status
}

func TestNewAdminHandler_ThresholdValidation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	admins := setupTestAdmins(t, 3)

	_, err := NewAdminHandler(logger, 1, adminPubKeyMap(admins))
	assert.ErrorContains(t, err, "threshold smaller than 2")

	_, err = NewAdminHandler(logger, 4, adminPubKeyMap(admins))
	assert.ErrorContains(t, err, "threshold larger than total shares")

	_, err = NewAdminHandler(logger, 2, adminPubKeyMap(admins))
	assert.NoError(t, err)
}

func TestAdminHandler_GenerateFlow(t *testing.T) {
	admins := setupTestAdmins(t, 3)
	handler, mux := setupTestHandler(t, 2, admins)

	// The handler starts in the initial state with no KMS available.
	status := getStatus(t, mux)
	assert.Equal(t, "initial", status["state"])
	assert.Nil(t, handler.GetKMS())

	// Any whitelisted admin can trigger generation.
	req := signedRequest(t, admins[0], http.MethodPost, "/api/admin/init/generate", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var generateResp struct {
		ShareAssignments []struct {
			AdminID    string `json:"admin_id"`
			ShareIndex int    `json:"share_index"`
		} `json:"share_assignments"`
		Threshold   int `json:"threshold"`
		TotalShares int `json:"total_shares"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &generateResp))
	assert.Equal(t, 2, generateResp.Threshold)
	assert.Equal(t, 3, generateResp.TotalShares)
	assert.Len(t, generateResp.ShareAssignments, 3)

	status = getStatus(t, mux)
	assert.Equal(t, "generating_shares", status["state"])
	assert.Equal(t, float64(3), status["pending_shares"])

	// A second generate attempt is rejected.
	req = signedRequest(t, admins[1], http.MethodPost, "/api/admin/init/generate", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Each admin retrieves their share and can decrypt it with their
	// private key.
	for _, admin := range admins {
		req = signedRequest(t, admin, http.MethodGet, "/api/admin/share", nil)
		w = httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var shareResp AdminGetShareResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &shareResp))

		encryptedShare, err := base64.StdEncoding.DecodeString(shareResp.EncryptedShare)
		require.NoError(t, err)

		share, err := cryptoutils.DecryptWithPrivateKey(admin.privKey, encryptedShare)
		require.NoError(t, err)
		assert.NotEmpty(t, share)
	}

	// All shares retrieved, bootstrap is complete.
	status = getStatus(t, mux)
	assert.Equal(t, "complete", status["state"])
	require.NotNil(t, handler.GetKMS())
	assert.True(t, handler.GetKMS().IsUnlocked())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	shamirKMS, err := handler.WaitForBootstrap(ctx)
	require.NoError(t, err)
	assert.True(t, shamirKMS.IsUnlocked())
}

func TestAdminHandler_RecoverFlow(t *testing.T) {
	admins := setupTestAdmins(t, 3)

	// Produce shares out of band, as a previous generation ceremony
	// would have.
	masterSeed := make([]byte, 32)
	_, err := rand.Read(masterSeed)
	require.NoError(t, err)

	shamirConfig := kms.ShamirConfig{Threshold: 2}
	for _, admin := range admins {
		shamirConfig.AdminPubKeys = append(shamirConfig.AdminPubKeys, admin.pubKey)
	}
	_, shares, err := kms.NewShamirKMS(masterSeed, shamirConfig)
	require.NoError(t, err)
	require.Len(t, shares, 3)

	handler, mux := setupTestHandler(t, 2, admins)

	// Enter recovery mode.
	req := signedRequest(t, admins[0], http.MethodPost, "/api/admin/init/recover", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	status := getStatus(t, mux)
	assert.Equal(t, "recovering", status["state"])

	// First share is accepted but does not unlock the KMS.
	submitShare(t, mux, admins[0], 0, shares[0])
	status = getStatus(t, mux)
	assert.Equal(t, "recovering", status["state"])
	assert.Nil(t, handler.GetKMS())

	// Second share reaches the threshold and unlocks the KMS.
	submitShare(t, mux, admins[1], 1, shares[1])
	status = getStatus(t, mux)
	assert.Equal(t, "complete", status["state"])
	require.NotNil(t, handler.GetKMS())
	assert.True(t, handler.GetKMS().IsUnlocked())

	// Further submissions are rejected once recovery is complete.
	privKey, err := admins[2].privKey.ECDSAKey()
	require.NoError(t, err)
	signature, err := kms.SignShare(shares[2], privKey)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]interface{}{
		"share_index": 2,
		"share":       base64.StdEncoding.EncodeToString(shares[2]),
		"signature":   base64.StdEncoding.EncodeToString(signature),
	})
	require.NoError(t, err)

	req = signedRequest(t, admins[2], http.MethodPost, "/api/admin/share", body)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "not in recovery mode")
}

// submitShare signs and submits a recovery share, expecting acceptance.
func submitShare(t *testing.T, mux *chi.Mux, admin testAdmin, shareIndex int, share []byte) {
	privKey, err := admin.privKey.ECDSAKey()
	require.NoError(t, err)

	signature, err := kms.SignShare(share, privKey)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]interface{}{
		"share_index": shareIndex,
		"share":       base64.StdEncoding.EncodeToString(share),
		"signature":   base64.StdEncoding.EncodeToString(signature),
	})
	require.NoError(t, err)

	req := signedRequest(t, admin, http.MethodPost, "/api/admin/share", body)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestAdminHandler_RejectsUnauthenticatedRequests(t *testing.T) {
	admins := setupTestAdmins(t, 3)
	_, mux := setupTestHandler(t, 2, admins)

	// No identity headers.
	req := httptest.NewRequest(http.MethodPost, "/api/admin/init/generate", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Unknown admin ID.
	outsiderPub, outsiderPriv, err := cryptoutils.RandomP256Keypair()
	require.NoError(t, err)
	outsider := testAdmin{id: "outsider", pubKey: outsiderPub, privKey: outsiderPriv}
	req = signedRequest(t, outsider, http.MethodPost, "/api/admin/init/generate", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Known admin ID but a signature from the wrong key.
	impostor := testAdmin{id: admins[0].id, pubKey: outsiderPub, privKey: outsiderPriv}
	req = signedRequest(t, impostor, http.MethodPost, "/api/admin/init/generate", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage signature encoding.
	req = httptest.NewRequest(http.MethodPost, "/api/admin/init/generate", nil)
	req.Header.Set("X-Admin-ID", admins[0].id)
	req.Header.Set("X-Admin-Signature", "not-base64!!!")
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The handler must still be in the initial state.
	status := getStatus(t, mux)
	assert.Equal(t, "initial", status["state"])
}

func TestAdminHandler_ShareRetrievalBeforeGeneration(t *testing.T) {
	admins := setupTestAdmins(t, 3)
	_, mux := setupTestHandler(t, 2, admins)

	req := signedRequest(t, admins[0], http.MethodGet, "/api/admin/share", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No shares available")
}

func TestAdminHandler_WaitForBootstrapHonorsContext(t *testing.T) {
	admins := setupTestAdmins(t, 3)
	handler, _ := setupTestHandler(t, 2, admins)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := handler.WaitForBootstrap(ctx)
	assert.Error(t, err)
}

func TestLoadAdminKeys(t *testing.T) {
	pubKey, _, err := cryptoutils.RandomP256Keypair()
	require.NoError(t, err)

	config, err := json.Marshal(AdminsConfig{
		Admins: []AdminMetadata{
			{ID: "admin-1", PubKey: string(pubKey)},
		},
	})
	require.NoError(t, err)

	keys, err := LoadAdminKeys(bytes.NewReader(config))
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, []byte(pubKey), keys["admin-1"])

	// Malformed public keys are rejected.
	_, err = LoadAdminKeys(strings.NewReader(`{"admins":[{"id":"admin-1","pubkey":"not a key"}]}`))
	assert.ErrorContains(t, err, "invalid public key for admin admin-1")

	// An empty whitelist is rejected.
	_, err = LoadAdminKeys(strings.NewReader(`{"admins":[]}`))
	assert.ErrorContains(t, err, "no admins configured")
}
