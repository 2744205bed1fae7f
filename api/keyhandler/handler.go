package keyhandler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/ssh-key-provisioning-backend/api"
	"github.com/ruteri/ssh-key-provisioning-backend/interfaces"
	"github.com/ruteri/ssh-key-provisioning-backend/kms"
	"github.com/ruteri/ssh-key-provisioning-backend/sshfp"
	"github.com/ruteri/ssh-key-provisioning-backend/sshkeys"
)

// Handler processes HTTP requests for the host key service.
//
// The public routes serve derived host keys in several formats (JSON,
// known_hosts lines, SSHFP zone fragments) and verify signatures against
// host keys. The admin routes sign data with derived host keys and manage
// stored authorized keys.
//
// The handler derives keys through the KMS on every request. Derivation is
// deterministic, so no key material needs to be cached or persisted.
type Handler struct {
	kms      interfaces.KMS
	keyStore interfaces.KeyStore // nil disables the stored-key routes
	log      *slog.Logger
}

// NewHandler creates a new HTTP request handler with the specified dependencies.
// The key store may be nil, in which case the stored-key routes respond
// with 503.
func NewHandler(kms interfaces.KMS, keyStore interfaces.KeyStore, log *slog.Logger) *Handler {
	return &Handler{
		kms:      kms,
		keyStore: keyStore,
		log:      log,
	}
}

// RegisterRoutes configures the public API routes. These require no
// authentication and serve only public key material.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/public/hostkey/{host}", h.HandleHostKey)
	r.Get("/api/public/known_hosts/{host}", h.HandleKnownHosts)
	r.Get("/api/public/sshfp/{host}", h.HandleSSHFP)
	r.Post("/api/public/verify/{host}", h.HandleVerify)
	r.Get("/api/public/keys/{fingerprint}", h.HandleStoredKey)
}

// RegisterAdminRoutes configures the admin API routes. These must only be
// mounted on the admin listener.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/api/admin/sign/{host}", h.HandleSign)
	r.Post("/api/admin/keys", h.HandleUploadKey)
}

// requestCurve resolves the curve query parameter, defaulting to nistp256.
func requestCurve(r *http.Request) (sshkeys.Curve, error) {
	param := r.URL.Query().Get("curve")
	if param == "" {
		return sshkeys.CurveNISTP256, nil
	}
	return sshkeys.ParseCurve(param)
}

// hostPublicKey resolves the host path segment and derives its public key.
// Returns false after writing an error response if either step fails.
func (h *Handler) hostPublicKey(w http.ResponseWriter, r *http.Request) (interfaces.HostName, sshkeys.Curve, sshkeys.PublicKey, bool) {
	host, err := interfaces.NewHostName(r.PathValue("host"))
	if err != nil {
		http.Error(w, fmt.Errorf("invalid host name: %w", err).Error(), http.StatusBadRequest)
		return "", 0, nil, false
	}

	curve, err := requestCurve(r)
	if err != nil {
		http.Error(w, fmt.Errorf("invalid curve: %w", err).Error(), http.StatusBadRequest)
		return "", 0, nil, false
	}

	pub, err := h.kms.HostPublicKey(host, curve)
	if err != nil {
		h.log.Error("Failed to derive host key", "err", err, "host", host.String(), "curve", curve.String())
		http.Error(w, "Failed to derive host key", kmsErrorStatus(err))
		return "", 0, nil, false
	}

	return host, curve, pub, true
}

// kmsErrorStatus maps KMS failures to response codes. A locked KMS is a
// temporary condition that resolves once bootstrap completes.
func kmsErrorStatus(err error) int {
	if errors.Is(err, kms.ErrLocked) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// HandleHostKey serves the host public key as JSON.
//
// URL format: GET /api/public/hostkey/{host}?curve=nistp256
//
// The curve query parameter is optional and defaults to nistp256.
//
// Response: JSON-encoded HostKeyResponse with the key blob, fingerprint
// and authorized-key line.
func (h *Handler) HandleHostKey(w http.ResponseWriter, r *http.Request) {
	host, curve, pub, ok := h.hostPublicKey(w, r)
	if !ok {
		hostKeyRequests.WithLabelValues("error").Inc()
		return
	}

	blob, err := pub.Blob()
	if err != nil {
		hostKeyRequests.WithLabelValues("error").Inc()
		h.log.Error("Failed to encode host key", "err", err, "host", host.String())
		http.Error(w, "Failed to encode host key", http.StatusInternalServerError)
		return
	}

	resp := api.HostKeyResponse{
		Hostname:      host.String(),
		Keytype:       pub.Keytype(),
		Curve:         curve.String(),
		Blob:          base64.StdEncoding.EncodeToString(blob),
		Fingerprint:   interfaces.ComputeFingerprint(blob).String(),
		AuthorizedKey: fmt.Sprintf("%s %s", pub.Keytype(), base64.StdEncoding.EncodeToString(blob)),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error("Failed to encode response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	hostKeyRequests.WithLabelValues("ok").Inc()
}

// HandleKnownHosts serves the host key as a known_hosts line.
//
// URL format: GET /api/public/known_hosts/{host}?curve=nistp256
//
// Response: text/plain "<host> <algorithm> <base64 blob>", directly
// appendable to a known_hosts file.
func (h *Handler) HandleKnownHosts(w http.ResponseWriter, r *http.Request) {
	host, _, pub, ok := h.hostPublicKey(w, r)
	if !ok {
		hostKeyRequests.WithLabelValues("error").Inc()
		return
	}

	blob, err := pub.Blob()
	if err != nil {
		hostKeyRequests.WithLabelValues("error").Inc()
		h.log.Error("Failed to encode host key", "err", err, "host", host.String())
		http.Error(w, "Failed to encode host key", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "%s %s %s\n", host.String(), pub.Keytype(), base64.StdEncoding.EncodeToString(blob))
	hostKeyRequests.WithLabelValues("ok").Inc()
}

// HandleSSHFP serves SSHFP DNS records for the host key.
//
// URL format: GET /api/public/sshfp/{host}?curve=nistp256
//
// Response: text/plain zone-file fragment with SHA-1 and SHA-256 SSHFP
// records, ready to paste into the host's DNS zone.
func (h *Handler) HandleSSHFP(w http.ResponseWriter, r *http.Request) {
	host, _, pub, ok := h.hostPublicKey(w, r)
	if !ok {
		hostKeyRequests.WithLabelValues("error").Inc()
		return
	}

	fragment, err := sshfp.Zone(host, pub)
	if err != nil {
		hostKeyRequests.WithLabelValues("error").Inc()
		h.log.Error("Failed to render SSHFP records", "err", err, "host", host.String())
		http.Error(w, "Failed to render SSHFP records", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, fragment)
	hostKeyRequests.WithLabelValues("ok").Inc()
}

// HandleVerify checks a signature against the host's public key.
//
// URL format: POST /api/public/verify/{host}
//
// Request body: JSON-encoded VerifyRequest with base64 data and signature.
//
// Response: JSON-encoded VerifyResponse. A well-formed signature that does
// not match the data yields {"valid": false} with status 200. A signature
// that cannot be parsed at all is rejected with status 400.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	host, err := interfaces.NewHostName(r.PathValue("host"))
	if err != nil {
		verifyRequests.WithLabelValues("bad_request").Inc()
		http.Error(w, fmt.Errorf("invalid host name: %w", err).Error(), http.StatusBadRequest)
		return
	}

	var req api.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		verifyRequests.WithLabelValues("bad_request").Inc()
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	curve := sshkeys.CurveNISTP256
	if req.Curve != "" {
		curve, err = sshkeys.ParseCurve(req.Curve)
		if err != nil {
			verifyRequests.WithLabelValues("bad_request").Inc()
			http.Error(w, fmt.Errorf("invalid curve: %w", err).Error(), http.StatusBadRequest)
			return
		}
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		verifyRequests.WithLabelValues("bad_request").Inc()
		http.Error(w, "Invalid data encoding", http.StatusBadRequest)
		return
	}

	signature, err := base64.StdEncoding.DecodeString(req.Signature)
	if err != nil {
		verifyRequests.WithLabelValues("bad_request").Inc()
		http.Error(w, "Invalid signature encoding", http.StatusBadRequest)
		return
	}

	pub, err := h.kms.HostPublicKey(host, curve)
	if err != nil {
		verifyRequests.WithLabelValues("error").Inc()
		h.log.Error("Failed to derive host key", "err", err, "host", host.String(), "curve", curve.String())
		http.Error(w, "Failed to derive host key", kmsErrorStatus(err))
		return
	}

	valid, err := pub.Verify(data, signature)
	if err != nil {
		// Signature bytes that do not parse as a DER ECDSA signature.
		verifyRequests.WithLabelValues("bad_request").Inc()
		http.Error(w, fmt.Errorf("malformed signature: %w", err).Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(api.VerifyResponse{Valid: valid}); err != nil {
		h.log.Error("Failed to encode response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if valid {
		verifyRequests.WithLabelValues("valid").Inc()
	} else {
		verifyRequests.WithLabelValues("invalid").Inc()
	}
}

// HandleStoredKey serves a stored authorized key by fingerprint.
//
// URL format: GET /api/public/keys/{fingerprint}
//
// The fingerprint is the 64-character hex digest of the key blob, as used
// in storage paths.
//
// Response: text/plain authorized-key line "<algorithm> <base64 blob>".
func (h *Handler) HandleStoredKey(w http.ResponseWriter, r *http.Request) {
	if h.keyStore == nil {
		storedKeyRequests.WithLabelValues("error").Inc()
		http.Error(w, "Key storage not configured", http.StatusServiceUnavailable)
		return
	}

	fp, err := interfaces.NewFingerprintFromHex(r.PathValue("fingerprint"))
	if err != nil {
		storedKeyRequests.WithLabelValues("bad_request").Inc()
		http.Error(w, fmt.Errorf("invalid fingerprint: %w", err).Error(), http.StatusBadRequest)
		return
	}

	blob, err := h.keyStore.Fetch(r.Context(), fp, interfaces.AuthorizedKeyRole)
	if errors.Is(err, interfaces.ErrKeyNotFound) {
		storedKeyRequests.WithLabelValues("not_found").Inc()
		http.Error(w, "Key not found", http.StatusNotFound)
		return
	}
	if err != nil {
		storedKeyRequests.WithLabelValues("error").Inc()
		h.log.Error("Failed to fetch key", "err", err, "fingerprint", fp.String())
		http.Error(w, "Failed to fetch key", http.StatusInternalServerError)
		return
	}

	key, err := sshkeys.ParseBlob(blob)
	if err != nil {
		storedKeyRequests.WithLabelValues("error").Inc()
		h.log.Error("Stored blob does not parse as an SSH key", "err", err, "fingerprint", fp.String())
		http.Error(w, "Stored key is corrupted", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "%s\n", key.String())
	storedKeyRequests.WithLabelValues("ok").Inc()
}

// HandleSign signs data with the host's derived key.
//
// URL format: POST /api/admin/sign/{host}
//
// Request body: JSON-encoded SignRequest with base64 data and an optional
// curve, defaulting to nistp256.
//
// Response: JSON-encoded SignResponse carrying the ASN.1 DER signature.
func (h *Handler) HandleSign(w http.ResponseWriter, r *http.Request) {
	host, err := interfaces.NewHostName(r.PathValue("host"))
	if err != nil {
		signRequests.WithLabelValues("bad_request").Inc()
		http.Error(w, fmt.Errorf("invalid host name: %w", err).Error(), http.StatusBadRequest)
		return
	}

	var req api.SignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		signRequests.WithLabelValues("bad_request").Inc()
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	curve := sshkeys.CurveNISTP256
	if req.Curve != "" {
		curve, err = sshkeys.ParseCurve(req.Curve)
		if err != nil {
			signRequests.WithLabelValues("bad_request").Inc()
			http.Error(w, fmt.Errorf("invalid curve: %w", err).Error(), http.StatusBadRequest)
			return
		}
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		signRequests.WithLabelValues("bad_request").Inc()
		http.Error(w, "Invalid data encoding", http.StatusBadRequest)
		return
	}

	signature, err := h.kms.SignHostData(host, curve, data)
	if err != nil {
		signRequests.WithLabelValues("error").Inc()
		h.log.Error("Failed to sign data", "err", err, "host", host.String(), "curve", curve.String())
		http.Error(w, "Failed to sign data", kmsErrorStatus(err))
		return
	}

	resp := api.SignResponse{
		Hostname:  host.String(),
		Curve:     curve.String(),
		Signature: base64.StdEncoding.EncodeToString(signature),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error("Failed to encode response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	signRequests.WithLabelValues("ok").Inc()
}

// HandleUploadKey stores an authorized key.
//
// URL format: POST /api/admin/keys
//
// Request body: one authorized-key line, "<algorithm> <base64 blob>
// [comment]". The comment is dropped; only the key blob is stored.
//
// Response: JSON-encoded UploadKeyResponse with the fingerprint under
// which the key was stored.
func (h *Handler) HandleUploadKey(w http.ResponseWriter, r *http.Request) {
	if h.keyStore == nil {
		keyUploads.WithLabelValues("error").Inc()
		http.Error(w, "Key storage not configured", http.StatusServiceUnavailable)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		keyUploads.WithLabelValues("bad_request").Inc()
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	if len(body) == 0 {
		keyUploads.WithLabelValues("bad_request").Inc()
		http.Error(w, "Empty key in request body", http.StatusBadRequest)
		return
	}

	key, _, err := sshkeys.ParseAuthorizedKey(string(body))
	if err != nil {
		keyUploads.WithLabelValues("bad_request").Inc()
		http.Error(w, fmt.Errorf("invalid authorized key: %w", err).Error(), http.StatusBadRequest)
		return
	}

	blob, err := key.Blob()
	if err != nil {
		keyUploads.WithLabelValues("error").Inc()
		h.log.Error("Failed to encode key", "err", err)
		http.Error(w, "Failed to encode key", http.StatusInternalServerError)
		return
	}

	fp, err := h.keyStore.Store(r.Context(), blob, interfaces.AuthorizedKeyRole)
	if err != nil {
		keyUploads.WithLabelValues("error").Inc()
		h.log.Error("Failed to store key", "err", err)
		http.Error(w, "Failed to store key", http.StatusInternalServerError)
		return
	}

	resp := api.UploadKeyResponse{
		Fingerprint: fp.String(),
		Keytype:     key.Keytype(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error("Failed to encode response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	keyUploads.WithLabelValues("ok").Inc()
}
