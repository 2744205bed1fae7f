// Package keyhandler implements the HTTP API for serving SSH host keys.
//
// Host keys are derived on demand through the KMS, so the handler holds no
// key material of its own. The public routes serve key representations
// that SSH tooling consumes directly:
//
//   - /api/public/hostkey/{host}: JSON with blob, fingerprint and
//     authorized-key line
//   - /api/public/known_hosts/{host}: a known_hosts line
//   - /api/public/sshfp/{host}: SSHFP records as a zone-file fragment
//   - /api/public/verify/{host}: signature verification against the
//     host's public key
//   - /api/public/keys/{fingerprint}: stored authorized keys by hex
//     fingerprint
//
// The admin routes sign data with derived host keys and upload authorized
// keys into the configured key store. They carry no authentication of
// their own and must only be mounted on the admin listener.
//
// # Usage Example
//
//	handler := keyhandler.NewHandler(kms, keyStore, logger)
//
//	publicMux := chi.NewRouter()
//	handler.RegisterRoutes(publicMux)
//
//	adminMux := chi.NewRouter()
//	handler.RegisterAdminRoutes(adminMux)
//
// Request counters are exported per route with an outcome label and are
// served by the metrics listener.
package keyhandler
