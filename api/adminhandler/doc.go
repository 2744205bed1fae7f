// Package adminhandler implements the HTTP bootstrap service for the
// Shamir-protected key management system.
//
// The key service cannot derive or sign host keys until its master seed is
// available. This package provides the administrator-facing API that either
// generates a fresh master seed and distributes encrypted shares, or
// reconstructs an existing seed from submitted shares. Each share is
// individually encrypted for a specific administrator using their public key,
// so no party (including the server operator) can collect shares belonging
// to other admins.
//
// # Key Components
//
//   - AdminHandler: Implements share management with admin authentication,
//     per-admin share encryption, and state transitions during bootstrap
//   - LoadAdminKeys: Parses the admin whitelist from its JSON config format
//   - WaitForBootstrap: Lets the main service block until the KMS is usable
//
// # Security Model
//
// The package implements a strict security model with:
//
//   - Cryptographic verification of admin identity using ECDSA signatures
//     over the request path and body
//   - Individual encryption of shares with admin-specific public keys
//   - Zero knowledge of the master seed once split into shares
//   - Share retrieval restricted to the designated admin
//   - Signature verification for share submission during recovery
//
// # Bootstrap Process
//
// Two operational modes are supported:
//
//  1. Generation Mode:
//     - Server generates a strong cryptographic master seed
//     - Seed is split into shares using Shamir's Secret Sharing
//     - Each share is encrypted with an admin's public key
//     - Admins retrieve their encrypted shares over the admin API
//     - Once every share is retrieved the KMS becomes operational
//
//  2. Recovery Mode:
//     - Server starts in recovery mode awaiting admin shares
//     - Admins submit their shares with signatures proving identity
//     - Once threshold shares are validated, the seed is reconstructed
//     - KMS becomes operational with the reconstructed seed
//
// # Usage Example
//
//	admins, err := adminhandler.LoadAdminKeys(configFile)
//	if err != nil {
//	    log.Fatalf("Failed to load admin whitelist: %v", err)
//	}
//
//	handler, err := adminhandler.NewAdminHandler(logger, 3, admins)
//	if err != nil {
//	    log.Fatalf("Failed to create admin handler: %v", err)
//	}
//
//	mux := chi.NewRouter()
//	handler.RegisterRoutes(mux)
//
//	// Elsewhere, wait for admins to finish the bootstrap ceremony.
//	shamirKMS, err := handler.WaitForBootstrap(ctx)
package adminhandler
