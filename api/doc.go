/*
Package api defines the HTTP surface of the SSH host key service.

This package holds the shared request/response types and server
configuration; the behavior lives in three subpackages:

 1. keyhandler - Host key routes: derivation, known_hosts, SSHFP,
    verification and stored authorized keys
 2. adminhandler - KMS bootstrap routes implementing the Shamir share
    ceremony
 3. clients - Client libraries for both API surfaces

# System Components

The service works with the following components:

  - KMS: Derives SSH host keys deterministically from a master seed
  - KeyStore: Fingerprint-addressed storage for public key blobs
  - Hosts: Machines whose SSH host keys are provisioned by this service
  - Admins: Operators holding Shamir shares of the master seed

# API Structure

The API is served by two listeners:

 1. Public listener - Key distribution routes under /api/public,
    safe to expose; serves only public key material
 2. Admin listener - Bootstrap ceremony, host key signing, and key
    uploads under /api/admin

# Security Model

The service implements a strict security model with:

  - No persisted private key material; host keys are derived on demand
  - Master seed protected by Shamir's Secret Sharing across admins
  - Cryptographic proof of admin identity for bootstrap operations
  - Per-admin encryption of seed shares
  - Public routes restricted to non-secret key representations

See the subpackages for detailed documentation on specific components.
*/
package api
