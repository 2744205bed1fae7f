// Package main (cmd/keyservice) implements the SSH host key provisioning
// daemon.
//
// The service derives ECDSA host keys deterministically from a master seed
// and serves them over two HTTP listeners: a public listener for host key
// lookup (authorized_keys, known_hosts and SSHFP formats, plus signature
// verification) and an admin listener for host data signing, key uploads
// and the Shamir bootstrap ceremony.
//
// The master seed can be provided in three ways, selected by --kms-type:
//
//   - seed: a 32-byte hex seed passed directly via --kms-seed. Suitable for
//     development environments.
//
//   - passphrase: the seed is derived from --kms-passphrase (Argon2id, with
//     --kms-passphrase-salt binding it to a deployment). The passphrase can
//     also be supplied via the KEYSERVICE_KMS_PASSPHRASE environment
//     variable to keep it out of the process list.
//
//   - shamir: the seed is split with Shamir's Secret Sharing across a set
//     of administrators. The service starts with only the admin listener
//     active and waits for the bootstrap ceremony to complete before host
//     keys become available; until then key operations report 503.
//
// Stored public keys (uploaded authorized_keys entries) live in the key
// store assembled from repeatable --storage-uri flags. Multiple backends
// fan out on writes and serve reads first-hit.
//
// The service implements graceful shutdown on SIGINT/SIGTERM and exposes
// health checks, Prometheus metrics and optional profiling endpoints.
//
// Example usage with a fixed seed:
//
//	keyservice --kms-type=seed \
//	    --kms-seed=0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef \
//	    --listen-addr=0.0.0.0:8080 \
//	    --storage-uri=file:///var/lib/keyservice/keys
//
// Example usage with the Shamir bootstrap:
//
//	keyservice --kms-type=shamir \
//	    --shamir-admin-keys-file=./admins.json \
//	    --shamir-threshold=2 \
//	    --admin-listen-addr=0.0.0.0:8081
package main
