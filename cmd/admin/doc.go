// Package main (cmd/admin) implements the admin client for the key
// service's Shamir bootstrap ceremony.
//
// The admin client provides command-line tools for managing the Shamir
// Secret Sharing based protection of the master seed: generating admin
// credentials, assembling the admin whitelist, driving share generation
// and recovery, and retrieving or submitting individual shares.
//
// Commands:
//
//	status          - Query the current bootstrap state
//	keygen          - Generate an admin key pair and print the admin ID
//	generate-config - Create the admins JSON file from admin public keys
//	init-generate   - Start share generation on a fresh key service
//	init-recover    - Put a restarted key service into recovery mode
//	get-share       - Retrieve and decrypt this admin's share into a file
//	submit-share    - Sign and submit the stored share during recovery
//	wait            - Poll until the bootstrap reports complete
//
// Admin IDs are derived as the hex SHA-256 of the public key PEM, both
// here and in generate-config, so the service and its admins agree on
// identifiers without extra coordination. Requests that change state are
// authenticated with an ECDSA signature over the request path and body.
//
// Example workflow:
//
//  1. Each administrator generates credentials:
//     admin keygen --admin-privkey-file=admin1-private.pem --admin-pubkey-file=admin1-public.pem
//
//  2. One administrator assembles the whitelist for the service:
//     admin generate-config --admin-pubkey-files=admin1-public.pem --admin-pubkey-files=admin2-public.pem
//
//  3. After the service starts, one administrator triggers generation:
//     admin init-generate --server-addr=http://keyservice:8081
//
//  4. Every administrator fetches their share:
//     admin get-share --server-addr=http://keyservice:8081
//
//  5. After a service restart, admins recover the seed:
//     admin init-recover
//     admin submit-share
//
// The share file written by get-share contains the decrypted share and
// must be stored as carefully as the admin private key itself.
package main
