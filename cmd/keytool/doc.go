// Package main (cmd/keytool) implements offline SSH key operations for
// operators of the key service.
//
// The tool works without a running service: it generates ECDSA key pairs,
// describes and fingerprints public keys, derives host keys from a master
// seed exactly as the service does, renders SSHFP zone fragments and
// produces or checks detached signatures.
//
// Commands:
//
//	generate    - Generate an ECDSA key pair and write PEM files
//	inspect     - Print algorithm, curve, size and fingerprint of a key
//	fingerprint - Print only the SHA-256 fingerprint
//	hostkey     - Derive a host's public key from a seed or passphrase
//	sshfp       - Print an SSHFP zone fragment, or verify DNS publication
//	sign        - Sign data with an EC private key (base64 DER output)
//	verify      - Check a detached signature against a public key
//
// Public keys are accepted both as "ecdsa-sha2-* <base64> [comment]" lines
// and as PEM files. Commands reading data take a file argument or stdin.
//
// Example: derive the host key a deployment will serve for a host, then
// print the DNS records for it:
//
//	keytool hostkey --host=bastion.example.com --kms-seed=$SEED > bastion.pub
//	keytool sshfp --host=bastion.example.com --key-file=bastion.pub
package main
