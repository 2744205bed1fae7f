// Package sshfp generates and verifies SSHFP DNS records (RFC 4255,
// RFC 6594) for provisioned host keys.
//
// SSHFP records let SSH clients with VerifyHostKeyDNS enabled validate a
// host key through DNS instead of trust-on-first-use prompts. For each
// host key this package emits two records, one per fingerprint type:
//
//	host.example.com. 3600 IN SSHFP 3 1 <hex sha1 of wire blob>
//	host.example.com. 3600 IN SSHFP 3 2 <hex sha256 of wire blob>
//
// Algorithm number 3 covers ECDSA keys per RFC 6594. Fingerprints are
// computed over the SSH wire blob of the public key, the same bytes
// ssh-keygen hashes when printing fingerprints.
//
// # Publication Workflow
//
// 1. Derive or fetch the host's public key
// 2. Render the records with Zone and add them to the host's DNS zone
// 3. Confirm propagation with VerifyPublished against a public resolver
//
// # Usage Example
//
//	pub, err := kms.HostPublicKey(host, sshkeys.CurveNISTP256)
//	if err != nil {
//		log.Fatalf("Failed to derive host key: %v", err)
//	}
//
//	fragment, err := sshfp.Zone(host, pub)
//	if err != nil {
//		log.Fatalf("Failed to render records: %v", err)
//	}
//	fmt.Print(fragment)
//
//	// After the zone change propagates
//	ok, err := sshfp.VerifyPublished(host, pub, "8.8.8.8:53")
package sshfp
