/*
Package clients provides client libraries for the host key service API.

Two clients cover the two API surfaces: KeyServiceClient speaks to the
host key routes, AdminClient drives the KMS bootstrap ceremony. Both wrap
an http.Client with a configurable timeout and return wrapped errors that
carry the server's response text.

# KeyServiceClient Features

KeyServiceClient provides typed access to the key routes:

  - HostKey - Fetch a host's public key with blob and fingerprint
  - KnownHosts - Fetch a known_hosts line for a host
  - SSHFP - Fetch SSHFP records as a zone-file fragment
  - Verify - Check a signature against a host's public key
  - StoredKey - Fetch a stored authorized key by fingerprint
  - Sign - Sign data with a host's derived key (admin listener)
  - UploadKey - Store an authorized key (admin listener)

# AdminClient Features

AdminClient handles the bootstrap ceremony for one administrator:

  - GetStatus - Query current bootstrap status
  - InitGenerate - Start master seed generation
  - GetShare - Retrieve and decrypt the admin's assigned share
  - InitRecover - Initiate recovery mode
  - SubmitShare - Sign and submit a share during recovery
  - WaitForCompletion - Poll until bootstrap completes

# Security Model

Admin requests are authenticated with the path+body signature convention:
the client signs the SHA-256 digest of the request path concatenated with
the body using the admin's ECDSA private key, and sends the signature in
the admin headers. Shares travel encrypted to the admin's public key and
are decrypted locally; submitted shares carry their own signature proving
the submitting admin holds the key from the whitelist.

# Example Usage

	// Fetch a known_hosts line from the public API
	keyClient := clients.NewKeyServiceClient("https://keys.example.com")
	host, _ := interfaces.NewHostName("bastion.example.com")
	line, err := keyClient.KnownHosts(host, sshkeys.CurveNISTP256)

	// Drive the bootstrap ceremony as admin-1
	adminClient := clients.NewAdminClient(
	    "https://keys.example.com:8081",
	    "admin-1",
	    privateKey,
	    30*time.Second,
	)
	status, err := adminClient.GetStatus()
	shareIndex, share, err := adminClient.GetShare()
*/
package clients
