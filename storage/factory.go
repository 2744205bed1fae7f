package storage

import (
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/ruteri/ssh-key-provisioning-backend/interfaces"
)

// KeyStoreFactory creates key store backends from parsed location URIs and
// manages multi-backend configurations for redundant storage.
type KeyStoreFactory struct {
	log *slog.Logger
}

var _ interfaces.KeyStoreFactory = (*KeyStoreFactory)(nil)

// NewKeyStoreFactory creates a new factory instance that can create key store backends.
func NewKeyStoreFactory(logger *slog.Logger) *KeyStoreFactory {
	return &KeyStoreFactory{
		log: logger,
	}
}

// StoreFor creates a key store backend from a storage location.
// The URI format should be [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - file:// - Local filesystem storage
//   - s3:// - Amazon S3 or compatible object storage
//   - ipfs:// - IPFS distributed storage via the node's mutable file system
//   - github:// - Read-only storage using GitHub's repository contents API
//   - vault:// - HashiCorp Vault KV v2 secret engine
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (sf *KeyStoreFactory) StoreFor(location interfaces.StorageBackendLocation) (interfaces.KeyStore, error) {
	// Create the appropriate backend type based on the scheme
	switch strings.ToLower(location.Scheme) {
	case "github":
		return sf.createGitHubBackend(location)
	case "ipfs":
		return sf.createIPFSBackend(location)
	case "s3":
		return sf.createS3Backend(location)
	case "file":
		return sf.createFileBackend(location)
	case "vault":
		return sf.createVaultBackend(location)
	default:
		return nil, fmt.Errorf("%w: unsupported backend scheme: %s", interfaces.ErrInvalidLocationURI, location.Scheme)
	}
}

// CreateMultiStore creates a multi-backend key store from a list of locations.
// The multi-store aggregates all valid backends, providing redundancy for storage operations.
// It will store keys to all available backends and fetch from the first one that has the key.
// Returns an error if no valid backends could be created from the provided locations.
func (sf *KeyStoreFactory) CreateMultiStore(locations []interfaces.StorageBackendLocation) (interfaces.KeyStore, error) {
	backends := make([]interfaces.KeyStore, 0, len(locations))

	for _, location := range locations {
		backend, err := sf.StoreFor(location)
		if err != nil {
			sf.log.Warn("Failed to create key store backend",
				"err", err,
				slog.String("locationURI", location.String()))
			continue
		}
		backends = append(backends, backend)
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("no valid key store backends created")
	}

	return NewMultiKeyStore(backends, sf.log), nil
}

// createGitHubBackend creates a read-only GitHub key store backend.
// URI format: github://owner/repo[?ref=branch]
// Key blobs are expected as repository files named by fingerprint under per-role directories.
func (sf *KeyStoreFactory) createGitHubBackend(location interfaces.StorageBackendLocation) (interfaces.KeyStore, error) {
	sf.log.Debug("Creating GitHub backend", slog.String("uri", location.String()))

	// Owner comes from the host part, repo from the path
	owner := location.Host
	repo := strings.Trim(location.Path, "/")

	if owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("invalid GitHub URI format, expected github://owner/repo")
	}

	// Create the backend
	return NewGitHubBackend(owner, repo, location.GetParam("ref"), sf.log), nil
}

// createIPFSBackend creates an IPFS key store backend.
// URI format: ipfs://host:port/base-path/?timeout=30s
// The path selects the MFS directory holding the key directories.
func (sf *KeyStoreFactory) createIPFSBackend(location interfaces.StorageBackendLocation) (interfaces.KeyStore, error) {
	sf.log.Debug("Creating IPFS backend", slog.String("uri", location.String()))

	// Parse host and port
	host := location.Host
	port := ""
	if h, p, err := net.SplitHostPort(location.Host); err == nil {
		host, port = h, p
	}
	if port == "" {
		port = "5001" // Default IPFS API port
	}

	// Parse timeout
	timeout := location.GetParam("timeout")
	if timeout == "" {
		timeout = "30s" // Default timeout
	}

	// Create the backend
	return NewIPFSBackend(host, port, location.Path, timeout, sf.log)
}

// createS3Backend creates an S3 or S3-compatible key store backend.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/path/?region=us-west-2&endpoint=custom.s3.com
// The backend supports both public buckets (read-only) and authenticated access.
func (sf *KeyStoreFactory) createS3Backend(location interfaces.StorageBackendLocation) (interfaces.KeyStore, error) {
	sf.log.Debug("Creating S3 backend", slog.String("uri", location.String()))

	// Get bucket name
	bucketName := location.Host

	// Parse path - remove leading slash
	path := strings.TrimPrefix(location.Path, "/")

	// Parse region and endpoint
	region := location.GetParam("region")
	if region == "" {
		region = "us-east-1" // Default region
	}

	endpoint := location.GetParam("endpoint")

	// Parse credentials
	var accessKey, secretKey string
	if location.Auth != "" {
		accessKey, secretKey, _ = strings.Cut(location.Auth, ":")
		sf.log.Debug("Using embedded credentials for write access")
	} else {
		sf.log.Debug("No credentials provided, S3 bucket assumed to be public, write operations may fail")
	}

	// Create the backend
	return NewS3Backend(bucketName, path, region, endpoint, accessKey, secretKey, sf.log)
}

// createVaultBackend creates a HashiCorp Vault key store backend.
// URI format: vault://[TOKEN@]host:port/mount/data-path[?insecure=true]
// The insecure parameter switches the Vault address from https to http.
func (sf *KeyStoreFactory) createVaultBackend(location interfaces.StorageBackendLocation) (interfaces.KeyStore, error) {
	sf.log.Debug("Creating Vault backend", slog.String("uri", location.String()))

	if location.Host == "" {
		return nil, fmt.Errorf("invalid Vault URI format, expected vault://host:port/mount/path")
	}

	scheme := "https"
	if location.GetParamBool("insecure") {
		scheme = "http"
	}
	address := fmt.Sprintf("%s://%s", scheme, location.Host)

	// Split the path into mount and data path
	mountPath := "secret"
	dataPath := "ssh-keys"
	if trimmed := strings.Trim(location.Path, "/"); trimmed != "" {
		if mount, rest, found := strings.Cut(trimmed, "/"); found {
			mountPath, dataPath = mount, rest
		} else {
			mountPath = mount
		}
	}

	// The token may be embedded in the URI or supplied via a query parameter
	token := location.Auth
	if token == "" {
		token = location.GetParam("token")
	}

	// Create the backend
	return NewVaultBackend(address, mountPath, dataPath, token, sf.log)
}

// createFileBackend creates a file system key store backend.
// URI format: file:///absolute/path/ or file://./relative/path/
// The backend stores key blobs in a directory structure organized by key role.
func (sf *KeyStoreFactory) createFileBackend(location interfaces.StorageBackendLocation) (interfaces.KeyStore, error) {
	sf.log.Debug("Creating file backend", slog.String("uri", location.String()))

	// Get the path, handling relative vs absolute paths
	path := location.Path
	if location.Host != "" {
		// Handle Windows-style paths like file://C:/path
		if strings.HasPrefix(location.Host, "C:") || strings.HasPrefix(location.Host, "D:") {
			path = location.Host + path
		} else {
			path = location.Host + "/" + strings.TrimPrefix(path, "/")
		}
	}

	// Make sure path is not empty
	if path == "" {
		return nil, fmt.Errorf("empty path in file URI: %s", location.String())
	}

	// Create the backend
	return NewFileBackend(path, sf.log)
}
