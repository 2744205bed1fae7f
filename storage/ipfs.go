package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/ruteri/ssh-key-provisioning-backend/interfaces"
)

// IPFSBackend implements a key store using the InterPlanetary File System (IPFS).
// Key blobs are kept in the node's mutable file system (MFS) under per-role
// directories so they can be fetched back by fingerprint.
type IPFSBackend struct {
	shell       *shell.Shell
	host        string
	port        string
	basePath    string
	log         *slog.Logger
	locationURI string
}

// NewIPFSBackend creates a new IPFS key store backend connected to the specified host and port.
// The basePath is the MFS directory that holds the per-role key directories.
func NewIPFSBackend(host, port, basePath, timeout string, log *slog.Logger) (*IPFSBackend, error) {
	// Construct API URL
	apiURL := fmt.Sprintf("%s:%s", host, port)

	// Normalize the MFS base path
	basePath = strings.Trim(basePath, "/")
	if basePath == "" {
		basePath = "ssh-keys"
	}

	// Format the URI for tracking
	uri := fmt.Sprintf("ipfs://%s/%s?timeout=%s", apiURL, basePath, timeout)

	return &IPFSBackend{
		shell:       shell.NewShell(apiURL),
		host:        host,
		port:        port,
		basePath:    basePath,
		log:         log,
		locationURI: uri,
	}, nil
}

// Fetch retrieves a key blob from IPFS by its fingerprint and role.
// Returns ErrKeyNotFound if the key doesn't exist or ErrBackendUnavailable
// if the IPFS node is not accessible.
func (b *IPFSBackend) Fetch(ctx context.Context, fp interfaces.Fingerprint, role interfaces.KeyRole) ([]byte, error) {
	start := time.Now()
	path := b.getKeyPath(fp, role)
	fpStr := fp.Hex()

	// Check if the IPFS node is available
	if !b.shell.IsUp() {
		b.log.Warn("IPFS node unavailable",
			slog.String("host", b.host),
			slog.String("port", b.port))
		return nil, interfaces.ErrBackendUnavailable
	}

	// Read the key file from MFS
	reader, err := b.shell.FilesRead(ctx, path)
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") || strings.Contains(err.Error(), "no link named") {
			b.log.Debug("Key not found in IPFS",
				slog.String("path", path),
				slog.String("fingerprint", fpStr),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrKeyNotFound
		}

		b.log.Error("Failed to fetch key from IPFS",
			slog.String("path", path),
			slog.String("fingerprint", fpStr),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to fetch key from IPFS: %w", err)
	}
	defer reader.Close()

	// Read data
	data, err := io.ReadAll(reader)
	if err != nil {
		b.log.Error("Failed to read key from IPFS",
			slog.String("path", path),
			slog.String("fingerprint", fpStr),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to read key from IPFS: %w", err)
	}

	b.log.Debug("Fetched key from IPFS",
		slog.String("path", path),
		slog.String("fingerprint", fpStr),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Store writes a key blob into the node's MFS and returns its fingerprint.
// The fingerprint is the SHA-256 hash of the blob.
// Returns ErrBackendUnavailable if the IPFS node is not accessible.
func (b *IPFSBackend) Store(ctx context.Context, blob []byte, role interfaces.KeyRole) (interfaces.Fingerprint, error) {
	// Generate fingerprint by hashing the blob
	fp := interfaces.ComputeFingerprint(blob)
	path := b.getKeyPath(fp, role)

	// Check if the IPFS node is available
	if !b.shell.IsUp() {
		return fp, interfaces.ErrBackendUnavailable
	}

	// Write the key file into MFS, creating parent directories as needed
	err := b.shell.FilesWrite(ctx, path, bytes.NewReader(blob),
		shell.FilesWrite.Create(true),
		shell.FilesWrite.Parents(true))
	if err != nil {
		return fp, fmt.Errorf("failed to write key to IPFS: %w", err)
	}

	b.log.Debug("Stored key in IPFS",
		slog.String("path", path),
		slog.String("fingerprint", fp.Hex()))

	return fp, nil
}

// Available checks if the IPFS node is accessible.
func (b *IPFSBackend) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

// Name returns a unique identifier for this key store backend.
func (b *IPFSBackend) Name() string {
	return fmt.Sprintf("ipfs-%s-%s", b.host, b.port)
}

// LocationURI returns the URI that identifies this key store backend.
func (b *IPFSBackend) LocationURI() string {
	return b.locationURI
}

// getKeyPath generates an MFS path based on fingerprint and role.
func (b *IPFSBackend) getKeyPath(fp interfaces.Fingerprint, role interfaces.KeyRole) string {
	return fmt.Sprintf("/%s/%s/%s", b.basePath, role.String(), fp.Hex())
}
