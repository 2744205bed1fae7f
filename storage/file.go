package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ruteri/ssh-key-provisioning-backend/interfaces"
)

// FileBackend implements a key store using the local file system.
// Key blobs are stored in a directory structure organized by key role.
type FileBackend struct {
	baseDir     string
	roleDirs    map[interfaces.KeyRole]string
	log         *slog.Logger
	locationURI string
}

// NewFileBackend creates a new file key store using the specified base directory.
// It creates subdirectories for the key roles if they don't exist.
func NewFileBackend(baseDir string, log *slog.Logger) (*FileBackend, error) {
	// Ensure base directory exists
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	// Create subdirectories for the key roles
	roleDirs := map[interfaces.KeyRole]string{
		interfaces.HostKeyRole:       interfaces.HostKeyRole.String(),
		interfaces.AuthorizedKeyRole: interfaces.AuthorizedKeyRole.String(),
	}

	for _, subdir := range roleDirs {
		if err := os.MkdirAll(filepath.Join(baseDir, subdir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", subdir, err)
		}
	}

	// Format the URI for tracking
	uri := fmt.Sprintf("file://%s", baseDir)

	return &FileBackend{
		baseDir:     baseDir,
		roleDirs:    roleDirs,
		log:         log,
		locationURI: uri,
	}, nil
}

// Fetch retrieves a key blob from the file system by its fingerprint and role.
// Returns ErrKeyNotFound if the file doesn't exist.
func (b *FileBackend) Fetch(ctx context.Context, fp interfaces.Fingerprint, role interfaces.KeyRole) ([]byte, error) {
	// Get file path
	filePath := b.getFilePath(fp, role)

	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, interfaces.ErrKeyNotFound
	}

	// Read file content
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	b.log.Debug("Fetched key from file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return data, nil
}

// Store saves a key blob to the file system and returns its fingerprint.
// The fingerprint is the SHA-256 hash of the blob.
func (b *FileBackend) Store(ctx context.Context, blob []byte, role interfaces.KeyRole) (interfaces.Fingerprint, error) {
	// Generate fingerprint by hashing the blob
	fp := interfaces.ComputeFingerprint(blob)

	// Get file path
	filePath := b.getFilePath(fp, role)

	// Create parent directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fp, fmt.Errorf("failed to create directory: %w", err)
	}

	// Write blob to file
	if err := os.WriteFile(filePath, blob, 0644); err != nil {
		return fp, fmt.Errorf("failed to write file: %w", err)
	}

	b.log.Debug("Stored key in file",
		slog.String("path", filePath),
		slog.String("fingerprint", fp.Hex()))

	return fp, nil
}

// Available checks if the file backend is accessible by verifying the base directory exists.
func (b *FileBackend) Available(ctx context.Context) bool {
	_, err := os.Stat(b.baseDir)
	if err != nil {
		b.log.Debug("File backend unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this key store backend.
func (b *FileBackend) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(b.baseDir))
}

// LocationURI returns the URI that identifies this key store backend.
func (b *FileBackend) LocationURI() string {
	return b.locationURI
}

// getFilePath generates a file path for a fingerprint and role.
func (b *FileBackend) getFilePath(fp interfaces.Fingerprint, role interfaces.KeyRole) string {
	return filepath.Join(b.baseDir, b.roleDirs[role], fp.Hex())
}
