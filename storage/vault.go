package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/ruteri/ssh-key-provisioning-backend/interfaces"
)

// VaultBackend implements a key store using HashiCorp Vault.
// Key blobs are kept in the KV v2 secret engine, namespaced by key role.
type VaultBackend struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultBackend creates a new Vault key store backend with token authentication.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: Vault mount path (e.g. "secret")
//   - dataPath: Path within the mount (e.g. "ssh-keys")
//   - token: Vault token used for authentication
//   - log: Structured logger for operational insights
func NewVaultBackend(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultBackend, error) {
	// Create Vault config
	config := api.DefaultConfig()
	config.Address = address
	config.Timeout = 30 * time.Second

	// Create Vault client
	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}

	if token != "" {
		client.SetToken(token)
	}

	// Ensure paths are properly formatted
	mountPath = strings.TrimSuffix(mountPath, "/")
	dataPath = strings.TrimPrefix(dataPath, "/")
	dataPath = strings.TrimSuffix(dataPath, "/")

	return &VaultBackend{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", address, mountPath, dataPath),
	}, nil
}

// Fetch retrieves a key blob from Vault by its fingerprint and role.
// It uses the KV v2 API which requires a specific path structure.
func (b *VaultBackend) Fetch(ctx context.Context, fp interfaces.Fingerprint, role interfaces.KeyRole) ([]byte, error) {
	start := time.Now()
	fpStr := fp.Hex()

	path, err := b.keyPath(fp, role)
	if err != nil {
		return nil, err
	}

	// Read from Vault
	secret, err := b.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		b.log.Error("Failed to read from Vault",
			slog.String("path", path),
			slog.String("fingerprint", fpStr),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	if secret == nil || secret.Data == nil {
		b.log.Debug("Key not found in Vault",
			slog.String("path", path),
			slog.String("fingerprint", fpStr))
		return nil, interfaces.ErrKeyNotFound
	}

	// Extract data from the response (KV v2 format)
	data, ok := secret.Data["data"]
	if !ok {
		b.log.Error("Invalid data format in Vault response",
			slog.String("path", path),
			slog.String("fingerprint", fpStr))
		return nil, fmt.Errorf("invalid data format in Vault response")
	}

	// Extract key blob from the data map
	blob, ok := data.(map[string]interface{})["blob"]
	if !ok {
		b.log.Error("Blob key not found in Vault data",
			slog.String("path", path),
			slog.String("fingerprint", fpStr))
		return nil, fmt.Errorf("blob key not found in Vault data")
	}

	// Convert blob to string and then to bytes
	blobStr, ok := blob.(string)
	if !ok {
		b.log.Error("Invalid blob format in Vault data",
			slog.String("path", path),
			slog.String("fingerprint", fpStr))
		return nil, fmt.Errorf("invalid blob format in Vault data")
	}

	b.log.Info("Successfully fetched key from Vault",
		slog.String("fingerprint", fpStr),
		slog.Duration("duration", time.Since(start)))

	return []byte(blobStr), nil
}

// Store saves a key blob to Vault and returns its fingerprint.
// The fingerprint is the SHA-256 hash of the blob.
func (b *VaultBackend) Store(ctx context.Context, blob []byte, role interfaces.KeyRole) (interfaces.Fingerprint, error) {
	start := time.Now()

	// Calculate fingerprint (SHA-256 hash)
	fp := interfaces.ComputeFingerprint(blob)
	fpStr := fp.Hex()

	path, err := b.keyPath(fp, role)
	if err != nil {
		return fp, err
	}

	// Prepare data for Vault (KV v2 format)
	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"blob": string(blob),
		},
	}

	// Write to Vault
	_, err = b.client.Logical().WriteWithContext(ctx, path, secretData)
	if err != nil {
		b.log.Error("Failed to write to Vault",
			slog.String("path", path),
			slog.String("fingerprint", fpStr),
			"err", err)
		return fp, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Info("Successfully stored key in Vault",
		slog.String("fingerprint", fpStr),
		slog.Duration("duration", time.Since(start)))

	return fp, nil
}

// Available checks if the Vault backend is accessible.
// It uses the health endpoint to verify that Vault is initialized and unsealed.
func (b *VaultBackend) Available(ctx context.Context) bool {
	// Check if we can access the Vault server
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := b.client.Sys().HealthWithContext(healthCtx)
	if err != nil {
		b.log.Debug("Vault health check failed", "err", err)
		return false
	}

	// Check if Vault is initialized and unsealed
	if !health.Initialized || health.Sealed {
		b.log.Debug("Vault is not available",
			slog.Bool("initialized", health.Initialized),
			slog.Bool("sealed", health.Sealed))
		return false
	}

	return true
}

// Name returns a unique identifier for this key store backend.
func (b *VaultBackend) Name() string {
	return fmt.Sprintf("vault-%s-%s", b.mountPath, b.dataPath)
}

// LocationURI returns the URI that identifies this key store backend.
func (b *VaultBackend) LocationURI() string {
	return b.locationURI
}

// keyPath generates a Vault KV v2 path based on fingerprint and role.
func (b *VaultBackend) keyPath(fp interfaces.Fingerprint, role interfaces.KeyRole) (string, error) {
	switch role {
	case interfaces.HostKeyRole, interfaces.AuthorizedKeyRole:
	default:
		return "", fmt.Errorf("unsupported key role: %v", role)
	}

	return fmt.Sprintf("%s/data/%s/%s/%s", b.mountPath, b.dataPath, role.String(), fp.Hex()), nil
}
