package storage

import (
	"path/filepath"
	"testing"

	"github.com/ruteri/ssh-key-provisioning-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLocation(t *testing.T, uri string) interfaces.StorageBackendLocation {
	t.Helper()
	location, err := interfaces.NewStorageBackendLocation(uri)
	require.NoError(t, err, "Location URI should parse: %s", uri)
	return location
}

func TestKeyStoreFactory_StoreFor(t *testing.T) {
	factory := NewKeyStoreFactory(testLogger())
	fileDir := t.TempDir()

	tests := []struct {
		name         string
		uri          string
		expectedName string
	}{
		{
			name:         "file backend",
			uri:          "file://" + fileDir,
			expectedName: "file-" + filepath.Base(fileDir),
		},
		{
			name:         "s3 backend",
			uri:          "s3://key-bucket/ssh/?region=us-west-2",
			expectedName: "s3-key-bucket",
		},
		{
			name:         "ipfs backend",
			uri:          "ipfs://ipfs.example.com:5001/ssh-keys/",
			expectedName: "ipfs-ipfs.example.com-5001",
		},
		{
			name:         "ipfs backend with default port",
			uri:          "ipfs://ipfs.example.com",
			expectedName: "ipfs-ipfs.example.com-5001",
		},
		{
			name:         "github backend",
			uri:          "github://acme/ssh-keys?ref=main",
			expectedName: "github-acme-ssh-keys",
		},
		{
			name:         "vault backend",
			uri:          "vault://vault.example.com:8200/secret/ssh-keys",
			expectedName: "vault-secret-ssh-keys",
		},
		{
			name:         "vault backend with default paths",
			uri:          "vault://vault.example.com:8200",
			expectedName: "vault-secret-ssh-keys",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := factory.StoreFor(mustLocation(t, tt.uri))
			require.NoError(t, err, "Should create backend for %s", tt.uri)
			assert.Equal(t, tt.expectedName, store.Name())
		})
	}
}

func TestKeyStoreFactory_RejectsInvalidLocations(t *testing.T) {
	factory := NewKeyStoreFactory(testLogger())

	// Unsupported schemes are rejected at parse time
	_, err := interfaces.NewStorageBackendLocation("redis://localhost:6379")
	assert.Error(t, err, "Unsupported scheme should fail to parse")

	// A github location without a repo path is rejected by the factory
	_, err = factory.StoreFor(mustLocation(t, "github://acme"))
	assert.Error(t, err, "GitHub location without repo should be rejected")

	// A file location without any path is rejected by the factory
	_, err = factory.StoreFor(interfaces.StorageBackendLocation{Raw: "file://", Scheme: "file"})
	assert.Error(t, err, "File location without path should be rejected")
}

func TestKeyStoreFactory_CreateMultiStore(t *testing.T) {
	factory := NewKeyStoreFactory(testLogger())

	// Invalid locations are skipped, valid ones aggregated
	locations := []interfaces.StorageBackendLocation{
		mustLocation(t, "file://"+t.TempDir()),
		{Raw: "github://broken", Scheme: "github"},
	}

	store, err := factory.CreateMultiStore(locations)
	require.NoError(t, err, "Should aggregate the valid backends")
	assert.Equal(t, "multi-storage", store.Name())

	// No valid locations at all is an error
	_, err = factory.CreateMultiStore([]interfaces.StorageBackendLocation{
		{Raw: "github://broken", Scheme: "github"},
	})
	assert.Error(t, err, "Multi-store with no valid backends should fail")
}
