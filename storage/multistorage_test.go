package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/ruteri/ssh-key-provisioning-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockKeyStore implements interfaces.KeyStore for testing
type MockKeyStore struct {
	mock.Mock
	name string
}

func (m *MockKeyStore) Fetch(ctx context.Context, fp interfaces.Fingerprint, role interfaces.KeyRole) ([]byte, error) {
	args := m.Called(ctx, fp, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockKeyStore) Store(ctx context.Context, blob []byte, role interfaces.KeyRole) (interfaces.Fingerprint, error) {
	args := m.Called(ctx, blob, role)
	return args.Get(0).(interfaces.Fingerprint), args.Error(1)
}

func (m *MockKeyStore) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockKeyStore) Name() string {
	return m.name
}

func (m *MockKeyStore) LocationURI() string {
	return "mock:"
}

func TestMultiKeyStore_Available(t *testing.T) {
	// Create test cases
	tests := []struct {
		name     string
		backends []bool
		expected bool
	}{
		{
			name:     "all backends available",
			backends: []bool{true, true, true},
			expected: true,
		},
		{
			name:     "some backends available",
			backends: []bool{false, true, false},
			expected: true,
		},
		{
			name:     "no backends available",
			backends: []bool{false, false, false},
			expected: false,
		},
		{
			name:     "no backends",
			backends: []bool{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create mock backends
			var backends []interfaces.KeyStore
			for i, available := range tt.backends {
				mockStore := &MockKeyStore{name: fmt.Sprintf("mock-A%x", i)}
				mockStore.On("Available", mock.Anything).Return(available).Maybe()
				backends = append(backends, mockStore)
			}

			// Create multi-backend key store
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			multi := NewMultiKeyStore(backends, logger)

			// Check availability
			result := multi.Available(context.Background())
			assert.Equal(t, tt.expected, result)

			// Verify all mocks were called
			for _, backend := range backends {
				mockStore := backend.(*MockKeyStore)
				mockStore.AssertExpectations(t)
			}
		})
	}
}

func TestMultiKeyStore_Fetch(t *testing.T) {
	// Test data with a fingerprint matching the blob
	testBlob := []byte("test key blob")
	testFP := interfaces.ComputeFingerprint(testBlob)
	testErr := errors.New("test error")

	// Create test cases
	tests := []struct {
		name          string
		setupMocks    func() []interfaces.KeyStore
		expectedData  []byte
		expectedError bool
	}{
		{
			name: "first backend successful",
			setupMocks: func() []interfaces.KeyStore {
				mock1 := &MockKeyStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Fetch", mock.Anything, testFP, interfaces.HostKeyRole).Return(testBlob, nil)

				mock2 := &MockKeyStore{name: "mock-B"}
				// This mock should not be called as the first one succeeds

				return []interfaces.KeyStore{mock1, mock2}
			},
			expectedData:  testBlob,
			expectedError: false,
		},
		{
			name: "first backend fails, second succeeds",
			setupMocks: func() []interfaces.KeyStore {
				mock1 := &MockKeyStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Fetch", mock.Anything, testFP, interfaces.HostKeyRole).Return(nil, testErr)

				mock2 := &MockKeyStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Fetch", mock.Anything, testFP, interfaces.HostKeyRole).Return(testBlob, nil)

				return []interfaces.KeyStore{mock1, mock2}
			},
			expectedData:  testBlob,
			expectedError: false,
		},
		{
			name: "corrupted blob is skipped, second succeeds",
			setupMocks: func() []interfaces.KeyStore {
				mock1 := &MockKeyStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Fetch", mock.Anything, testFP, interfaces.HostKeyRole).Return([]byte("corrupted"), nil)

				mock2 := &MockKeyStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Fetch", mock.Anything, testFP, interfaces.HostKeyRole).Return(testBlob, nil)

				return []interfaces.KeyStore{mock1, mock2}
			},
			expectedData:  testBlob,
			expectedError: false,
		},
		{
			name: "all backends fail",
			setupMocks: func() []interfaces.KeyStore {
				mock1 := &MockKeyStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Fetch", mock.Anything, testFP, interfaces.HostKeyRole).Return(nil, testErr)

				mock2 := &MockKeyStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Fetch", mock.Anything, testFP, interfaces.HostKeyRole).Return(nil, testErr)

				return []interfaces.KeyStore{mock1, mock2}
			},
			expectedData:  nil,
			expectedError: true,
		},
		{
			name: "unavailable backends are skipped",
			setupMocks: func() []interfaces.KeyStore {
				mock1 := &MockKeyStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(false)
				// Fetch should not be called

				mock2 := &MockKeyStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Fetch", mock.Anything, testFP, interfaces.HostKeyRole).Return(testBlob, nil)

				return []interfaces.KeyStore{mock1, mock2}
			},
			expectedData:  testBlob,
			expectedError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			backends := tt.setupMocks()
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			multi := NewMultiKeyStore(backends, logger)

			// Execute
			data, err := multi.Fetch(context.Background(), testFP, interfaces.HostKeyRole)

			// Verify
			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedData, data)

			// Verify all mocks were called correctly
			for _, backend := range backends {
				mock := backend.(*MockKeyStore)
				mock.AssertExpectations(t)
			}
		})
	}
}

func TestMultiKeyStore_Store(t *testing.T) {
	// Test data with a fingerprint matching the blob
	testBlob := []byte("test key blob")
	testFP := interfaces.ComputeFingerprint(testBlob)
	testErr := errors.New("test error")

	// Create test cases
	tests := []struct {
		name          string
		setupMocks    func() []interfaces.KeyStore
		expectedFP    interfaces.Fingerprint
		expectedError bool
	}{
		{
			name: "all backends successful",
			setupMocks: func() []interfaces.KeyStore {
				mock1 := &MockKeyStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Store", mock.Anything, testBlob, interfaces.AuthorizedKeyRole).Return(testFP, nil)

				mock2 := &MockKeyStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Store", mock.Anything, testBlob, interfaces.AuthorizedKeyRole).Return(testFP, nil)

				return []interfaces.KeyStore{mock1, mock2}
			},
			expectedFP:    testFP,
			expectedError: false,
		},
		{
			name: "some backends fail",
			setupMocks: func() []interfaces.KeyStore {
				mock1 := &MockKeyStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Store", mock.Anything, testBlob, interfaces.AuthorizedKeyRole).Return(testFP, nil)

				mock2 := &MockKeyStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Store", mock.Anything, testBlob, interfaces.AuthorizedKeyRole).Return(interfaces.Fingerprint{}, testErr)

				return []interfaces.KeyStore{mock1, mock2}
			},
			expectedFP:    testFP,
			expectedError: false,
		},
		{
			name: "all backends fail",
			setupMocks: func() []interfaces.KeyStore {
				mock1 := &MockKeyStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Store", mock.Anything, testBlob, interfaces.AuthorizedKeyRole).Return(interfaces.Fingerprint{}, testErr)

				mock2 := &MockKeyStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Store", mock.Anything, testBlob, interfaces.AuthorizedKeyRole).Return(interfaces.Fingerprint{}, testErr)

				return []interfaces.KeyStore{mock1, mock2}
			},
			expectedFP:    interfaces.Fingerprint{},
			expectedError: true,
		},
		{
			name: "unavailable backends are skipped",
			setupMocks: func() []interfaces.KeyStore {
				mock1 := &MockKeyStore{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(false)
				// Store should not be called

				mock2 := &MockKeyStore{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Store", mock.Anything, testBlob, interfaces.AuthorizedKeyRole).Return(testFP, nil)

				return []interfaces.KeyStore{mock1, mock2}
			},
			expectedFP:    testFP,
			expectedError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			backends := tt.setupMocks()
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			multi := NewMultiKeyStore(backends, logger)

			// Execute
			fp, err := multi.Store(context.Background(), testBlob, interfaces.AuthorizedKeyRole)

			// Verify
			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedFP, fp)

			// Verify all mocks were called correctly
			for _, backend := range backends {
				mock := backend.(*MockKeyStore)
				mock.AssertExpectations(t)
			}
		})
	}
}
