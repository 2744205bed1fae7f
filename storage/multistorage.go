package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/ssh-key-provisioning-backend/interfaces"
)

// MultiKeyStore implements interfaces.KeyStore using multiple backends with fallback.
// Reads try each backend in order, writes replicate to all available backends.
type MultiKeyStore struct {
	backends []interfaces.KeyStore
	log      *slog.Logger
}

// NewMultiKeyStore creates a new multi-backend key store with fallback
func NewMultiKeyStore(backends []interfaces.KeyStore, logger *slog.Logger) *MultiKeyStore {
	// If no logger is provided, create a default one
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiKeyStore{
		backends: backends,
		log:      logger,
	}
}

// Fetch tries each available backend in order and returns the first blob whose
// recomputed fingerprint matches the requested one. Backends serving corrupted
// data are skipped.
func (m *MultiKeyStore) Fetch(ctx context.Context, fp interfaces.Fingerprint, role interfaces.KeyRole) ([]byte, error) {
	start := time.Now()
	var errs []error
	fpStr := fp.Hex()

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable",
				slog.String("backend_name", backend.Name()),
				slog.String("fingerprint", fpStr))
			continue
		}

		data, err := backend.Fetch(ctx, fp, role)
		if err == nil {
			if actual := interfaces.ComputeFingerprint(data); !actual.Equal(fp) {
				errs = append(errs, fmt.Errorf("%s: fingerprint mismatch", backend.Name()))
				m.log.Warn("Backend returned blob with mismatched fingerprint",
					slog.String("backend_name", backend.Name()),
					slog.String("expected", fpStr),
					slog.String("actual", actual.Hex()))
				continue
			}

			m.log.Info("Successfully fetched key",
				slog.String("backend_name", backend.Name()),
				slog.String("fingerprint", fpStr),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		m.log.Debug("Failed to fetch from backend",
			slog.String("backend_name", backend.Name()),
			slog.String("fingerprint", fpStr),
			"err", err)
	}

	m.log.Error("All backends failed to fetch key",
		slog.String("fingerprint", fpStr),
		slog.Int("failed_backends", len(errs)),
		slog.Duration("duration", time.Since(start)))

	return nil, fmt.Errorf("all backends failed to fetch %s: %v", fpStr, errs)
}

// Store saves a key blob to all available backends
func (m *MultiKeyStore) Store(ctx context.Context, blob []byte, role interfaces.KeyRole) (interfaces.Fingerprint, error) {
	start := time.Now()
	var result interfaces.Fingerprint
	var success bool
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable", slog.String("backend_name", backend.Name()))
			continue
		}

		fp, err := backend.Store(ctx, blob, role)
		if err == nil {
			if !success {
				result = fp
				success = true
				m.log.Info("Successfully stored key",
					slog.String("backend_name", backend.Name()),
					slog.String("fingerprint", fp.Hex()),
					slog.Duration("duration", time.Since(start)))
			} else if !result.Equal(fp) {
				// This should not happen - same blob should produce same hash
				m.log.Warn("Inconsistent fingerprints from backends",
					slog.String("backend_name", backend.Name()),
					slog.String("expected", result.Hex()),
					slog.String("actual", fp.Hex()))
			}
		} else {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Debug("Failed to store to backend",
				slog.String("backend_name", backend.Name()),
				"err", err)
		}
	}

	if !success {
		m.log.Error("All backends failed to store key",
			slog.Int("failed_backends", len(errs)),
			slog.Duration("duration", time.Since(start)))
		return result, fmt.Errorf("all backends failed to store key: %v", errs)
	}

	return result, nil
}

// Available checks if any backend is available
func (m *MultiKeyStore) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns the name of this backend
func (m *MultiKeyStore) Name() string {
	return "multi-storage"
}

// LocationURI returns the combined URI of all aggregated backends
func (m *MultiKeyStore) LocationURI() string {
	var locations []string
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}

	return "multi:[" + strings.Join(locations, ",") + "]"
}
