package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ruteri/ssh-key-provisioning-backend/interfaces"
)

// GitHubBackend implements a read-only key store using GitHub's repository
// contents API. Key blobs live in the repository as files named by their
// fingerprint under per-role directories.
type GitHubBackend struct {
	owner       string
	repo        string
	ref         string
	client      *http.Client
	log         *slog.Logger
	locationURI string
}

// GitHubContent represents a repository content object from GitHub's API
type GitHubContent struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	URL      string `json:"url"`
	SHA      string `json:"sha"`
	Size     int    `json:"size"`
}

// NewGitHubBackend creates a new GitHub key store backend for reading from Git repositories.
// An empty ref uses the repository's default branch.
func NewGitHubBackend(owner, repo, ref string, log *slog.Logger) *GitHubBackend {
	uri := fmt.Sprintf("github://%s/%s", owner, repo)
	if ref != "" {
		uri += fmt.Sprintf("?ref=%s", ref)
	}

	return &GitHubBackend{
		owner:       owner,
		repo:        repo,
		ref:         ref,
		client:      &http.Client{Timeout: 30 * time.Second},
		log:         log,
		locationURI: uri,
	}
}

// Fetch retrieves a key blob from GitHub using the fingerprint as the file name.
func (b *GitHubBackend) Fetch(ctx context.Context, fp interfaces.Fingerprint, role interfaces.KeyRole) ([]byte, error) {
	// Fetch the file from the per-role directory
	content, err := b.fetchContent(ctx, fmt.Sprintf("%s/%s", role.String(), fp.Hex()))
	if err != nil {
		return nil, err
	}

	// Decode the content
	if content.Encoding != "base64" {
		return nil, fmt.Errorf("unexpected content encoding: %s", content.Encoding)
	}

	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to decode file content: %w", err)
	}

	// Verify the blob hash matches what we requested
	actual := interfaces.ComputeFingerprint(data)
	if !actual.Equal(fp) {
		b.log.Warn("Key fingerprint mismatch",
			slog.String("expected", fp.Hex()),
			slog.String("actual", actual.Hex()))
		return nil, fmt.Errorf("key fingerprint mismatch")
	}

	b.log.Debug("Fetched key from GitHub",
		slog.String("fingerprint", fp.Hex()),
		slog.Int("size", len(data)))

	return data, nil
}

// Store is not implemented for this read-only backend.
func (b *GitHubBackend) Store(ctx context.Context, blob []byte, role interfaces.KeyRole) (interfaces.Fingerprint, error) {
	// Calculate the fingerprint for compatibility with the interface
	fp := interfaces.ComputeFingerprint(blob)

	return fp, fmt.Errorf("GitHub backend is read-only")
}

// Available checks if the GitHub backend is accessible.
func (b *GitHubBackend) Available(ctx context.Context) bool {
	// Try to access the repository
	url := fmt.Sprintf("https://api.github.com/repos/%s/%s", b.owner, b.repo)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		b.log.Debug("Failed to create request", "err", err)
		return false
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := b.client.Do(req)
	if err != nil {
		b.log.Debug("GitHub backend unavailable", "err", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		b.log.Debug("GitHub backend unavailable",
			slog.String("status", resp.Status))
		return false
	}

	return true
}

// Name returns a unique identifier for this key store backend.
func (b *GitHubBackend) Name() string {
	return fmt.Sprintf("github-%s-%s", b.owner, b.repo)
}

// LocationURI returns the URI that identifies this key store backend.
func (b *GitHubBackend) LocationURI() string {
	return b.locationURI
}

// fetchContent fetches a repository file by its path.
func (b *GitHubBackend) fetchContent(ctx context.Context, filePath string) (*GitHubContent, error) {
	url := fmt.Sprintf("https://api.github.com/repos/%s/%s/contents/%s",
		b.owner, b.repo, filePath)
	if b.ref != "" {
		url += fmt.Sprintf("?ref=%s", b.ref)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 404 {
		return nil, interfaces.ErrKeyNotFound
	}

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GitHub API error: %s, %s", resp.Status, string(body))
	}

	var content GitHubContent
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	return &content, nil
}
