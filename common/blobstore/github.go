package blobstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
)

// Ensure GitHubStore implements Store interface
var _ Store = (*GitHubStore)(nil)

// Logger interface for store logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// GitHubConfig selects the repository and branch blobs live in
type GitHubConfig struct {
	Owner  string
	Repo   string
	Branch string
	Token  string
	// APIURL overrides https://api.github.com/ (GitHub Enterprise, tests)
	APIURL string
}

// GitHubStore implements Store on top of the GitHub contents API.
// Every write is a commit on the configured branch; the blob "sha" is the
// optimistic concurrency token.
type GitHubStore struct {
	client *github.Client
	owner  string
	repo   string
	branch string
	logger Logger
}

// NewGitHubStore creates a store for the configured repository
func NewGitHubStore(cfg GitHubConfig, httpClient *http.Client, logger Logger) (*GitHubStore, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("github owner and repo are required")
	}

	client := github.NewClient(httpClient)
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}

	if cfg.APIURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(cfg.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}
		client.BaseURL = baseURL
	}

	branch := cfg.Branch
	if branch == "" {
		branch = "main"
	}

	return &GitHubStore{
		client: client,
		owner:  cfg.Owner,
		repo:   cfg.Repo,
		branch: branch,
		logger: logger,
	}, nil
}

// Get fetches a file and its blob sha
func (s *GitHubStore) Get(ctx context.Context, p string) (*Blob, error) {
	start := time.Now()
	file, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, p, s.ref())
	if err != nil {
		return nil, s.translate("get", p, "", err)
	}
	if file == nil {
		// path names a directory
		return nil, &NotFoundError{Path: p}
	}

	content, err := s.decode(ctx, file)
	if err != nil {
		return nil, s.translate("get", p, "", err)
	}

	s.logger.Debug("github GET contents",
		"path", p,
		"sha", file.GetSHA(),
		"size", len(content),
		"duration_ms", time.Since(start).Milliseconds())

	return &Blob{
		Path:    file.GetPath(),
		Content: content,
		Hash:    file.GetSHA(),
	}, nil
}

// Put commits content at path. An empty expectedHash creates the file.
func (s *GitHubStore) Put(ctx context.Context, p string, content []byte, expectedHash, message string) (string, error) {
	start := time.Now()
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
		Branch:  github.String(s.branch),
	}

	var (
		res *github.RepositoryContentResponse
		err error
	)
	if expectedHash == "" {
		res, _, err = s.client.Repositories.CreateFile(ctx, s.owner, s.repo, p, opts)
	} else {
		opts.SHA = github.String(expectedHash)
		res, _, err = s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, p, opts)
	}
	if err != nil {
		return "", s.translate("put", p, expectedHash, err)
	}

	newHash := ""
	if res != nil && res.Content != nil {
		newHash = res.Content.GetSHA()
	}
	if newHash == "" {
		newHash = GitBlobHash(content)
	}

	s.logger.Debug("github PUT contents",
		"path", p,
		"expected_sha", expectedHash,
		"sha", newHash,
		"duration_ms", time.Since(start).Milliseconds())

	return newHash, nil
}

// Delete removes the file at path
func (s *GitHubStore) Delete(ctx context.Context, p, expectedHash, message string) error {
	start := time.Now()
	_, _, err := s.client.Repositories.DeleteFile(ctx, s.owner, s.repo, p, &github.RepositoryContentFileOptions{
		Message: github.String(message),
		SHA:     github.String(expectedHash),
		Branch:  github.String(s.branch),
	})
	if err != nil {
		return s.translate("delete", p, expectedHash, err)
	}

	s.logger.Debug("github DELETE contents",
		"path", p,
		"sha", expectedHash,
		"duration_ms", time.Since(start).Milliseconds())

	return nil
}

// List returns one level of the directory at dir.
// The contents API truncates listings at 1000 entries.
func (s *GitHubStore) List(ctx context.Context, dir string) ([]Entry, error) {
	start := time.Now()
	file, items, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, dir, s.ref())
	if err != nil {
		return nil, s.translate("list", dir, "", err)
	}
	if file != nil {
		return nil, fmt.Errorf("list %s: path is a file, not a directory: %w", dir, &NotFoundError{Path: dir})
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, Entry{
			Name: item.GetName(),
			Path: item.GetPath(),
			Type: item.GetType(),
			Hash: item.GetSHA(),
		})
	}

	s.logger.Debug("github LIST contents",
		"path", dir,
		"entries", len(entries),
		"duration_ms", time.Since(start).Milliseconds())

	return entries, nil
}

func (s *GitHubStore) ref() *github.RepositoryContentGetOptions {
	return &github.RepositoryContentGetOptions{Ref: s.branch}
}

// decode returns file bytes. Files over 1 MB (large inline logos) come back
// with encoding "none" and must be fetched through the git blobs API.
func (s *GitHubStore) decode(ctx context.Context, file *github.RepositoryContent) ([]byte, error) {
	if file.GetEncoding() == "none" {
		raw, _, err := s.client.Git.GetBlobRaw(ctx, s.owner, s.repo, file.GetSHA())
		if err != nil {
			return nil, err
		}
		return raw, nil
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", file.GetPath(), err)
	}
	return []byte(content), nil
}

// translate maps GitHub API failures onto the store's error taxonomy
func (s *GitHubStore) translate(op, p, expectedHash string, err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		s.logger.Warn("github rate limit hit", "op", op, "path", p, "reset", rateErr.Rate.Reset.Time)
		return unavailable(op, p, err)
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		status := ghErr.Response.StatusCode
		switch {
		case status == http.StatusNotFound:
			return &NotFoundError{Path: p}
		case status == http.StatusConflict:
			return &ConflictError{Path: p, ExpectedHash: expectedHash, Reason: ghErr.Message}
		case status == http.StatusUnprocessableEntity && strings.Contains(ghErr.Message, "sha"):
			return &ConflictError{Path: p, ExpectedHash: expectedHash, Reason: ghErr.Message}
		case status == http.StatusUnprocessableEntity:
			return fmt.Errorf("%s %s rejected: %s", op, p, ghErr.Message)
		}
	}

	s.logger.Warn("github request failed", "op", op, "path", p, "error", err)
	return unavailable(op, p, err)
}
