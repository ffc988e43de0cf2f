// Package blobstoretest provides test doubles for blobstore.Store.
package blobstoretest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"

	"github.com/stationprofiles/station-sync/common/blobstore"
)

// FakeGitHub serves the subset of the GitHub contents API that
// blobstore.GitHubStore uses, backed by a MemoryStore.
type FakeGitHub struct {
	Server *httptest.Server
	Store  *blobstore.MemoryStore
	Owner  string
	Repo   string

	mu       sync.Mutex
	commits  []Commit
	failNext int
}

// Commit records one write received by the fake
type Commit struct {
	Method  string
	Path    string
	Message string
	Branch  string
}

type fileOptions struct {
	Message string `json:"message"`
	Content []byte `json:"content"`
	SHA     string `json:"sha"`
	Branch  string `json:"branch"`
}

// NewFakeGitHub starts a fake API server; callers must Close it
func NewFakeGitHub(owner, repo string) *FakeGitHub {
	f := &FakeGitHub{
		Store: blobstore.NewMemoryStore(),
		Owner: owner,
		Repo:  repo,
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

// URL is the API base URL to configure the client with
func (f *FakeGitHub) URL() string {
	return f.Server.URL + "/"
}

// Close shuts the server down
func (f *FakeGitHub) Close() {
	f.Server.Close()
}

// Commits returns the writes received so far
func (f *FakeGitHub) Commits() []Commit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Commit(nil), f.commits...)
}

// FailNext makes the next n requests answer 502
func (f *FakeGitHub) FailNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = n
}

func (f *FakeGitHub) serve(w http.ResponseWriter, r *http.Request) {
	if f.shouldFail() {
		writeJSON(w, http.StatusBadGateway, map[string]string{"message": "Server Error"})
		return
	}

	prefix := "/repos/" + f.Owner + "/" + f.Repo + "/contents/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	p := strings.TrimPrefix(r.URL.Path, prefix)

	switch r.Method {
	case http.MethodGet:
		f.get(w, r.Context(), p)
	case http.MethodPut:
		f.put(w, r, p)
	case http.MethodDelete:
		f.delete(w, r, p)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "Method Not Allowed"})
	}
}

func (f *FakeGitHub) get(w http.ResponseWriter, ctx context.Context, p string) {
	if blob, err := f.Store.Get(ctx, p); err == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"type":     "file",
			"encoding": "base64",
			"name":     path.Base(blob.Path),
			"path":     blob.Path,
			"sha":      blob.Hash,
			"size":     len(blob.Content),
			"content":  base64.StdEncoding.EncodeToString(blob.Content),
		})
		return
	}

	entries, err := f.Store.List(ctx, p)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	items := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		items = append(items, map[string]interface{}{
			"type": e.Type,
			"name": e.Name,
			"path": e.Path,
			"sha":  e.Hash,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (f *FakeGitHub) put(w http.ResponseWriter, r *http.Request, p string) {
	var opts fileOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Problems parsing JSON"})
		return
	}

	hash, err := f.Store.Put(r.Context(), p, opts.Content, opts.SHA, opts.Message)
	if err != nil {
		writeStoreError(w, err, opts.SHA)
		return
	}
	f.record(http.MethodPut, p, opts)

	status := http.StatusOK
	if opts.SHA == "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]interface{}{
		"content": map[string]interface{}{
			"type": "file",
			"name": path.Base(p),
			"path": p,
			"sha":  hash,
		},
		"commit": map[string]interface{}{"message": opts.Message},
	})
}

func (f *FakeGitHub) delete(w http.ResponseWriter, r *http.Request, p string) {
	var opts fileOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Problems parsing JSON"})
		return
	}

	if err := f.Store.Delete(r.Context(), p, opts.SHA, opts.Message); err != nil {
		writeStoreError(w, err, opts.SHA)
		return
	}
	f.record(http.MethodDelete, p, opts)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"content": nil,
		"commit":  map[string]interface{}{"message": opts.Message},
	})
}

func (f *FakeGitHub) record(method, p string, opts fileOptions) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits = append(f.commits, Commit{Method: method, Path: p, Message: opts.Message, Branch: opts.Branch})
}

func (f *FakeGitHub) shouldFail() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext > 0 {
		f.failNext--
		return true
	}
	return false
}

// writeStoreError answers the way GitHub does: 422 when a file exists and
// no sha was sent, 409 when the sha does not match, 404 when missing.
func writeStoreError(w http.ResponseWriter, err error, sha string) {
	var conflict *blobstore.ConflictError
	switch {
	case errors.As(err, &conflict) && sha == "":
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"message": "Invalid request.\n\n\"sha\" wasn't supplied.",
		})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, map[string]string{
			"message": conflict.Error(),
		})
	case blobstore.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
