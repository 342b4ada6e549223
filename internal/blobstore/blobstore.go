// Package blobstore stages uploaded binary blobs as temp files keyed by
// a generated id, the binary staging collaborator described as
// "Temporary-file staging of uploaded blobs" and explicitly out of scope
// for the routing core. It is wired only from the admin HTTP surface
// (internal/adminapi), never from the frame router or callback hub.
//
// Grounded on BinaryFileProcessor.py: a uuid4-named temp file per blob,
// preserving the original extension, plus an id -> (path, original name)
// mapping. google/uuid replaces Python's uuid.uuid4().
package blobstore

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an id has no staged file.
var ErrNotFound = errors.New("blobstore: file id not found")

// Info describes a staged blob.
type Info struct {
	ID               string
	TempPath         string
	OriginalFilename string
}

// Store stages binary blobs under a temp directory, tracking an id ->
// Info mapping guarded by a mutex (mirrors file_mappings in the Python
// original, which is likewise accessed from a single thread's worth of
// admin-handler calls).
type Store struct {
	tempDir string

	mu       sync.Mutex
	mappings map[string]Info
}

// New returns a Store staging files under tempDir, creating it if needed.
func New(tempDir string) (*Store, error) {
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, err
	}
	return &Store{tempDir: tempDir, mappings: make(map[string]Info)}, nil
}

// Stage writes data to a new temp file named <uuid><ext of originalFilename>
// and returns the generated id.
func (s *Store) Stage(originalFilename string, data []byte) (string, error) {
	id := uuid.NewString()
	ext := filepath.Ext(originalFilename)
	tempPath := filepath.Join(s.tempDir, id+ext)

	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.mappings[id] = Info{ID: id, TempPath: tempPath, OriginalFilename: originalFilename}
	s.mu.Unlock()

	return id, nil
}

// Info returns the staged file's path and original filename.
func (s *Store) Info(id string) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.mappings[id]
	if !ok {
		return Info{}, ErrNotFound
	}
	return info, nil
}

// All returns every currently staged blob's Info.
func (s *Store) All() []Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Info, 0, len(s.mappings))
	for _, info := range s.mappings {
		out = append(out, info)
	}
	return out
}

// Remove deletes the staged file and its mapping. Returns false if id is
// unknown or the underlying remove fails, matching the Python original's
// bool-returning remove_file.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	info, ok := s.mappings[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.mappings, id)
	s.mu.Unlock()

	return os.Remove(info.TempPath) == nil
}

// Cleanup removes every staged file.
func (s *Store) Cleanup() {
	for _, info := range s.All() {
		s.Remove(info.ID)
	}
}
