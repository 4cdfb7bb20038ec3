package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

type fileDocument struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Profile      []byte `json:"profile,omitempty"`
}

// FileStore keeps the pair in a single JSON file. Every write replaces the whole
// document through a rename, so a concurrent reader sees either the old pair or the
// new one. The file is created with mode 0600.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The parent directory is created on
// the first write.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("token store path is empty")
	}
	return &FileStore{path: filepath.Clean(path)}, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(_ context.Context, kind Kind) (string, bool) {
	doc, ok := s.read()
	if !ok {
		return "", false
	}
	var v string
	switch kind {
	case Access:
		v = doc.AccessToken
	case Refresh:
		v = doc.RefreshToken
	}
	return v, v != ""
}

func (s *FileStore) Set(_ context.Context, access, refresh string) error {
	if err := validatePair(access, refresh); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(fileDocument{AccessToken: access, RefreshToken: refresh})
}

func (s *FileStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *FileStore) Profile(context.Context) ([]byte, bool) {
	doc, ok := s.read()
	if !ok || len(doc.Profile) == 0 {
		return nil, false
	}
	return doc.Profile, true
}

func (s *FileStore) SetProfile(_ context.Context, profile []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, _ := s.read()
	doc.Profile = cloneBytes(profile)
	return s.write(doc)
}

// read treats a missing or unreadable document as an empty store.
func (s *FileStore) read() (fileDocument, bool) {
	var doc fileDocument
	data, err := os.ReadFile(s.path)
	if err != nil {
		return doc, false
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fileDocument{}, false
	}
	// A half-populated document violates the pair invariant; drop the tokens.
	if doc.AccessToken == "" || doc.RefreshToken == "" {
		doc.AccessToken, doc.RefreshToken = "", ""
	}
	return doc, true
}

func (s *FileStore) write(doc fileDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	tmp, err := os.CreateTemp(dir, ".tokens-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
