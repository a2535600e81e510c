package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	schemaVersion = "1.0"
	lockTimeout   = 5 * time.Second
)

// JSONStore implements Store using a single JSON file.
type JSONStore struct {
	path string
	lock *FileLock
	data *storeData
	mu   sync.RWMutex
}

// storeData is the top-level JSON structure.
type storeData struct {
	Version     string                 `json:"version"`
	UpdatedAt   time.Time              `json:"updated_at"`
	Transcripts map[string]*Transcript `json:"transcripts"` // key: videoID "/" language
}

// key builds the lookup key for a video and language.
func key(videoID, language string) string {
	return videoID + "/" + language
}

// NewJSONStore creates a JSON file store at the given path.
// If the file exists, it is loaded; otherwise an empty store is created.
func NewJSONStore(path string) (*JSONStore, error) {
	// The lock file lives next to the store file, so the directory must
	// exist before the lock can be acquired.
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &StorageError{Op: "create", ID: path, Err: err}
	}

	s := &JSONStore{
		path: path,
		lock: NewFileLock(path),
	}

	if err := s.lock.Lock(lockTimeout); err != nil {
		return nil, err
	}

	if err := s.load(); err != nil {
		s.lock.Unlock()
		return nil, err
	}

	return s, nil
}

// load reads the JSON file into memory. Creates empty data if the file
// doesn't exist.
func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.data = newStoreData()
			// Save immediately to catch permission errors early.
			return s.save()
		}
		return &StorageError{Op: "read", Err: err}
	}

	s.data = &storeData{}
	if err := json.Unmarshal(data, s.data); err != nil {
		return &StorageError{Op: "read", Err: ErrStorageCorrupt}
	}
	if s.data.Transcripts == nil {
		s.data.Transcripts = make(map[string]*Transcript)
	}

	return nil
}

// save persists the data to disk atomically.
func (s *JSONStore) save() error {
	s.data.UpdatedAt = time.Now()

	writer, err := NewAtomicWriter(s.path)
	if err != nil {
		return &StorageError{Op: "write", Err: err}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.data); err != nil {
		writer.Abort()
		return &StorageError{Op: "write", Err: err}
	}

	if err := writer.Commit(); err != nil {
		return &StorageError{Op: "write", Err: err}
	}

	return nil
}

// Get retrieves a cached transcript.
func (s *JSONStore) Get(ctx context.Context, videoID, language string) (*Transcript, error) {
	if videoID == "" || language == "" {
		return nil, &StorageError{Op: "read", ID: key(videoID, language), Err: ErrInvalidInput}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data.Transcripts[key(videoID, language)]
	if !ok {
		return nil, &StorageError{Op: "read", ID: key(videoID, language), Err: ErrNotFound}
	}

	cp := *t
	cp.Segments = append([]Segment(nil), t.Segments...)
	return &cp, nil
}

// Put saves a transcript, replacing any existing record for the same video
// and language.
func (s *JSONStore) Put(ctx context.Context, t *Transcript) error {
	if t == nil || t.VideoID == "" || t.Language == "" {
		return &StorageError{Op: "write", Err: ErrInvalidInput}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	cp := *t
	cp.Segments = append([]Segment(nil), t.Segments...)

	if existing, ok := s.data.Transcripts[key(t.VideoID, t.Language)]; ok {
		cp.ID = existing.ID
		cp.CreatedAt = existing.CreatedAt
	} else {
		cp.ID = uuid.NewString()
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now

	s.data.Transcripts[key(t.VideoID, t.Language)] = &cp
	return s.save()
}

// Delete removes a cached transcript. Deleting a missing record is an error.
func (s *JSONStore) Delete(ctx context.Context, videoID, language string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(videoID, language)
	if _, ok := s.data.Transcripts[k]; !ok {
		return &StorageError{Op: "delete", ID: k, Err: ErrNotFound}
	}

	delete(s.data.Transcripts, k)
	return s.save()
}

// List returns all cached transcripts.
func (s *JSONStore) List(ctx context.Context) ([]*Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Transcript, 0, len(s.data.Transcripts))
	for _, t := range s.data.Transcripts {
		cp := *t
		cp.Segments = append([]Segment(nil), t.Segments...)
		out = append(out, &cp)
	}
	return out, nil
}

// Close releases resources held by the store.
func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lock.Unlock()
}

func newStoreData() *storeData {
	return &storeData{
		Version:     schemaVersion,
		UpdatedAt:   time.Now(),
		Transcripts: make(map[string]*Transcript),
	}
}
