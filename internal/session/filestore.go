package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	errStoreFileIsDir = errors.New("session file is dir")
)

type fileEntry struct {
	Data   []byte    `json:"data"`
	Expiry time.Time `json:"expiry"`
}

// FileStore keeps remember-me sessions in memory and persists them to a JSON
// file, read at start and written when the portal stops, so a restart does
// not log everyone out.
type FileStore struct {
	path string
	log  *zap.Logger

	mu      sync.RWMutex
	entries map[string]fileEntry
	now     func() time.Time
}

func NewFileStore(path string, log *zap.Logger) *FileStore {
	s := &FileStore{
		path:    path,
		log:     log,
		entries: map[string]fileEntry{},
		now:     time.Now,
	}

	if err := s.readfile(); err != nil && !errors.Is(err, os.ErrNotExist) {
		// only log, the store starts empty and the file is overwritten on stop
		s.log.Warn("failed reading session file", zap.String("path", path), zap.Error(err))
	}
	return s
}

func (s *FileStore) Find(token string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[token]
	if !ok || !s.now().Before(e.Expiry) {
		return nil, false, nil
	}
	return e.Data, true, nil
}

func (s *FileStore) Commit(token string, b []byte, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[token] = fileEntry{Data: b, Expiry: expiry}
	return nil
}

func (s *FileStore) Delete(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, token)
	return nil
}

// Stop is registered as an fx OnStop hook.
func (s *FileStore) Stop(_ context.Context) error {
	return s.writefile()
}

func (s *FileStore) readfile() error {
	finfo, err := os.Stat(s.path)
	if err != nil {
		return err
	}
	if finfo.IsDir() {
		return errStoreFileIsDir
	}

	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	return json.NewDecoder(f).Decode(&s.entries)
}

func (s *FileStore) writefile() error {
	s.mu.RLock()
	live := make(map[string]fileEntry, len(s.entries))
	now := s.now()
	for k, e := range s.entries {
		if now.Before(e.Expiry) {
			live[k] = e
		}
	}
	s.mu.RUnlock()

	b, err := json.MarshalIndent(live, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}
