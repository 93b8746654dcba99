package filestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jrsteele09/go-lms-client/storage"
	"github.com/rs/zerolog"
)

// DefaultFileName is created inside the configured data folder.
const DefaultFileName = "session.json"

var _ storage.Backend = (*FileStore)(nil)

// FileStore keeps every key in a single JSON document on disk, rewritten
// atomically (temp file + rename) on each change. Values are cached in memory
// after the first load.
type FileStore struct {
	path       string
	passphrase string
	reset      bool
	logger     zerolog.Logger
	values     map[string]string
	lock       sync.Mutex
}

type Option func(*FileStore)

// WithPassphrase encrypts the document at rest. An empty passphrase keeps it plaintext.
func WithPassphrase(passphrase string) Option {
	return func(f *FileStore) {
		f.passphrase = passphrase
	}
}

// WithResetOnError opens an empty store when the document cannot be read,
// decrypted or parsed. The unreadable file is renamed aside and logged.
func WithResetOnError(logger zerolog.Logger) Option {
	return func(f *FileStore) {
		f.reset = true
		f.logger = logger.With().Str("component", "filestore").Logger()
	}
}

// Open loads path, creating nothing until the first write. A missing file is an empty store.
func Open(path string, options ...Option) (*FileStore, error) {
	f := &FileStore{path: path, logger: zerolog.Nop()}
	for _, opt := range options {
		opt(f)
	}
	if err := f.load(); err != nil {
		if !f.reset {
			return nil, err
		}
		f.values = make(map[string]string)
		aside := fmt.Sprintf("%s.bad-%d", f.path, time.Now().Unix())
		if renameErr := os.Rename(f.path, aside); renameErr != nil {
			f.logger.Warn().Err(err).AnErr("rename_error", renameErr).Str("path", f.path).Msg("session file unreadable, starting empty")
		} else {
			f.logger.Warn().Err(err).Str("path", f.path).Str("moved_to", aside).Msg("session file unreadable, starting empty")
		}
	}
	return f, nil
}

// Path returns the document location.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Get(key string) (string, bool, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *FileStore) Set(key, value string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if current, ok := f.values[key]; ok && current == value {
		return nil
	}
	f.values[key] = value
	return f.flush()
}

func (f *FileStore) Delete(key string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if _, ok := f.values[key]; !ok {
		return nil
	}
	delete(f.values, key)
	return f.flush()
}

func (f *FileStore) load() error {
	f.values = make(map[string]string)
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if f.passphrase != "" {
		if data, err = open(data, f.passphrase); err != nil {
			return fmt.Errorf("decrypt %s: %w", f.path, err)
		}
	}
	if err := json.Unmarshal(data, &f.values); err != nil {
		return fmt.Errorf("parse %s: %w", f.path, err)
	}
	return nil
}

// flush must be called with the lock held.
func (f *FileStore) flush() error {
	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	if f.passphrase != "" {
		if data, err = seal(data, f.passphrase); err != nil {
			return fmt.Errorf("encrypt store: %w", err)
		}
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create data folder: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}
