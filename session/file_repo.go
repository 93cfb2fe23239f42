package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

var _ TokenRepo = (*FileTokenRepo)(nil)

// FileTokenRepo keeps the tokens in a single 0600 JSON file.
// Tokens survive restarts; the user never does.
type FileTokenRepo struct {
	fs   afero.Fs
	path string
	lock sync.Mutex
}

// NewFileTokenRepo stores tokens at path on fs. Use afero.NewOsFs() for the real disk.
func NewFileTokenRepo(fs afero.Fs, path string) *FileTokenRepo {
	return &FileTokenRepo{
		fs:   fs,
		path: path,
	}
}

// Path returns the token file location
func (r *FileTokenRepo) Path() string {
	return r.path
}

func (r *FileTokenRepo) Get(key string) (string, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	entries, err := r.read()
	if err != nil {
		return "", err
	}
	return entries[key], nil
}

func (r *FileTokenRepo) Set(key, value string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	entries, err := r.read()
	if err != nil {
		return err
	}
	entries[key] = value
	return r.write(entries)
}

func (r *FileTokenRepo) Remove(keys ...string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	entries, err := r.read()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(entries, k)
	}
	if len(entries) == 0 {
		if err := r.fs.Remove(r.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("[FileTokenRepo Remove] %w", err)
		}
		return nil
	}
	return r.write(entries)
}

func (r *FileTokenRepo) read() (map[string]string, error) {
	entries := make(map[string]string)
	data, err := afero.ReadFile(r.fs, r.path)
	if os.IsNotExist(err) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[FileTokenRepo read] %w", err)
	}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("[FileTokenRepo read] corrupt token file %s: %w", r.path, err)
	}
	return entries, nil
}

// write replaces the file via a temp file and rename so a crash never leaves half a token
func (r *FileTokenRepo) write(entries map[string]string) error {
	if err := r.fs.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("[FileTokenRepo write] %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("[FileTokenRepo write] %w", err)
	}
	tmp := r.path + ".tmp"
	if err := afero.WriteFile(r.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("[FileTokenRepo write] %w", err)
	}
	if err := r.fs.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("[FileTokenRepo write] %w", err)
	}
	return nil
}
