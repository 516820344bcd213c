package keyvalue

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileRepo is a Repo backed by a single JSON file on disk. The whole file is
// rewritten on every mutation, so a value is either fully written or not
// written at all.
type FileRepo struct {
	path   string
	lock   sync.Mutex
	values map[string]string
}

var _ Repo = (*FileRepo)(nil)

// NewFileRepo loads (or lazily creates) the JSON file at path and returns a
// FileRepo over it. A missing file is treated as an empty store.
func NewFileRepo(path string) (*FileRepo, error) {
	repo := &FileRepo{
		path:   path,
		values: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return repo, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return repo, nil
	}
	if err := json.Unmarshal(data, &repo.values); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return repo, nil
}

func (r *FileRepo) Get(key string) (string, bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	value, ok := r.values[key]
	return value, ok, nil
}

func (r *FileRepo) Set(key, value string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	previous, existed := r.values[key]
	r.values[key] = value
	if err := r.save(); err != nil {
		if existed {
			r.values[key] = previous
		} else {
			delete(r.values, key)
		}
		return err
	}
	return nil
}

func (r *FileRepo) Remove(key string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	previous, existed := r.values[key]
	if !existed {
		return nil
	}
	delete(r.values, key)
	if err := r.save(); err != nil {
		r.values[key] = previous
		return err
	}
	return nil
}

// save writes the current map to disk. The file holds credentials, so it is
// created with owner-only permissions.
func (r *FileRepo) save() error {
	data, err := json.MarshalIndent(r.values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", r.path, err)
	}
	return nil
}
