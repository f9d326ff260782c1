package repositories

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// LocalStore keeps assets on an afero filesystem rooted at dir. Backed by the
// OS filesystem in development and a MemMapFs in tests.
type LocalStore struct {
	fs  afero.Fs
	dir string
}

func NewLocalStore(fs afero.Fs, dir string) *LocalStore {
	return &LocalStore{fs: fs, dir: dir}
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.dir, filepath.FromSlash(key))
}

func (s *LocalStore) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	p := s.path(key)
	if err := s.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := s.fs.Create(p)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, body)
	return err
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	err := s.fs.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Open returns the stored bytes for a key. Tests use it to verify reassembly.
func (s *LocalStore) Open(key string) (io.ReadCloser, error) {
	return s.fs.Open(s.path(key))
}
