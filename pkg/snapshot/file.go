package snapshot

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore keeps snapshots as files under a root directory.
type FileStore struct {
	root string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store rooted at dir. The directory is created on
// the first Put.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

// Root returns the store directory.
func (f *FileStore) Root() string {
	return f.root
}

func (f *FileStore) path(name string) (string, string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", "", err
	}
	return name, filepath.Join(f.root, filepath.FromSlash(name)), nil
}

// Put implements Store. The file is written to a temporary sibling and
// renamed into place.
func (f *FileStore) Put(ctx context.Context, name string, data []byte) error {
	name, p, err := f.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return storeFailed("put", name, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".snapshot-*")
	if err != nil {
		return storeFailed("put", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return storeFailed("put", name, err)
	}
	if err := tmp.Close(); err != nil {
		return storeFailed("put", name, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return storeFailed("put", name, err)
	}
	return nil
}

// Get implements Store.
func (f *FileStore) Get(ctx context.Context, name string) ([]byte, error) {
	name, p, err := f.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, storeFailed("get", name, err)
	}
	return data, nil
}

// Delete implements Store.
func (f *FileStore) Delete(ctx context.Context, name string) error {
	name, p, err := f.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return storeFailed("delete", name, err)
	}
	return nil
}

// List implements Store. Temporary files are skipped.
func (f *FileStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == f.root && stderrors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".snapshot-") {
			return nil
		}
		rel, err := filepath.Rel(f.root, p)
		if err != nil {
			return err
		}
		if name := filepath.ToSlash(rel); strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return ctx.Err()
	})
	if err != nil {
		return nil, storeFailed("list", prefix, err)
	}
	sort.Strings(names)
	return names, nil
}

// Close implements Store.
func (f *FileStore) Close() error {
	return nil
}
