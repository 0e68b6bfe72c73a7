package snapshot

import (
	"context"
	"path"
	"strings"

	"github.com/vango-dev/vpatch/internal/errors"
)

// Store holds encoded snapshots by name.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put writes data under name, replacing any existing object.
	Put(ctx context.Context, name string, data []byte) error

	// Get reads the object stored under name. A missing object is E230.
	Get(ctx context.Context, name string) ([]byte, error)

	// Delete removes name. Deleting a missing object is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases resources held by the store.
	Close() error
}

// notFound reports a missing snapshot.
func notFound(name string) error {
	return errors.New("E230").WithDetailf("snapshot %q", name)
}

// storeFailed wraps a backend error.
func storeFailed(op, name string, err error) error {
	return errors.New("E232").WithDetailf("%s %q", op, name).Wrap(err)
}

var errClosed = errors.New("E232").WithDetail("store is closed")

// cleanName validates a snapshot name. Names are slash-separated relative
// paths that stay inside the store.
func cleanName(name string) (string, error) {
	if name == "" {
		return "", errors.New("E231").WithDetail("empty snapshot name")
	}
	c := path.Clean(strings.TrimPrefix(name, "/"))
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", errors.New("E231").WithDetailf("snapshot name %q escapes the store", name)
	}
	return c, nil
}
