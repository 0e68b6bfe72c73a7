package snapshot

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/vango-dev/vpatch/internal/errors"
)

// OpenOptions supplies the backends Open may need.
type OpenOptions struct {
	// S3 is the client used for s3:// URIs. Required for those URIs.
	S3 S3API
}

// Open resolves a snapshot URI to a store and the name within it.
//
// Supported forms:
//
//	path/to/file.json        file in the local filesystem
//	file:///abs/path.bin     same, as a URL
//	s3://bucket/key.json     object in an S3 bucket
func Open(uri string, opts OpenOptions) (Store, string, error) {
	if uri == "" {
		return nil, "", errors.New("E231").WithDetail("empty snapshot URI")
	}
	if !strings.Contains(uri, "://") {
		return fileStoreFor(uri)
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, "", errors.New("E231").WithDetailf("parse %q", uri).Wrap(err)
	}
	switch u.Scheme {
	case "file":
		return fileStoreFor(u.Path)
	case "s3":
		if u.Host == "" || strings.Trim(u.Path, "/") == "" {
			return nil, "", errors.New("E231").WithDetailf("%q needs a bucket and a key", uri)
		}
		if opts.S3 == nil {
			return nil, "", errors.New("E231").WithDetailf("%q requires an S3 client", uri).
				WithSuggestion("Set snapshots.s3.region in vpatch.yaml")
		}
		return NewS3Store(opts.S3, u.Host, ""), strings.TrimPrefix(u.Path, "/"), nil
	}
	return nil, "", errors.New("E231").WithDetailf("scheme %q", u.Scheme)
}

func fileStoreFor(p string) (Store, string, error) {
	if p == "" {
		return nil, "", errors.New("E231").WithDetail("empty file path")
	}
	dir, name := filepath.Split(filepath.Clean(p))
	if dir == "" {
		dir = "."
	}
	return NewFileStore(dir), name, nil
}
