package snapshot

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vango-dev/vpatch/internal/errors"
	"github.com/vango-dev/vpatch/pkg/protocol"
	. "github.com/vango-dev/vpatch/pkg/vdom"
)

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	v := Div(ID("app"), Ul(Li("a"), Li(Class("x"), "b")), Input(Disabled()))

	for _, name := range []string{"page.json", "page.bin", "nested/page"} {
		t.Run(name, func(t *testing.T) {
			store := NewMemoryStore()
			if err := Save(ctx, store, name, v); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			got, err := Load(ctx, store, name, protocol.DefaultLimits())
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if diff := cmp.Diff(v, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSaveLoadNil(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, name := range []string{"empty.json", "empty.bin"} {
		if err := Save(ctx, store, name, nil); err != nil {
			t.Fatalf("Save(%s) error = %v", name, err)
		}
		got, err := Load(ctx, store, name, protocol.DefaultLimits())
		if err != nil || got != nil {
			t.Errorf("Load(%s) = %v, %v; want nil", name, got, err)
		}
	}
}

func TestFormatOf(t *testing.T) {
	tests := map[string]Format{
		"a.json":    FormatJSON,
		"a.bin":     FormatBinary,
		"a":         FormatJSON,
		"dir/x.bin": FormatBinary,
	}
	for name, want := range tests {
		if got := FormatOf(name); got != want {
			t.Errorf("FormatOf(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestOpen(t *testing.T) {
	fake := newFakeS3()
	tests := []struct {
		uri      string
		wantType string
		wantName string
		wantCode string
	}{
		{uri: "page.json", wantType: "file", wantName: "page.json"},
		{uri: "/tmp/x/page.bin", wantType: "file", wantName: "page.bin"},
		{uri: "file:///tmp/x/page.json", wantType: "file", wantName: "page.json"},
		{uri: "s3://bucket/pages/home.json", wantType: "s3", wantName: "pages/home.json"},
		{uri: "s3://bucket/", wantCode: "E231"},
		{uri: "ftp://host/x", wantCode: "E231"},
		{uri: "", wantCode: "E231"},
	}
	for _, tt := range tests {
		store, name, err := Open(tt.uri, OpenOptions{S3: fake})
		if tt.wantCode != "" {
			if !stderrors.Is(err, errors.New(tt.wantCode)) {
				t.Errorf("Open(%q) error = %v, want %s", tt.uri, err, tt.wantCode)
			}
			continue
		}
		if err != nil {
			t.Errorf("Open(%q) error = %v", tt.uri, err)
			continue
		}
		var typ string
		switch store.(type) {
		case *FileStore:
			typ = "file"
		case *S3Store:
			typ = "s3"
		}
		if typ != tt.wantType || name != tt.wantName {
			t.Errorf("Open(%q) = %s %q, want %s %q", tt.uri, typ, name, tt.wantType, tt.wantName)
		}
	}

	if _, _, err := Open("s3://bucket/key", OpenOptions{}); !stderrors.Is(err, errors.New("E231")) {
		t.Errorf("Open(s3) without client error = %v, want E231", err)
	}
}

func TestOpenFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	uri := filepath.Join(t.TempDir(), "snap.bin")

	store, name, err := Open(uri, OpenOptions{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := Save(ctx, store, name, P("hi")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	store, name, _ = Open(uri, OpenOptions{})
	got, err := Load(ctx, store, name, protocol.DefaultLimits())
	if err != nil || got.TextContent() != "hi" {
		t.Errorf("Load() = %v, %v", got, err)
	}
}
