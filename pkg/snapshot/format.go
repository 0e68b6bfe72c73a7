package snapshot

import (
	"context"
	"encoding/json"
	"path"

	"github.com/vango-dev/vpatch/pkg/protocol"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// Format is a snapshot encoding.
type Format int

const (
	// FormatJSON is the JSON snapshot document.
	FormatJSON Format = iota
	// FormatBinary is the protocol snapshot encoding.
	FormatBinary
)

func (f Format) String() string {
	if f == FormatBinary {
		return "binary"
	}
	return "json"
}

// FormatOf picks the format for name by its extension.
func FormatOf(name string) Format {
	if path.Ext(name) == ".bin" {
		return FormatBinary
	}
	return FormatJSON
}

// ContentType returns the MIME type for name.
func ContentType(name string) string {
	if FormatOf(name) == FormatBinary {
		return "application/octet-stream"
	}
	return "application/json"
}

// Encode encodes v in format f.
func Encode(f Format, v *vdom.VNode) ([]byte, error) {
	if f == FormatBinary {
		return protocol.EncodeSnapshot(v)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode decodes a snapshot in format f. Limits apply to binary input.
func Decode(f Format, data []byte, limits protocol.Limits) (*vdom.VNode, error) {
	if f == FormatBinary {
		return protocol.DecodeSnapshot(data, limits)
	}
	return vdom.ParseSnapshot(data)
}

// Save encodes v by the extension of name and writes it to store.
func Save(ctx context.Context, store Store, name string, v *vdom.VNode) error {
	data, err := Encode(FormatOf(name), v)
	if err != nil {
		return err
	}
	return store.Put(ctx, name, data)
}

// Load reads name from store and decodes it by its extension.
func Load(ctx context.Context, store Store, name string, limits protocol.Limits) (*vdom.VNode, error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return Decode(FormatOf(name), data, limits)
}
