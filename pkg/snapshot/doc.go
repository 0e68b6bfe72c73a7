// Package snapshot persists virtual-tree snapshots.
//
// A Store holds encoded snapshots by name. Three backends are provided:
// MemoryStore for tests and single-process use, FileStore rooted at a
// directory, and S3Store backed by an S3 bucket.
//
// Snapshots are encoded by name extension: ".bin" names use the binary
// protocol encoding and everything else uses JSON.
//
//	store, name, err := snapshot.Open("s3://bucket/pages/home.json", opts)
//	v, err := snapshot.Load(ctx, store, name, protocol.DefaultLimits())
package snapshot
