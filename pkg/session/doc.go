// Package session keeps live reconciliation sessions.
//
// A Session owns the previous snapshot and a server-side mirror of the host
// tree. Each Render diffs the new snapshot against the previous one, applies
// the resulting patch tree to the mirror and returns the encoded tree, ready
// to be framed and sent to a remote applier. Renders are serialized, so the
// previous snapshot and the mirror always describe the same tree.
//
// Sent frames are kept in a bounded History so a peer that missed frames
// can be brought up to date by replaying them instead of a full snapshot.
//
// A Manager indexes sessions by ID and expires idle ones.
package session
