// Package protocol implements the binary wire format for vpatch snapshots
// and patch trees.
//
// A live session streams patch trees from the server to a remote applier.
// Every message travels in a frame with a 6-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (4 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Encoding
//
//   - Varint: compact encoding for counts and indices (protobuf-style)
//   - ZigZag: signed integers encoded as unsigned varints
//   - Length-prefixed: strings prefixed with a varint length
//   - Big-endian: fixed-width integers and IEEE 754 floats
//
// # Values
//
// Attribute and text values carry a one-byte tag followed by the payload:
// nil, string, bool, integer (zigzag varint), float64, handler marker, or a
// JSON document for structured values. Handler identity does not cross the
// wire: a decoded handler is a no-op RemoteHandler, so hosts still register
// a listener for it.
//
// # Patch trees
//
//	[PatchCount: varint][Patch...][ChildCount: varint]([Index: varint][Tree])...
//
// Each patch starts with its opcode (the patch.Op value) followed by its
// operands. Decoding enforces the depth, allocation and collection limits of
// the decoder's Limits.
package protocol
