package protocol

import (
	"encoding/binary"
	"io"

	"github.com/vango-dev/vpatch/internal/errors"
)

// Frame constants.
const (
	// FrameHeaderSize is the size of the frame header in bytes.
	FrameHeaderSize = 6

	// MaxPayloadSize is the maximum payload size of one frame.
	MaxPayloadSize = HardMaxAllocation
)

// FrameType identifies the type of frame.
type FrameType uint8

const (
	FrameSnapshot FrameType = 0x00 // Full snapshot
	FramePatches  FrameType = 0x01 // Patch tree against the previous snapshot
	FrameAck      FrameType = 0x02 // Acknowledgment of a sequence number
	FrameError    FrameType = 0x03 // Error message
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameSnapshot:
		return "Snapshot"
	case FramePatches:
		return "Patches"
	case FrameAck:
		return "Ack"
	case FrameError:
		return "Error"
	default:
		return "Unknown"
	}
}

// FrameFlags are optional flags for frame processing.
type FrameFlags uint8

const (
	FlagSequenced FrameFlags = 0x01 // Payload starts with a uvarint sequence number
	FlagFinal     FrameFlags = 0x02 // Last frame in batch
)

// Has returns true if the flags contain the specified flag.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

// ErrFrameTooLarge reports a payload over MaxPayloadSize.
var ErrFrameTooLarge = errors.New("E212").WithDetailf("frame payload over %d bytes", MaxPayloadSize)

// Frame represents a protocol frame with header and payload.
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// NewFrame creates a new frame with the given type and payload.
func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{Type: ft, Payload: payload}
}

// Encode encodes the frame to bytes including the header.
func (f *Frame) Encode() []byte {
	buf := make([]byte, FrameHeaderSize+len(f.Payload))
	putHeader(buf, f)
	copy(buf[FrameHeaderSize:], f.Payload)
	return buf
}

func putHeader(buf []byte, f *Frame) {
	buf[0] = byte(f.Type)
	buf[1] = byte(f.Flags)
	binary.BigEndian.PutUint32(buf[2:], uint32(len(f.Payload)))
}

// DecodeFrame decodes a frame from bytes. The payload is copied.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, ErrTruncated
	}
	length := binary.BigEndian.Uint32(data[2:])
	if length > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	if uint64(len(data)) < FrameHeaderSize+uint64(length) {
		return nil, ErrTruncated
	}

	payload := make([]byte, length)
	copy(payload, data[FrameHeaderSize:])
	return &Frame{
		Type:    FrameType(data[0]),
		Flags:   FrameFlags(data[1]),
		Payload: payload,
	}, nil
}

// ReadFrame reads a complete frame from an io.Reader.
func ReadFrame(r io.Reader) (*Frame, error) {
	header := make([]byte, FrameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(header[2:])
	if length > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
	return &Frame{
		Type:    FrameType(header[0]),
		Flags:   FrameFlags(header[1]),
		Payload: payload,
	}, nil
}

// WriteFrame writes a complete frame to an io.Writer.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}

// SnapshotFrame encodes a snapshot into a FrameSnapshot frame tagged with seq.
func SnapshotFrame(seq uint64, payload []byte) *Frame {
	return sequenced(FrameSnapshot, seq, payload)
}

// PatchFrame wraps an encoded patch tree into a FramePatches frame tagged
// with seq.
func PatchFrame(seq uint64, payload []byte) *Frame {
	return sequenced(FramePatches, seq, payload)
}

func sequenced(ft FrameType, seq uint64, payload []byte) *Frame {
	e := NewEncoder()
	e.WriteUvarint(seq)
	e.WriteBytes(payload)
	return &Frame{Type: ft, Flags: FlagSequenced | FlagFinal, Payload: e.Bytes()}
}

// Sequence splits a sequenced payload into its sequence number and body.
// Frames without FlagSequenced report sequence 0 and the whole payload.
func (f *Frame) Sequence() (uint64, []byte, error) {
	if !f.Flags.Has(FlagSequenced) {
		return 0, f.Payload, nil
	}
	d := NewDecoder(f.Payload)
	seq, err := d.ReadUvarint()
	if err != nil {
		return 0, nil, err
	}
	return seq, f.Payload[len(f.Payload)-d.Remaining():], nil
}

// AckFrame acknowledges that the frame tagged seq was applied.
func AckFrame(seq uint64) *Frame {
	return sequenced(FrameAck, seq, nil)
}
