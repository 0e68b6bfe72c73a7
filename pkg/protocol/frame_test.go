package protocol

import (
	"bytes"
	stderrors "errors"
	"io"
	"testing"
)

func TestFrameEncodeDecode(t *testing.T) {
	tests := []struct {
		name    string
		frame   Frame
		wantLen int
	}{
		{
			name:    "empty_payload",
			frame:   Frame{Type: FrameAck, Payload: []byte{}},
			wantLen: FrameHeaderSize,
		},
		{
			name:    "with_payload",
			frame:   Frame{Type: FramePatches, Flags: FlagSequenced, Payload: []byte{0x01, 0x02, 0x03}},
			wantLen: FrameHeaderSize + 3,
		},
		{
			name:    "with_flags",
			frame:   Frame{Type: FrameSnapshot, Flags: FlagSequenced | FlagFinal, Payload: []byte("test")},
			wantLen: FrameHeaderSize + 4,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			encoded := tc.frame.Encode()
			if len(encoded) != tc.wantLen {
				t.Errorf("Encode() length = %d, want %d", len(encoded), tc.wantLen)
			}

			decoded, err := DecodeFrame(encoded)
			if err != nil {
				t.Fatalf("DecodeFrame() error = %v", err)
			}
			if decoded.Type != tc.frame.Type {
				t.Errorf("Decoded type = %v, want %v", decoded.Type, tc.frame.Type)
			}
			if decoded.Flags != tc.frame.Flags {
				t.Errorf("Decoded flags = %v, want %v", decoded.Flags, tc.frame.Flags)
			}
			if !bytes.Equal(decoded.Payload, tc.frame.Payload) {
				t.Errorf("Decoded payload = %v, want %v", decoded.Payload, tc.frame.Payload)
			}
		})
	}
}

func TestFrameLargePayload(t *testing.T) {
	// Payloads over 64KB need the 4-byte length field.
	payload := bytes.Repeat([]byte{0xAB}, 70000)
	f := NewFrame(FramePatches, payload)

	var buf bytes.Buffer
	if err := WriteFrame(&buf, f); err != nil {
		t.Fatalf("WriteFrame() error = %v", err)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	if !bytes.Equal(got.Payload, payload) {
		t.Error("ReadFrame() payload mismatch")
	}
}

func TestFrameTruncated(t *testing.T) {
	encoded := NewFrame(FramePatches, []byte("hello")).Encode()

	if _, err := DecodeFrame(encoded[:3]); !stderrors.Is(err, ErrTruncated) {
		t.Errorf("DecodeFrame(short header) error = %v, want ErrTruncated", err)
	}
	if _, err := DecodeFrame(encoded[:len(encoded)-1]); !stderrors.Is(err, ErrTruncated) {
		t.Errorf("DecodeFrame(short payload) error = %v, want ErrTruncated", err)
	}
	if _, err := ReadFrame(bytes.NewReader(encoded[:len(encoded)-1])); !stderrors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadFrame(short payload) error = %v, want io.ErrUnexpectedEOF", err)
	}
	if _, err := ReadFrame(bytes.NewReader(nil)); err != io.EOF {
		t.Errorf("ReadFrame(empty) error = %v, want io.EOF", err)
	}
}

func TestFrameTooLarge(t *testing.T) {
	header := []byte{byte(FramePatches), 0, 0xFF, 0xFF, 0xFF, 0xFF}
	if _, err := DecodeFrame(header); !stderrors.Is(err, ErrFrameTooLarge) {
		t.Errorf("DecodeFrame() error = %v, want ErrFrameTooLarge", err)
	}
	if _, err := ReadFrame(bytes.NewReader(header)); !stderrors.Is(err, ErrFrameTooLarge) {
		t.Errorf("ReadFrame() error = %v, want ErrFrameTooLarge", err)
	}
}

func TestFrameSequence(t *testing.T) {
	f := PatchFrame(300, []byte{0x01, 0x02})
	if !f.Flags.Has(FlagSequenced) || !f.Flags.Has(FlagFinal) {
		t.Fatalf("PatchFrame() flags = %08b", f.Flags)
	}

	decoded, err := DecodeFrame(f.Encode())
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	seq, body, err := decoded.Sequence()
	if err != nil {
		t.Fatalf("Sequence() error = %v", err)
	}
	if seq != 300 || !bytes.Equal(body, []byte{0x01, 0x02}) {
		t.Errorf("Sequence() = %d, %v; want 300, [1 2]", seq, body)
	}

	ack := AckFrame(7)
	seq, body, err = ack.Sequence()
	if err != nil || seq != 7 || len(body) != 0 {
		t.Errorf("AckFrame(7).Sequence() = %d, %v, %v", seq, body, err)
	}

	plain := NewFrame(FrameError, []byte("x"))
	seq, body, err = plain.Sequence()
	if err != nil || seq != 0 || string(body) != "x" {
		t.Errorf("unsequenced Sequence() = %d, %q, %v", seq, body, err)
	}
}

func TestFrameTypeString(t *testing.T) {
	tests := []struct {
		ft   FrameType
		want string
	}{
		{FrameSnapshot, "Snapshot"},
		{FramePatches, "Patches"},
		{FrameAck, "Ack"},
		{FrameError, "Error"},
		{FrameType(0x7F), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.ft.String(); got != tt.want {
			t.Errorf("FrameType(%d).String() = %q, want %q", tt.ft, got, tt.want)
		}
	}
}
