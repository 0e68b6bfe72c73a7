package protocol

import (
	"fmt"
	"testing"

	"github.com/vango-dev/vpatch/internal/errors"
)

func TestErrorMessageRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  ErrorMessage
	}{
		{"coded", ErrorMessage{Code: "E200", Message: "duplicate key", Fatal: false}},
		{"fatal", ErrorMessage{Code: "E212", Message: "too deep", Fatal: true}},
		{"uncoded", ErrorMessage{Message: "boom"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeErrorMessage(EncodeErrorMessage(&tt.msg))
			if err != nil {
				t.Fatalf("DecodeErrorMessage() error = %v", err)
			}
			if *got != tt.msg {
				t.Errorf("DecodeErrorMessage() = %+v, want %+v", *got, tt.msg)
			}
		})
	}
}

func TestNewErrorMessage(t *testing.T) {
	coded := fmt.Errorf("decode: %w", errors.New("E211"))
	em := NewErrorMessage(coded, true)
	if em.Code != "E211" || !em.Fatal {
		t.Errorf("NewErrorMessage() = %+v, want code E211, fatal", em)
	}
	if em.Error() != "fatal: "+coded.Error() {
		t.Errorf("Error() = %q", em.Error())
	}

	plain := NewErrorMessage(fmt.Errorf("plain"), false)
	if plain.Code != "" || plain.Error() != "plain" {
		t.Errorf("NewErrorMessage(plain) = %+v", plain)
	}
}

func TestErrorFrame(t *testing.T) {
	f := ErrorFrame(&ErrorMessage{Code: "E203", Message: "no target"})
	if f.Type != FrameError {
		t.Fatalf("ErrorFrame() type = %v, want Error", f.Type)
	}
	em, err := DecodeErrorMessage(f.Payload)
	if err != nil {
		t.Fatalf("DecodeErrorMessage() error = %v", err)
	}
	if em.Code != "E203" {
		t.Errorf("Code = %q, want E203", em.Code)
	}
}
