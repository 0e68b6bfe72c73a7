package protocol

import (
	stderrors "errors"

	"github.com/vango-dev/vpatch/internal/errors"
)

// ErrorMessage is sent to a peer when a frame cannot be processed.
type ErrorMessage struct {
	Code    string // Registered error code, e.g. "E200"
	Message string // Human-readable error message
	Fatal   bool   // If true, connection should be closed
}

// NewErrorMessage builds an ErrorMessage from err. Coded errors keep their
// code; anything else is reported without one.
func NewErrorMessage(err error, fatal bool) *ErrorMessage {
	em := &ErrorMessage{Message: err.Error(), Fatal: fatal}
	var coded *errors.Error
	if stderrors.As(err, &coded) {
		em.Code = coded.Code
	}
	return em
}

// EncodeErrorMessage encodes an ErrorMessage to bytes.
func EncodeErrorMessage(em *ErrorMessage) []byte {
	e := NewEncoder()
	e.WriteString(em.Code)
	e.WriteString(em.Message)
	e.WriteBool(em.Fatal)
	return e.Bytes()
}

// DecodeErrorMessage decodes an ErrorMessage from bytes.
func DecodeErrorMessage(data []byte) (*ErrorMessage, error) {
	d := NewDecoder(data)
	code, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	message, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	fatal, err := d.ReadBool()
	if err != nil {
		return nil, err
	}
	return &ErrorMessage{Code: code, Message: message, Fatal: fatal}, nil
}

// ErrorFrame wraps an ErrorMessage in a FrameError frame.
func ErrorFrame(em *ErrorMessage) *Frame {
	return NewFrame(FrameError, EncodeErrorMessage(em))
}

// Error implements the error interface.
func (em *ErrorMessage) Error() string {
	msg := em.Message
	if em.Fatal {
		msg = "fatal: " + msg
	}
	return msg
}
