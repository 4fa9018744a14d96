package protocol

import "fmt"

// ErrorCode identifies the type of a reported error.
type ErrorCode uint16

const (
	CodeUnknown         ErrorCode = 0x0000 // Unknown error
	CodeInvalidFrame    ErrorCode = 0x0001 // Malformed frame or payload
	CodeUnresolvedIndex ErrorCode = 0x0002 // Patch index missing from the live tree
	CodeApplyFailed     ErrorCode = 0x0003 // Render target rejected a primitive
	CodeSequenceGap     ErrorCode = 0x0004 // Frame sequence out of order
	CodeServerError     ErrorCode = 0x0100 // Internal server error
	CodeShuttingDown    ErrorCode = 0x0101 // Server is closing the session
)

// String returns the string representation of the error code.
func (ec ErrorCode) String() string {
	switch ec {
	case CodeUnknown:
		return "Unknown"
	case CodeInvalidFrame:
		return "InvalidFrame"
	case CodeUnresolvedIndex:
		return "UnresolvedIndex"
	case CodeApplyFailed:
		return "ApplyFailed"
	case CodeSequenceGap:
		return "SequenceGap"
	case CodeServerError:
		return "ServerError"
	case CodeShuttingDown:
		return "ShuttingDown"
	default:
		return fmt.Sprintf("Code(0x%04x)", uint16(ec))
	}
}

// ErrorMessage is the payload of an error frame.
type ErrorMessage struct {
	Code    ErrorCode
	Message string
	Fatal   bool // The sender closes the session after this frame
}

// EncodeErrorMessage encodes an ErrorMessage to bytes.
func EncodeErrorMessage(em *ErrorMessage) []byte {
	e := NewEncoder()
	e.WriteUint16(uint16(em.Code))
	e.WriteString(em.Message)
	e.WriteBool(em.Fatal)
	return e.Bytes()
}

// DecodeErrorMessage decodes an ErrorMessage from bytes.
func DecodeErrorMessage(data []byte) (*ErrorMessage, error) {
	d := NewDecoder(data)
	code, err := d.ReadUint16()
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
	if err := d.expectEOF(); err != nil {
		return nil, err
	}
	return &ErrorMessage{Code: ErrorCode(code), Message: message, Fatal: fatal}, nil
}

// NewError creates a non-fatal ErrorMessage.
func NewError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Message: message}
}

// NewFatalError creates a fatal ErrorMessage.
func NewFatalError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Message: message, Fatal: true}
}

// Error implements the error interface.
func (em *ErrorMessage) Error() string {
	if em.Fatal {
		return "fatal: " + em.Code.String() + ": " + em.Message
	}
	return em.Code.String() + ": " + em.Message
}
