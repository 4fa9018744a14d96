package protocol

import (
	"io"

	"github.com/cockroachdb/errors"
)

// Frame constants.
const (
	// FrameHeaderSize is the size of the frame header in bytes.
	FrameHeaderSize = 6

	// MaxPayloadSize is the largest payload a frame may carry.
	MaxPayloadSize = HardMaxAllocation
)

// FrameType identifies the type of frame.
type FrameType uint8

const (
	FrameSnapshot FrameType = 0x01 // Full tree at session start
	FramePatches  FrameType = 0x02 // Patch script for one render cycle
	FrameError    FrameType = 0x03 // Error report
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameSnapshot:
		return "Snapshot"
	case FramePatches:
		return "Patches"
	case FrameError:
		return "Error"
	default:
		return "Unknown"
	}
}

// FrameFlags are optional flags for frame processing.
type FrameFlags uint8

const (
	// FlagFinal marks the last frame a sender will write on a session.
	FlagFinal FrameFlags = 0x01
)

// Has returns true if the flags contain the specified flag.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

// Frame errors.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
)

// Frame is a protocol frame: a header and a payload.
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// NewFrame creates a frame with no flags.
func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{Type: ft, Payload: payload}
}

// Encode encodes the frame to bytes including the header.
func (f *Frame) Encode() ([]byte, error) {
	if len(f.Payload) > MaxPayloadSize {
		return nil, errors.Wrapf(ErrFrameTooLarge, "%d bytes", len(f.Payload))
	}
	e := &Encoder{buf: make([]byte, 0, FrameHeaderSize+len(f.Payload))}
	e.WriteByte(byte(f.Type))
	e.WriteByte(byte(f.Flags))
	e.WriteUint32(uint32(len(f.Payload)))
	e.buf = append(e.buf, f.Payload...)
	return e.Bytes(), nil
}

// DecodeFrame decodes a frame from exactly one encoded frame. The payload
// is copied.
func DecodeFrame(data []byte) (*Frame, error) {
	ft, flags, length, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	if len(data) < FrameHeaderSize+length {
		return nil, io.ErrUnexpectedEOF
	}
	if len(data) > FrameHeaderSize+length {
		return nil, errors.Wrapf(ErrTrailingBytes, "%d bytes after frame", len(data)-FrameHeaderSize-length)
	}

	payload := make([]byte, length)
	copy(payload, data[FrameHeaderSize:])
	return &Frame{Type: ft, Flags: flags, Payload: payload}, nil
}

func decodeHeader(header []byte) (FrameType, FrameFlags, int, error) {
	if len(header) < FrameHeaderSize {
		return 0, 0, 0, io.ErrUnexpectedEOF
	}
	ft := FrameType(header[0])
	switch ft {
	case FrameSnapshot, FramePatches, FrameError:
	default:
		return 0, 0, 0, errors.Wrapf(ErrInvalidFrameType, "0x%02x", header[0])
	}
	length := int(header[2])<<24 | int(header[3])<<16 | int(header[4])<<8 | int(header[5])
	if length > MaxPayloadSize {
		return 0, 0, 0, errors.Wrapf(ErrFrameTooLarge, "%d bytes", length)
	}
	return ft, FrameFlags(header[1]), length, nil
}

// ReadFrame reads a complete frame from an io.Reader.
func ReadFrame(r io.Reader) (*Frame, error) {
	header := make([]byte, FrameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	ft, flags, length, err := decodeHeader(header)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
	}
	return &Frame{Type: ft, Flags: flags, Payload: payload}, nil
}

// WriteFrame writes a complete frame to an io.Writer.
func WriteFrame(w io.Writer, f *Frame) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
