package framing

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrTruncated is returned when the stream ends inside a varint or
	// inside a message body. A stream that ends cleanly at a group
	// boundary yields io.EOF instead, never ErrTruncated.
	ErrTruncated = errors.New("framing: stream truncated")

	// ErrCorrupt is returned when a varint encoding is malformed: a run
	// of continuation bytes that overflows 64 bits.
	ErrCorrupt = errors.New("framing: corrupt varint")
)

// Writer handles writing framing primitives with error handling.
type Writer struct {
	w       io.Writer
	scratch [binary.MaxVarintLen64]byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteUvarint writes n in the self-delimiting unsigned varint encoding used
// for both group counts and message lengths.
func (fw *Writer) WriteUvarint(n uint64) (int64, error) {
	size := binary.PutUvarint(fw.scratch[:], n)
	written, err := fw.w.Write(fw.scratch[:size])
	if err != nil {
		return int64(written), fmt.Errorf("error writing varint: %w", err)
	}
	return int64(written), nil
}

// WriteMessage writes the length of b as a varint followed by the raw bytes.
func (fw *Writer) WriteMessage(b []byte) (int64, error) {
	var totalBytes int64

	n, err := fw.WriteUvarint(uint64(len(b)))
	if err != nil {
		return totalBytes, fmt.Errorf("error writing message length: %w", err)
	}
	totalBytes += n

	written, err := fw.w.Write(b)
	if err != nil {
		return totalBytes + int64(written), fmt.Errorf("error writing message content: %w", err)
	}
	totalBytes += int64(written)

	return totalBytes, nil
}

// Reader handles reading framing primitives with error handling.
type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadUvarint reads a single varint byte by byte. A clean end of stream
// before the first byte returns io.EOF; an end of stream after a partial
// varint returns ErrTruncated; an encoding that overflows 64 bits returns
// ErrCorrupt.
func (fr *Reader) ReadUvarint() (uint64, error) {
	var value uint64
	var shift uint

	for i := 0; ; i++ {
		b, err := fr.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if i == 0 {
					return 0, io.EOF
				}
				return 0, fmt.Errorf("%w: unexpected end of stream inside varint", ErrTruncated)
			}
			return 0, fmt.Errorf("error reading varint: %w", err)
		}

		if b < 0x80 {
			if i == binary.MaxVarintLen64-1 && b > 1 {
				return 0, fmt.Errorf("%w: varint overflows 64 bits", ErrCorrupt)
			}
			return value | uint64(b)<<shift, nil
		}
		if i == binary.MaxVarintLen64-1 {
			return 0, fmt.Errorf("%w: varint overflows 64 bits", ErrCorrupt)
		}

		value |= uint64(b&0x7f) << shift
		shift += 7
	}
}

// ReadMessage reads a varint length followed by exactly that many raw bytes.
func (fr *Reader) ReadMessage() ([]byte, error) {
	length, err := fr.ReadUvarint()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: stream ended before message length", ErrTruncated)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading message length: %w", err)
	}

	b := make([]byte, length)
	if _, err := io.ReadFull(fr.r, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: stream ended inside message body", ErrTruncated)
		}
		return nil, fmt.Errorf("error reading message content: %w", err)
	}
	return b, nil
}

// UvarintLen returns the encoded size of n in bytes.
func UvarintLen(n uint64) int64 {
	var scratch [binary.MaxVarintLen64]byte
	return int64(binary.PutUvarint(scratch[:], n))
}

// MessageLen returns the total size in bytes that a message will occupy when
// written, including its length prefix.
func MessageLen(b []byte) int64 {
	return UvarintLen(uint64(len(b))) + int64(len(b))
}
