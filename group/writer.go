package group

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/davidvella/pbstream/framing"
)

var (
	ErrInvalidBufferSize = errors.New("group: buffer size must be greater than 0")
	ErrWriterClosed      = errors.New("group: writer is closed")
)

// Delimiter is the default group delimiter marker, the ASCII group separator
// character.
var Delimiter = []byte{0x1D}

type policyKind int

const (
	policyImmediate policyKind = iota
	policyFixed
	policyUnbounded
)

// BufferPolicy controls how a Writer batches messages into on-wire groups.
// Construct one with Immediate, Fixed, or Unbounded.
type BufferPolicy struct {
	kind policyKind
	size int
}

// Immediate disables buffering: every Write call is flushed as exactly one
// group containing the messages passed in that call.
func Immediate() BufferPolicy {
	return BufferPolicy{kind: policyImmediate}
}

// Fixed buffers messages and flushes a group of size k whenever the buffer
// reaches k messages. A final partial group stays pending until Flush or
// Close.
func Fixed(k int) BufferPolicy {
	return BufferPolicy{kind: policyFixed, size: k}
}

// Unbounded buffers messages indefinitely; only Flush or Close emits the
// whole buffer as a single group.
func Unbounded() BufferPolicy {
	return BufferPolicy{kind: policyUnbounded}
}

// WriterOptions configures the behavior of a Writer.
type WriterOptions struct {
	// Policy selects the buffering policy. The zero value is Immediate.
	Policy BufferPolicy

	// WriteDelimiters writes a delimiter marker as its own one-message
	// group after every flushed group.
	WriteDelimiters bool

	// Delimiter overrides the marker bytes. Defaults to Delimiter.
	Delimiter []byte
}

// Writer batches pre-serialized messages and emits them as count-prefixed
// groups. It is not safe for concurrent use; callers needing concurrency
// must lock externally.
type Writer struct {
	fw        *framing.Writer
	policy    BufferPolicy
	delimiter []byte
	buffer    [][]byte
	closed    bool
}

// NewWriter returns a Writer emitting groups to w. The underlying writer is
// not closed by Close; the caller retains ownership.
func NewWriter(w io.Writer, opts *WriterOptions) (*Writer, error) {
	if w == nil {
		return nil, errors.New("group: writer cannot be nil")
	}

	if opts == nil {
		opts = &WriterOptions{}
	}

	if opts.Policy.kind == policyFixed && opts.Policy.size <= 0 {
		return nil, ErrInvalidBufferSize
	}

	gw := &Writer{
		fw:     framing.NewWriter(w),
		policy: opts.Policy,
	}

	if opts.WriteDelimiters {
		gw.delimiter = opts.Delimiter
		if gw.delimiter == nil {
			gw.delimiter = Delimiter
		}
	}

	return gw, nil
}

// Write appends messages to the buffer, flushing groups as the policy
// dictates. A call with zero messages is a no-op in every policy; it never
// emits an empty group.
//
// Buffered messages are copied, so the caller may reuse the msg slices as
// soon as Write returns.
func (gw *Writer) Write(msgs ...[]byte) error {
	if gw.closed {
		return ErrWriterClosed
	}

	if len(msgs) == 0 {
		return nil
	}

	if gw.policy.kind == policyImmediate {
		return gw.flushGroup(msgs)
	}

	for _, msg := range msgs {
		gw.buffer = append(gw.buffer, bytes.Clone(msg))
		if gw.policy.kind == policyFixed && len(gw.buffer) >= gw.policy.size {
			if err := gw.flushBuffer(); err != nil {
				return err
			}
		}
	}

	return nil
}

// Flush emits the buffered messages as one group and empties the buffer. A
// flush with an empty buffer is a no-op.
func (gw *Writer) Flush() error {
	if gw.closed {
		return ErrWriterClosed
	}
	return gw.flushBuffer()
}

// Close performs a final flush. Close is idempotent; a second call does
// nothing and returns nil. The underlying writer is not closed.
func (gw *Writer) Close() error {
	if gw.closed {
		return nil
	}
	gw.closed = true
	return gw.flushBuffer()
}

// Pending reports the number of buffered messages not yet flushed.
func (gw *Writer) Pending() int {
	return len(gw.buffer)
}

func (gw *Writer) flushBuffer() error {
	if len(gw.buffer) == 0 {
		return nil
	}

	err := gw.flushGroup(gw.buffer)
	gw.buffer = gw.buffer[:0]
	return err
}

func (gw *Writer) flushGroup(msgs [][]byte) error {
	if _, err := gw.fw.WriteUvarint(uint64(len(msgs))); err != nil {
		return fmt.Errorf("failed to write group count: %w", err)
	}

	for _, msg := range msgs {
		if _, err := gw.fw.WriteMessage(msg); err != nil {
			return fmt.Errorf("failed to write message: %w", err)
		}
	}

	if gw.delimiter != nil {
		if _, err := gw.fw.WriteUvarint(1); err != nil {
			return fmt.Errorf("failed to write delimiter group count: %w", err)
		}
		if _, err := gw.fw.WriteMessage(gw.delimiter); err != nil {
			return fmt.Errorf("failed to write delimiter: %w", err)
		}
	}

	return nil
}
