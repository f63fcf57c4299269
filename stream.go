package pbstream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/davidvella/pbstream/group"
)

var (
	// ErrHeaderMismatch is returned when a stream opened for reading does
	// not start with the expected header bytes.
	ErrHeaderMismatch = errors.New("pbstream: header mismatch - not the expected stream kind")

	// ErrWrongMode is returned when an operation does not match the mode
	// the stream was opened with.
	ErrWrongMode = errors.New("pbstream: operation not allowed in this mode")

	// ErrInvalidMode is returned by Open for an unknown mode.
	ErrInvalidMode = errors.New("pbstream: invalid mode")

	// ErrStreamClosed is returned by operations on a closed stream.
	ErrStreamClosed = errors.New("pbstream: stream is closed")

	// ErrAppendUnsupported is returned by Open in Append mode with a
	// compression codec whose reader cannot decode concatenated frames.
	// Appending would write a frame the reader silently stops before.
	ErrAppendUnsupported = errors.New("pbstream: compression codec does not support append")
)

// Mode selects the access mode of a stream.
type Mode int

const (
	// Read opens an existing stream for iteration.
	Read Mode = iota

	// Write creates or truncates a stream for writing.
	Write

	// Append positions at the end of an existing stream. The header is
	// never re-written and prior content is not validated.
	Append
)

// String returns the human-readable name of a mode.
func (m Mode) String() string {
	switch m {
	case Read:
		return "read"
	case Write:
		return "write"
	case Append:
		return "append"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// Stream is a handle on a sequence of varint-framed message groups, opened
// either for reading or for writing. It is not safe for concurrent use;
// callers needing concurrency must lock externally.
type Stream struct {
	mode   Mode
	file   io.Closer // underlying channel when owned, nil otherwise
	comp   io.Closer // compression layer, closed before file
	writer *group.Writer
	reader *group.Reader
	closed bool
}

// Open opens the stream at path in the given mode. In Write mode the file is
// created or truncated and the configured header is written before any
// group; in Append mode writes go to the end of the existing content; in
// Read mode the expected header is validated before any group is decoded.
//
// The returned stream owns the file and releases it on Close.
func Open(path string, mode Mode, opts ...Option) (*Stream, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	switch mode {
	case Read:
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("pbstream: failed to open %s: %w", path, err)
		}
		return newReadStream(file, file, o)

	case Write:
		file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("pbstream: failed to create %s: %w", path, err)
		}
		return newWriteStream(file, file, mode, o)

	case Append:
		if !o.codec.SupportsConcatenation() {
			return nil, fmt.Errorf("%w: %s", ErrAppendUnsupported, o.codec)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("pbstream: failed to open %s: %w", path, err)
		}
		return newWriteStream(file, file, mode, o)

	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}
}

// NewReadStream opens a stream over an arbitrary byte source, such as a
// bytes.Reader or network connection. The caller retains ownership of r;
// Close releases only the stream's own resources.
func NewReadStream(r io.Reader, opts ...Option) (*Stream, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newReadStream(r, nil, o)
}

// NewWriteStream opens a stream over an arbitrary byte sink. The caller
// retains ownership of w; Close flushes buffered groups and finalizes the
// compression layer but does not close w.
func NewWriteStream(w io.Writer, opts ...Option) (*Stream, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newWriteStream(w, nil, Write, o)
}

func newReadStream(r io.Reader, file io.Closer, o options) (*Stream, error) {
	cr, err := o.codec.NewReader(r)
	if err != nil {
		closeIgnore(file)
		return nil, err
	}

	if len(o.header) > 0 {
		got := make([]byte, len(o.header))
		if _, err := io.ReadFull(cr, got); err != nil {
			closeIgnore(cr, file)
			return nil, fmt.Errorf("%w: failed to read header: %w", ErrHeaderMismatch, err)
		}
		if !bytes.Equal(got, o.header) {
			closeIgnore(cr, file)
			return nil, fmt.Errorf("%w: got % x, want % x", ErrHeaderMismatch, got, o.header)
		}
	}

	return &Stream{
		mode: Read,
		file: file,
		comp: cr,
		reader: group.NewReader(cr, &group.ReaderOptions{
			Mode:      o.delimiterMode,
			Delimiter: o.delimiter,
		}),
	}, nil
}

func newWriteStream(w io.Writer, file io.Closer, mode Mode, o options) (*Stream, error) {
	cw, err := o.codec.NewWriter(w)
	if err != nil {
		closeIgnore(file)
		return nil, err
	}

	if len(o.header) > 0 && mode != Append {
		if _, err := cw.Write(o.header); err != nil {
			closeIgnore(cw, file)
			return nil, fmt.Errorf("pbstream: failed to write header: %w", err)
		}
	}

	gw, err := group.NewWriter(cw, &group.WriterOptions{
		Policy:          o.policy,
		WriteDelimiters: o.writeDelimiters,
		Delimiter:       o.delimiter,
	})
	if err != nil {
		closeIgnore(cw, file)
		return nil, err
	}

	return &Stream{
		mode:   mode,
		file:   file,
		comp:   cw,
		writer: gw,
	}, nil
}

// Write appends pre-serialized messages to the stream, flushing groups
// according to the buffering policy. A call with zero messages is a no-op.
func (s *Stream) Write(msgs ...[]byte) error {
	if s.closed {
		return ErrStreamClosed
	}
	if s.mode == Read {
		return fmt.Errorf("%w: write on a %s stream", ErrWrongMode, s.mode)
	}
	return s.writer.Write(msgs...)
}

// Flush emits any buffered messages as one group.
func (s *Stream) Flush() error {
	if s.closed {
		return ErrStreamClosed
	}
	if s.mode == Read {
		return fmt.Errorf("%w: flush on a %s stream", ErrWrongMode, s.mode)
	}
	return s.writer.Flush()
}

// Next returns the next entry of a read stream. A clean end of stream
// returns io.EOF.
func (s *Stream) Next() (group.Entry, error) {
	if s.closed {
		return group.Entry{}, ErrStreamClosed
	}
	if s.mode != Read {
		return group.Entry{}, fmt.Errorf("%w: read on a %s stream", ErrWrongMode, s.mode)
	}
	return s.reader.Next()
}

// All returns an iterator over the remaining entries of a read stream.
// Errors, including a wrong-mode error, are yielded once and end the
// iteration.
func (s *Stream) All() iter.Seq2[group.Entry, error] {
	return func(yield func(group.Entry, error) bool) {
		for {
			entry, err := s.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(group.Entry{}, err)
				return
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// Messages returns an iterator over the remaining payload message bytes,
// dropping delimiter entries.
func (s *Stream) Messages() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for entry, err := range s.All() {
			if err != nil {
				yield(nil, err)
				return
			}
			if entry.Kind != group.EntryMessage {
				continue
			}
			if !yield(entry.Data, nil) {
				return
			}
		}
	}
}

// Close flushes pending messages, finalizes the compression layer, and
// releases the underlying file. All three happen even when an earlier step
// fails, and every error surfaces: a swallowed close-time flush error is
// silent data loss. Close is idempotent; a second call returns nil.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.writer != nil {
		if err := s.writer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.comp != nil {
		if err := s.comp.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// closeIgnore releases resources on constructor error paths, where the
// original error is the one worth reporting.
func closeIgnore(closers ...io.Closer) {
	for _, c := range closers {
		if c != nil {
			_ = c.Close()
		}
	}
}
