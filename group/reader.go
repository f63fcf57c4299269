package group

import (
	"bytes"
	"errors"
	"io"
	"iter"

	"github.com/davidvella/pbstream/framing"
)

// DelimiterMode selects how a Reader treats delimiter marker groups.
type DelimiterMode int

const (
	// DelimiterOff treats a delimiter group as an ordinary message.
	DelimiterOff DelimiterMode = iota

	// DelimiterFilter drops delimiter groups; the caller never sees them.
	DelimiterFilter

	// DelimiterSurface yields delimiter groups as EntryDelimiter entries.
	DelimiterSurface
)

// EntryKind distinguishes payload messages from delimiter markers.
type EntryKind int

const (
	EntryMessage EntryKind = iota
	EntryDelimiter
)

// Entry is a single decoded stream entry. Data is nil for delimiters.
type Entry struct {
	Kind EntryKind
	Data []byte
}

// ReaderOptions configures the behavior of a Reader.
type ReaderOptions struct {
	// Mode selects delimiter handling. The zero value is DelimiterOff.
	Mode DelimiterMode

	// Delimiter overrides the marker bytes. Defaults to Delimiter.
	Delimiter []byte
}

// Reader decodes a stream of count-prefixed groups into a lazy sequence of
// messages. It is not safe for concurrent use.
type Reader struct {
	fr        *framing.Reader
	mode      DelimiterMode
	delimiter []byte

	// remaining is the number of messages left in the current group; zero
	// means the reader is at a group boundary. groupCount is the declared
	// count of the current group.
	remaining  uint64
	groupCount uint64
	exhausted  bool
}

// NewReader returns a Reader decoding groups from r.
func NewReader(r io.Reader, opts *ReaderOptions) *Reader {
	if opts == nil {
		opts = &ReaderOptions{}
	}

	gr := &Reader{
		fr:   framing.NewReader(r),
		mode: opts.Mode,
	}

	if gr.mode != DelimiterOff {
		gr.delimiter = opts.Delimiter
		if gr.delimiter == nil {
			gr.delimiter = Delimiter
		}
	}

	return gr
}

// Next returns the next entry in the stream. A clean end of stream at a
// group boundary returns io.EOF; a stream ending anywhere else returns an
// error wrapping framing.ErrTruncated. Once io.EOF is returned the reader
// stays exhausted.
//
// Groups with a declared count of zero are skipped transparently.
func (gr *Reader) Next() (Entry, error) {
	for {
		if gr.exhausted {
			return Entry{}, io.EOF
		}

		if gr.remaining == 0 {
			count, err := gr.fr.ReadUvarint()
			if errors.Is(err, io.EOF) {
				gr.exhausted = true
				return Entry{}, io.EOF
			}
			if err != nil {
				return Entry{}, err
			}
			if count == 0 {
				continue
			}
			gr.remaining = count
			gr.groupCount = count
		}

		data, err := gr.fr.ReadMessage()
		if err != nil {
			return Entry{}, err
		}
		gr.remaining--

		// A one-message group carrying the marker bytes is a delimiter.
		if gr.mode != DelimiterOff && gr.groupCount == 1 && bytes.Equal(data, gr.delimiter) {
			if gr.mode == DelimiterFilter {
				continue
			}
			return Entry{Kind: EntryDelimiter}, nil
		}

		return Entry{Kind: EntryMessage, Data: data}, nil
	}
}

// All returns an iterator over the remaining entries. Decoding errors are
// yielded once with a zero Entry, after which iteration stops; a clean end
// of stream simply ends the iteration.
func (gr *Reader) All() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for {
			entry, err := gr.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Entry{}, err)
				return
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// Messages returns an iterator over the remaining payload message bytes,
// dropping delimiter entries regardless of mode.
func (gr *Reader) Messages() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for entry, err := range gr.All() {
			if err != nil {
				yield(nil, err)
				return
			}
			if entry.Kind != EntryMessage {
				continue
			}
			if !yield(entry.Data, nil) {
				return
			}
		}
	}
}
