package pbstream

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/davidvella/pbstream/group"
)

// UnmarshalFunc decodes one raw message into a value. It is the read-side
// half of the external serializer collaborator; the stream itself never
// interprets message bytes.
type UnmarshalFunc[T any] func(data []byte) (T, error)

// MarshalFunc encodes one value into raw message bytes.
type MarshalFunc[T any] func(value T) ([]byte, error)

// Parse opens the stream at path for reading and returns a lazy iterator of
// decoded values. The stream is opened when iteration starts and released
// when iteration ends, on every path including early break and decode
// errors. Errors are yielded once with the zero value and end the iteration.
func Parse[T any](path string, unmarshal UnmarshalFunc[T], opts ...Option) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		s, err := Open(path, Read, opts...)
		if err != nil {
			yield(zero, err)
			return
		}
		defer s.Close()

		for {
			entry, err := s.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(zero, err)
				return
			}
			if entry.Kind != group.EntryMessage {
				continue
			}

			value, err := unmarshal(entry.Data)
			if err != nil {
				yield(zero, fmt.Errorf("pbstream: failed to unmarshal message: %w", err))
				return
			}
			if !yield(value, nil) {
				return
			}
		}
	}
}

// Dump opens the stream at path for writing, encodes the values with
// marshal, and writes them in a single Write call before closing. Under the
// default policy the values form one group; a buffering option splits them
// accordingly.
func Dump[T any](path string, marshal MarshalFunc[T], values []T, opts ...Option) error {
	msgs := make([][]byte, 0, len(values))
	for _, value := range values {
		data, err := marshal(value)
		if err != nil {
			return fmt.Errorf("pbstream: failed to marshal value: %w", err)
		}
		msgs = append(msgs, data)
	}

	s, err := Open(path, Write, opts...)
	if err != nil {
		return err
	}

	if err := s.Write(msgs...); err != nil {
		closeIgnore(s)
		return err
	}

	return s.Close()
}
