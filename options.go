package pbstream

import (
	"github.com/davidvella/pbstream/compress"
	"github.com/davidvella/pbstream/group"
)

// options defines all configuration options for a stream.
type options struct {
	// Shared options
	codec  compress.Codec // whole-stream compression transform
	header []byte         // fixed bytes written/validated at stream start

	// Write options
	policy          group.BufferPolicy // buffering policy for outgoing groups
	writeDelimiters bool               // tag every flushed group with a delimiter

	// Read options
	delimiterMode group.DelimiterMode // filter or surface delimiter markers

	// Delimiter marker override, both sides
	delimiter []byte
}

// Option is a function that configures stream options.
type Option func(*options)

// WithCompression wraps the whole stream with the given compression codec.
func WithCompression(c compress.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithHeader sets the fixed header bytes written at the start of a write
// stream and validated at the start of a read stream.
func WithHeader(header []byte) Option {
	return func(o *options) {
		o.header = header
	}
}

// WithBufferPolicy sets the buffering policy for outgoing groups.
func WithBufferPolicy(p group.BufferPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithBufferSize sets a fixed buffering threshold of k messages per group.
// A k of zero disables buffering: every Write call becomes one group.
func WithBufferSize(k int) Option {
	return func(o *options) {
		if k == 0 {
			o.policy = group.Immediate()
			return
		}
		o.policy = group.Fixed(k)
	}
}

// WithUnboundedBuffer buffers messages until an explicit Flush or Close,
// which emits the entire buffer as a single group.
func WithUnboundedBuffer() Option {
	return func(o *options) {
		o.policy = group.Unbounded()
	}
}

// WithDelimiters enables delimiter markers: a write stream tags every
// flushed group with a marker group, and a read stream filters markers out
// of the message sequence.
func WithDelimiters() Option {
	return func(o *options) {
		o.writeDelimiters = true
		o.delimiterMode = group.DelimiterFilter
	}
}

// WithSurfacedDelimiters enables delimiter markers and makes a read stream
// yield them as EntryDelimiter entries instead of filtering them.
func WithSurfacedDelimiters() Option {
	return func(o *options) {
		o.writeDelimiters = true
		o.delimiterMode = group.DelimiterSurface
	}
}

// WithDelimiterBytes overrides the delimiter marker bytes. Implies nothing
// about delimiter mode; combine with WithDelimiters or
// WithSurfacedDelimiters.
func WithDelimiterBytes(delimiter []byte) Option {
	return func(o *options) {
		o.delimiter = delimiter
	}
}

// defaultOptions returns the default configuration: no compression, no
// header, no delimiters, one group per Write call.
func defaultOptions() options {
	return options{
		codec:         compress.None,
		policy:        group.Immediate(),
		delimiterMode: group.DelimiterOff,
	}
}
