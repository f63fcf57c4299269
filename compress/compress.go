// Package compress provides the optional whole-stream compression transform.
// A Codec wraps a raw byte sink or source with a streaming compressor or
// decompressor; the stream format itself is unaware of the wrapping.
package compress

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies a compression algorithm. The zero value is None.
type Codec uint8

const (
	// None passes bytes through unchanged.
	None Codec = iota

	// Gzip is the classic gzip stream format, the historical default for
	// stream files.
	Gzip

	// Zstd trades a little CPU for better ratios on text-like payloads.
	Zstd

	// LZ4 is the fastest option with modest ratios.
	LZ4
)

// String returns the human-readable name of a codec.
func (c Codec) String() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCodec parses a codec from its string representation.
func ParseCodec(name string) (Codec, error) {
	switch name {
	case "none":
		return None, nil
	case "gzip":
		return Gzip, nil
	case "zstd":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	default:
		return 0, fmt.Errorf("compress: unknown codec: %q", name)
	}
}

// SupportsConcatenation reports whether the codec's reader decodes a
// sequence of independently finalized compressed frames as one byte stream.
// Appending to an existing stream starts a fresh frame at the tail, so only
// concatenation-safe codecs can back an appendable stream. Gzip and zstd
// readers decode concatenated members natively; the LZ4 frame reader stops
// at the first end mark.
func (c Codec) SupportsConcatenation() bool {
	switch c {
	case None, Gzip, Zstd:
		return true
	default:
		return false
	}
}

// nopWriteCloser adapts an io.Writer for the None codec.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// NewWriter wraps w with a streaming compressor for the codec. Closing the
// returned writer finalizes the compressed stream but does not close w.
func (c Codec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("compress: zstd writer: %w", err)
		}
		return zw, nil
	case LZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("compress: unknown codec: %d", uint8(c))
	}
}

// zstdReadCloser adapts zstd.Decoder, whose Close has no return value.
type zstdReadCloser struct {
	*zstd.Decoder
}

func (zr zstdReadCloser) Close() error {
	zr.Decoder.Close()
	return nil
}

// NewReader wraps r with a streaming decompressor for the codec. Closing the
// returned reader releases decoder resources but does not close r.
func (c Codec) NewReader(r io.Reader) (io.ReadCloser, error) {
	switch c {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("compress: gzip reader: %w", err)
		}
		return gr, nil
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("compress: zstd reader: %w", err)
		}
		return zstdReadCloser{zr}, nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("compress: unknown codec: %d", uint8(c))
	}
}
