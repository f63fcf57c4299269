package compress_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/davidvella/pbstream/compress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("stream codec payload "), 1000)

	tests := []struct {
		name  string
		codec compress.Codec
	}{
		{name: "none", codec: compress.None},
		{name: "gzip", codec: compress.Gzip},
		{name: "zstd", codec: compress.Zstd},
		{name: "lz4", codec: compress.LZ4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)

			w, err := tt.codec.NewWriter(buf)
			require.NoError(t, err)
			_, err = w.Write(payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			if tt.codec != compress.None {
				assert.Less(t, buf.Len(), len(payload))
			}

			r, err := tt.codec.NewReader(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())

			assert.Equal(t, payload, got)
		})
	}
}

func TestCodecStreaming(t *testing.T) {
	// Several small writes must land in one coherent compressed stream.
	chunks := [][]byte{
		[]byte("first"),
		[]byte("second"),
		[]byte("third"),
	}

	for _, codec := range []compress.Codec{compress.None, compress.Gzip, compress.Zstd, compress.LZ4} {
		t.Run(codec.String(), func(t *testing.T) {
			buf := new(bytes.Buffer)

			w, err := codec.NewWriter(buf)
			require.NoError(t, err)
			for _, chunk := range chunks {
				_, err = w.Write(chunk)
				require.NoError(t, err)
			}
			require.NoError(t, w.Close())

			r, err := codec.NewReader(buf)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)

			assert.Equal(t, []byte("firstsecondthird"), got)
		})
	}
}

func TestCodecConcatenation(t *testing.T) {
	tests := []struct {
		name  string
		codec compress.Codec
	}{
		{name: "none", codec: compress.None},
		{name: "gzip", codec: compress.Gzip},
		{name: "zstd", codec: compress.Zstd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, tt.codec.SupportsConcatenation())

			// Two independently finalized frames back to back, as an
			// append-mode open produces.
			buf := new(bytes.Buffer)
			for _, chunk := range [][]byte{[]byte("first"), []byte("second")} {
				w, err := tt.codec.NewWriter(buf)
				require.NoError(t, err)
				_, err = w.Write(chunk)
				require.NoError(t, err)
				require.NoError(t, w.Close())
			}

			r, err := tt.codec.NewReader(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)

			assert.Equal(t, []byte("firstsecond"), got)
		})
	}
}

func TestLZ4NoConcatenation(t *testing.T) {
	assert.False(t, compress.LZ4.SupportsConcatenation())
}

func TestParseCodec(t *testing.T) {
	tests := []struct {
		name     string
		expected compress.Codec
		wantErr  bool
	}{
		{name: "none", expected: compress.None},
		{name: "gzip", expected: compress.Gzip},
		{name: "zstd", expected: compress.Zstd},
		{name: "lz4", expected: compress.LZ4},
		{name: "snappy", wantErr: true},
		{name: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, err := compress.ParseCodec(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, codec)
			assert.Equal(t, tt.name, codec.String())
		})
	}
}

func TestCodecUnknown(t *testing.T) {
	unknown := compress.Codec(42)

	_, err := unknown.NewWriter(new(bytes.Buffer))
	assert.Error(t, err)

	_, err = unknown.NewReader(bytes.NewReader(nil))
	assert.Error(t, err)

	assert.Equal(t, "unknown(42)", unknown.String())
}
