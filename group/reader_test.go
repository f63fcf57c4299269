package group_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/davidvella/pbstream/framing"
	"github.com/davidvella/pbstream/group"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, gr *group.Reader) [][]byte {
	t.Helper()

	var msgs [][]byte
	for msg, err := range gr.Messages() {
		require.NoError(t, err)
		msgs = append(msgs, msg)
	}
	return msgs
}

func TestReaderRoundTrip(t *testing.T) {
	messages := [][]byte{
		[]byte("a"),
		[]byte("bb"),
		[]byte("ccc"),
		{},
		bytes.Repeat([]byte{0xff}, 500),
	}

	tests := []struct {
		name   string
		policy group.BufferPolicy
	}{
		{name: "immediate", policy: group.Immediate()},
		{name: "fixed 1", policy: group.Fixed(1)},
		{name: "fixed 2", policy: group.Fixed(2)},
		{name: "fixed larger than input", policy: group.Fixed(100)},
		{name: "unbounded", policy: group.Unbounded()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			gw, err := group.NewWriter(buf, &group.WriterOptions{Policy: tt.policy})
			require.NoError(t, err)

			for _, msg := range messages {
				require.NoError(t, gw.Write(msg))
			}
			require.NoError(t, gw.Close())

			// The decoded sequence is identical regardless of how the
			// policy grouped the wire bytes.
			got := collect(t, group.NewReader(buf, nil))
			assert.Equal(t, messages, got)
		})
	}
}

func TestReaderEmptyStream(t *testing.T) {
	gr := group.NewReader(bytes.NewReader(nil), nil)
	_, err := gr.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderExhaustedStaysExhausted(t *testing.T) {
	buf := new(bytes.Buffer)
	gw, err := group.NewWriter(buf, nil)
	require.NoError(t, err)
	require.NoError(t, gw.Write([]byte("only")))
	require.NoError(t, gw.Close())

	gr := group.NewReader(buf, nil)

	entry, err := gr.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("only"), entry.Data)

	for range 3 {
		_, err = gr.Next()
		assert.ErrorIs(t, err, io.EOF)
	}
}

func TestReaderSkipsZeroCountGroups(t *testing.T) {
	// Hand-framed stream: empty group, "a", two empty groups, "b".
	data := []byte{
		0x00,
		0x01, 0x01, 'a',
		0x00,
		0x00,
		0x01, 0x01, 'b',
	}

	got := collect(t, group.NewReader(bytes.NewReader(data), nil))
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, got)
}

func TestReaderTruncation(t *testing.T) {
	buf := new(bytes.Buffer)
	gw, err := group.NewWriter(buf, &group.WriterOptions{Policy: group.Fixed(2)})
	require.NoError(t, err)
	require.NoError(t, gw.Write([]byte("aaaa"), []byte("bbbb"), []byte("cc")))
	require.NoError(t, gw.Close())

	full := buf.Bytes()

	// Cutting the stream at any interior byte offset must surface
	// ErrTruncated, never a silently short sequence. Offsets that land
	// exactly on a group boundary are a clean EOF instead.
	boundaries := map[int]bool{0: true, 11: true, len(full): true}

	for cut := 0; cut <= len(full); cut++ {
		gr := group.NewReader(bytes.NewReader(full[:cut]), nil)

		var readErr error
		for {
			_, err := gr.Next()
			if err != nil {
				readErr = err
				break
			}
		}

		if boundaries[cut] {
			assert.ErrorIs(t, readErr, io.EOF, "offset %d", cut)
		} else {
			assert.ErrorIs(t, readErr, framing.ErrTruncated, "offset %d", cut)
		}
	}
}

func TestReaderDelimiterFilter(t *testing.T) {
	buf := new(bytes.Buffer)
	gw, err := group.NewWriter(buf, &group.WriterOptions{WriteDelimiters: true})
	require.NoError(t, err)
	require.NoError(t, gw.Write([]byte("a")))
	require.NoError(t, gw.Write([]byte("bb")))
	require.NoError(t, gw.Close())

	gr := group.NewReader(buf, &group.ReaderOptions{Mode: group.DelimiterFilter})

	got := collect(t, gr)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("bb")}, got)
}

func TestReaderDelimiterSurface(t *testing.T) {
	buf := new(bytes.Buffer)
	gw, err := group.NewWriter(buf, &group.WriterOptions{WriteDelimiters: true})
	require.NoError(t, err)
	require.NoError(t, gw.Write([]byte("a")))
	require.NoError(t, gw.Write([]byte("bb")))
	require.NoError(t, gw.Close())

	gr := group.NewReader(buf, &group.ReaderOptions{Mode: group.DelimiterSurface})

	var kinds []group.EntryKind
	var groups int
	for entry, err := range gr.All() {
		require.NoError(t, err)
		kinds = append(kinds, entry.Kind)
		if entry.Kind == group.EntryDelimiter {
			groups++
		}
	}

	assert.Equal(t, []group.EntryKind{
		group.EntryMessage,
		group.EntryDelimiter,
		group.EntryMessage,
		group.EntryDelimiter,
	}, kinds)
	assert.Equal(t, 2, groups)
}

func TestReaderDelimiterOff(t *testing.T) {
	buf := new(bytes.Buffer)
	gw, err := group.NewWriter(buf, &group.WriterOptions{WriteDelimiters: true})
	require.NoError(t, err)
	require.NoError(t, gw.Write([]byte("a")))
	require.NoError(t, gw.Close())

	// Without delimiter handling the marker reads back as an ordinary
	// message.
	got := collect(t, group.NewReader(buf, nil))
	assert.Equal(t, [][]byte{[]byte("a"), {0x1D}}, got)
}

func TestReaderDelimiterRequiresSingleMessageGroup(t *testing.T) {
	// A group of two messages where one equals the marker bytes is not a
	// delimiter; only a one-message marker group is.
	data := []byte{
		0x02,
		0x01, 0x1D,
		0x01, 'a',
	}

	gr := group.NewReader(bytes.NewReader(data), &group.ReaderOptions{Mode: group.DelimiterFilter})
	got := collect(t, gr)
	assert.Equal(t, [][]byte{{0x1D}, []byte("a")}, got)
}

func TestReaderAllStopsOnError(t *testing.T) {
	// Count promises a message that never arrives.
	data := []byte{0x02, 0x01, 'a'}

	gr := group.NewReader(bytes.NewReader(data), nil)

	var msgs int
	var readErr error
	for entry, err := range gr.All() {
		if err != nil {
			readErr = err
			break
		}
		_ = entry
		msgs++
	}

	assert.Equal(t, 1, msgs)
	assert.ErrorIs(t, readErr, framing.ErrTruncated)
}
