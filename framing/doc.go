// Package framing implements the varint framing primitives of the stream
// wire format. A single self-delimiting unsigned varint encoding backs both
// group counts and message lengths, and a message is its varint length
// followed by that many raw bytes.
//
// Basic usage:
//
//	var buf bytes.Buffer
//	fw := framing.NewWriter(&buf)
//	if _, err := fw.WriteMessage([]byte("Hello, World!")); err != nil {
//	    log.Fatal(err)
//	}
//
//	fr := framing.NewReader(&buf)
//	msg, err := fr.ReadMessage()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// A stream ending cleanly before a varint yields io.EOF; a stream ending
// inside a varint or a message body yields ErrTruncated.
package framing
