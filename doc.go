// Package pbstream reads and writes streams of length-delimited binary
// messages packed into groups, the framing used for streamed protocol buffer
// files. Messages are opaque byte strings: serialization stays with the
// caller, the stream only moves bytes.
//
// The wire format is a sequence of groups, each a varint message count
// followed by that many varint-length-prefixed messages, optionally preceded
// by a fixed header and optionally wrapped end-to-end by a compression
// transform:
//
//	stream  := [header] group*
//	group   := count(uvarint) message{count}
//	message := length(uvarint) raw_bytes{length}
//
// Writing:
//
//	s, err := pbstream.Open("reads.dat", pbstream.Write,
//	    pbstream.WithCompression(compress.Gzip))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := s.Write(first, second, third); err != nil {
//	    log.Fatal(err)
//	}
//	if err := s.Close(); err != nil {
//	    log.Fatal(err)
//	}
//
// Reading:
//
//	s, err := pbstream.Open("reads.dat", pbstream.Read,
//	    pbstream.WithCompression(compress.Gzip))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	for msg, err := range s.Messages() {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    process(msg)
//	}
//
// The Parse and Dump helpers pair a stream with a caller-supplied
// (un)marshal function for whole-file decoding and encoding.
package pbstream
