// Package group implements the group layer of the stream format: ordered
// runs of messages written contiguously behind a varint count. The Writer
// batches outgoing messages according to a buffering policy and guarantees
// that every emitted group's count matches the messages that follow it; the
// Reader walks the stream group by group and yields a lazy sequence of raw
// message bytes.
//
// Writing three messages as two groups:
//
//	gw, err := group.NewWriter(&buf, &group.WriterOptions{
//	    Policy: group.Fixed(2),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := gw.Write([]byte("a"), []byte("bb"), []byte("ccc")); err != nil {
//	    log.Fatal(err)
//	}
//	if err := gw.Close(); err != nil {
//	    log.Fatal(err)
//	}
//
// Reading them back:
//
//	gr := group.NewReader(&buf, nil)
//	for msg, err := range gr.Messages() {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Printf("%s\n", msg)
//	}
//
// Optionally a writer tags every flushed group with a delimiter marker, a
// one-message group carrying a sentinel byte string; readers can filter or
// surface those markers.
package group
