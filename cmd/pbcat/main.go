// Command pbcat inspects pbstream files. It decodes a stream and prints its
// messages, either as a one-line summary each or as raw payload bytes, with
// optional compression, header validation, and delimiter surfacing.
//
// Usage:
//
//	pbcat --compression gzip reads.dat
//	pbcat --raw --compression none messages.pb > payloads.bin
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/davidvella/pbstream"
	"github.com/davidvella/pbstream/compress"
	"github.com/davidvella/pbstream/group"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		compression = flag.String("compression", "none", "stream compression: none, gzip, zstd, or lz4")
		header      = flag.String("header", "", "expected header bytes, validated before decoding")
		delimiters  = flag.Bool("delimiters", false, "surface group delimiter markers")
		raw         = flag.Bool("raw", false, "write raw message payloads to stdout instead of summaries")
		verbose     = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()
	if !*verbose {
		logger = logger.Level(zerolog.InfoLevel)
	}

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: pbcat [flags] FILE\n")
		flag.PrintDefaults()
		return 2
	}
	path := flag.Arg(0)

	codec, err := compress.ParseCodec(*compression)
	if err != nil {
		logger.Error().Err(err).Msg("invalid compression flag")
		return 2
	}

	opts := []pbstream.Option{pbstream.WithCompression(codec)}
	if *header != "" {
		opts = append(opts, pbstream.WithHeader([]byte(*header)))
	}
	if *delimiters {
		opts = append(opts, pbstream.WithSurfacedDelimiters())
	}

	if err := cat(path, *raw, logger, opts...); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("failed to read stream")
		return 1
	}
	return 0
}

func cat(path string, raw bool, logger zerolog.Logger, opts ...pbstream.Option) error {
	s, err := pbstream.Open(path, pbstream.Read, opts...)
	if err != nil {
		return err
	}
	defer s.Close()

	var messages, delims int
	for entry, err := range s.All() {
		if err != nil {
			return err
		}

		switch entry.Kind {
		case group.EntryDelimiter:
			delims++
			if !raw {
				fmt.Println("--- group boundary ---")
			}
		case group.EntryMessage:
			messages++
			if raw {
				if _, err := os.Stdout.Write(entry.Data); err != nil {
					return err
				}
				continue
			}
			fmt.Printf("message %d: %d bytes\n", messages, len(entry.Data))
		}
	}

	logger.Debug().
		Int("messages", messages).
		Int("delimiters", delims).
		Msg("stream decoded")

	return s.Close()
}
