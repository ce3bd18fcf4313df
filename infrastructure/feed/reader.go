package feed

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
	"github.com/felixgeelhaar/agent-presence/infrastructure/logging"
)

// maxLine bounds one message on a reader feed.
const maxLine = 64 * 1024

// ReaderSource reads one message per line.
type ReaderSource struct {
	name    string
	r       io.Reader
	decoder Decoder
}

// NewReaderSource creates a source over r.
func NewReaderSource(name string, r io.Reader, decoder Decoder) *ReaderSource {
	return &ReaderSource{name: name, r: r, decoder: decoder}
}

// NewStdinSource creates a source reading standard input.
func NewStdinSource(decoder Decoder) *ReaderSource {
	return NewReaderSource("stdin", os.Stdin, decoder)
}

// Name returns the source name.
func (s *ReaderSource) Name() string {
	return s.name
}

// Run reads lines until EOF or ctx is done. Malformed lines are logged and
// skipped. A blocked read is not interrupted by ctx; the scan goroutine ends
// with the reader.
func (s *ReaderSource) Run(ctx context.Context, out chan<- presence.Update) error {
	lines := make(chan []byte)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.r)
		scanner.Buffer(make([]byte, 0, 4096), maxLine)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	lineNo := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					if err != nil {
						return fmt.Errorf("reading %s: %w", s.name, err)
					}
				default:
				}
				return nil
			}
			lineNo++
			if len(line) == 0 {
				continue
			}
			u, err := s.decoder.Decode(line)
			if err != nil {
				logging.Warn().
					Add(logging.Source(s.name)).
					Add(logging.Count("line", lineNo)).
					Add(logging.ErrorField(err)).
					Msg("skipping malformed update")
				s.decoder.metrics().RecordMalformed(ctx, s.name)
				continue
			}
			if err := send(ctx, out, u); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil
				}
				return err
			}
		}
	}
}

// OpenFile creates a source reading the file at path. The file is closed
// when Run returns.
func OpenFile(path string, decoder Decoder) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening feed file: %w", err)
	}
	return &fileSource{ReaderSource: NewReaderSource("file:"+path, f, decoder), f: f}, nil
}

type fileSource struct {
	*ReaderSource
	f *os.File
}

func (s *fileSource) Run(ctx context.Context, out chan<- presence.Update) error {
	defer s.f.Close()
	return s.ReaderSource.Run(ctx, out)
}
