package parser

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// FileSource implements LogSource for reading from log files.
// Files are read sequentially in the order given.
type FileSource struct {
	files     []string
	extractor *TimestampExtractor

	currentFile   *os.File
	currentReader *bufio.Reader
	currentSource string
	currentLine   int
	fileIndex     int
}

// NewFileSource creates a LogSource that reads from the given files.
// The layout is used to parse the timestamp prefix of each line.
func NewFileSource(files []string, layout string) *FileSource {
	return &FileSource{
		files:     files,
		extractor: NewTimestampExtractor(layout),
		fileIndex: -1,
	}
}

// Files returns the paths this source reads, in order.
func (s *FileSource) Files() []string {
	return s.files
}

// Next returns the next log line. Lines without a valid timestamp are
// returned with HasTimestamp unset.
// Returns io.EOF when all files have been exhausted.
func (s *FileSource) Next(ctx context.Context) (*ParsedLine, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if s.currentReader == nil {
			if err := s.openNextFile(); err != nil {
				return nil, err
			}
		}

		// Lines have no length limit; a huge line is just noise.
		raw, err := s.currentReader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading %s: %w", s.currentSource, err)
		}

		if raw != "" {
			s.currentLine++
			line := &ParsedLine{
				Raw:     trimEOL(raw),
				Source:  s.currentSource,
				LineNum: s.currentLine,
			}
			if ts, err := s.extractor.Extract(line.Raw); err == nil {
				line.Timestamp = ts
				line.HasTimestamp = true
			}
			return line, nil
		}

		// Current file exhausted, try next
		if err := s.closeCurrentFile(); err != nil {
			return nil, err
		}
	}
}

// trimEOL drops a trailing "\n" or "\r\n".
func trimEOL(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

// Close releases resources.
func (s *FileSource) Close() error {
	return s.closeCurrentFile()
}

func (s *FileSource) openNextFile() error {
	s.fileIndex++
	if s.fileIndex >= len(s.files) {
		return io.EOF
	}

	path := s.files[s.fileIndex]
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", path, err)
	}

	s.currentFile = f
	s.currentReader = bufio.NewReaderSize(f, 64*1024)
	s.currentSource = path
	s.currentLine = 0

	return nil
}

func (s *FileSource) closeCurrentFile() error {
	if s.currentFile != nil {
		err := s.currentFile.Close()
		s.currentFile = nil
		s.currentReader = nil
		return err
	}
	return nil
}
