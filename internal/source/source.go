// Package source reads and generates the integer streams fed to a sketch.
package source

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseError describes a stream line that is not a signed 64-bit integer.
type ParseError struct {
	Line    int
	Content string
	Err     error
}

func (e *ParseError) Error() string {
	return "line " + strconv.Itoa(e.Line) + ": invalid value " + strconv.Quote(e.Content) + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// MaxLineLength is the longest line Scan parses. Longer lines are read
// to their end and reported as a ParseError wrapping ErrLineTooLong.
const MaxLineLength = 64 * 1024

// maxReportedContent bounds ParseError.Content for over-long lines.
const maxReportedContent = 64

// ErrLineTooLong ...
var ErrLineTooLong = errors.New("line too long")

// Scanner yields the integers of a newline separated stream. Surrounding
// whitespace is trimmed and blank lines are skipped. Lines that do not
// parse are handed to OnError, when set, and skipped.
type Scanner struct {
	OnError func(*ParseError)

	r     *bufio.Reader
	line  int
	value int64
	err   error
}

// NewScanner ...
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r)}
}

// Scan advances to the next value and reports whether there is one.
func (s *Scanner) Scan() bool {
	for s.err == nil {
		raw, tooLong, err := s.readLine()
		if err != nil {
			if err != io.EOF {
				s.err = err
			}
			return false
		}
		s.line++
		if tooLong {
			s.fail(strings.TrimSpace(string(raw))+"...", ErrLineTooLong)
			continue
		}
		text := strings.TrimSpace(string(raw))
		if text == "" {
			continue
		}
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			if ne, ok := err.(*strconv.NumError); ok {
				err = ne.Err
			}
			s.fail(text, err)
			continue
		}
		s.value = v
		return true
	}
	return false
}

// readLine returns the next line without its newline. Past MaxLineLength
// the rest of the line is discarded and only a prefix is returned. err is
// io.EOF only when no bytes were left.
func (s *Scanner) readLine() (line []byte, tooLong bool, err error) {
	var read int
	for {
		chunk, err := s.r.ReadSlice('\n')
		read += len(chunk)
		switch {
		case tooLong:
		case len(line)+len(chunk) > MaxLineLength+1:
			tooLong = true
			if len(line) > maxReportedContent {
				line = line[:maxReportedContent]
			}
			if keep := maxReportedContent - len(line); keep > 0 {
				if keep > len(chunk) {
					keep = len(chunk)
				}
				line = append(line, chunk[:keep]...)
			}
		default:
			line = append(line, chunk...)
		}

		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF && read > 0 {
			err = nil
		}
		if !tooLong && len(line) > 0 && line[len(line)-1] == '\n' {
			line = line[:len(line)-1]
		}
		return line, tooLong, err
	}
}

func (s *Scanner) fail(content string, err error) {
	if s.OnError != nil {
		s.OnError(&ParseError{Line: s.line, Content: content, Err: err})
	}
}

// Value returns the value read by the last successful Scan.
func (s *Scanner) Value() int64 {
	return s.value
}

// Err returns the first read error, if any. Parse errors are not read
// errors.
func (s *Scanner) Err() error {
	return s.err
}

// ReadAll drains r.
func ReadAll(r io.Reader, onErr func(*ParseError)) ([]int64, error) {
	s := NewScanner(r)
	s.OnError = onErr
	var values []int64
	for s.Scan() {
		values = append(values, s.Value())
	}
	return values, s.Err()
}

// ReadFile reads every value of the stream stored at path.
func ReadFile(path string, onErr func(*ParseError)) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %q", path)
	}
	defer f.Close()
	values, err := ReadAll(f, onErr)
	return values, errors.Wrapf(err, "read %q", path)
}

// Count returns the number of valid values stored at path.
func Count(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to open %q", path)
	}
	defer f.Close()

	var n int64
	s := NewScanner(f)
	for s.Scan() {
		n++
	}
	return n, errors.Wrapf(s.Err(), "read %q", path)
}
