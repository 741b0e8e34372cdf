// Package framing assigns request and response roles to a flow pair by
// looking at the first line of each capture file.
package framing

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// MaxLineBytes caps how much of a file is read to find its first line.
const MaxLineBytes = 2048

// ErrEmpty is returned when a capture file has no bytes at all.
var ErrEmpty = errors.New("framing: empty capture")

var (
	requestLine = regexp.MustCompile(`^([A-Z]{3,8}) ([^ ]+) (HTTP/1\.[01])`)
	statusLine  = regexp.MustCompile(`^(HTTP/1\.[01]) (\d{3}) (.*)`)
)

// RequestLine is a parsed HTTP request start-line.
type RequestLine struct {
	Method string
	Target string
	Proto  string
	Raw    string
}

func (r RequestLine) String() string {
	return r.Raw
}

// ReadFirstLine returns the first line of path, up to MaxLineBytes, with the
// trailing CRLF removed. Bytes are decoded as Latin-1 so any binary content
// yields a string. A zero-length file returns ErrEmpty.
func ReadFirstLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return readFirstLine(f)
}

func readFirstLine(r io.Reader) (string, error) {
	buf := make([]byte, MaxLineBytes)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading first line: %w", err)
	}
	if n == 0 {
		return "", ErrEmpty
	}
	buf = buf[:n]
	if i := bytes.IndexByte(buf, '\n'); i >= 0 {
		buf = buf[:i]
	}
	buf = bytes.TrimRight(buf, "\r")
	return latin1(buf), nil
}

func latin1(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteRune(rune(c))
	}
	return sb.String()
}

// ParseRequestLine matches METHOD SP target SP HTTP/1.x at the start of line.
func ParseRequestLine(line string) (RequestLine, bool) {
	m := requestLine.FindStringSubmatch(line)
	if m == nil {
		return RequestLine{}, false
	}
	return RequestLine{Method: m[1], Target: m[2], Proto: m[3], Raw: line}, true
}

// IsStatusLine reports whether line starts with HTTP/1.x SP code SP.
func IsStatusLine(line string) bool {
	return statusLine.MatchString(line)
}
