// Package linebuffer splits written bytes into lines
package linebuffer

import (
	"bytes"
	"strings"
)

// Fn calls fn for each complete line written, line terminator included
type Fn struct {
	pending []byte
	fn      func(line string)
}

// NewFn returns a writer that calls fn for each line
func NewFn(fn func(line string)) *Fn {
	return &Fn{fn: fn}
}

func (f *Fn) Write(p []byte) (int, error) {
	f.pending = append(f.pending, p...)
	for {
		i := bytes.IndexAny(f.pending, "\n\r")
		if i < 0 {
			break
		}
		f.fn(string(f.pending[:i+1]))
		f.pending = f.pending[i+1:]
	}
	return len(p), nil
}

// Close flushes a trailing unterminated line
func (f *Fn) Close() error {
	if len(f.pending) > 0 {
		f.fn(string(f.pending))
	}
	f.pending = nil
	return nil
}

// LastLines keeps the last n lines written, used to put ffmpeg stderr into errors
type LastLines struct {
	Fn
	next  int
	lines []string
}

// NewLastLines returns a ring buffer of limit lines
func NewLastLines(limit int) *LastLines {
	ll := &LastLines{lines: make([]string, limit)}
	ll.fn = ll.add
	return ll
}

func (ll *LastLines) add(line string) {
	ll.lines[ll.next] = line
	ll.next = (ll.next + 1) % len(ll.lines)
}

// String returns the buffered lines oldest first
func (ll *LastLines) String() string {
	var sb strings.Builder
	for i := range ll.lines {
		sb.WriteString(ll.lines[(ll.next+i)%len(ll.lines)])
	}
	return sb.String()
}
