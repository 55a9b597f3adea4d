package gps

import (
	"bytes"
	"strings"

	"github.com/b3nn0/mt3339/sentence"
)

// lineFramer accumulates raw bytes and cuts them into lines on '\n'. Bytes
// after the last delimiter are kept for the next push, so a sentence split
// over several reads is reassembled.
type lineFramer struct {
	buf []byte
	max int
}

func newLineFramer(max int) *lineFramer {
	return &lineFramer{buf: make([]byte, 0, 2*defaultReadSize), max: max}
}

// push appends p and returns every completed line that contains a start marker,
// cut from the first '$' and stripped of CR/LF. Completed lines without a
// marker are noise and are consumed.
func (f *lineFramer) push(p []byte) []string {
	f.buf = append(f.buf, p...)

	var lines []string
	consumed := 0
	for {
		i := bytes.IndexByte(f.buf[consumed:], '\n')
		if i < 0 {
			break
		}
		line := f.buf[consumed : consumed+i+1]
		if start := bytes.IndexByte(line, sentence.StartMarker); start >= 0 {
			lines = append(lines, strings.TrimRight(string(line[start:]), sentence.LineDelimiter))
		}
		consumed += i + 1
	}
	f.buf = append(f.buf[:0], f.buf[consumed:]...)

	// An unterminated run longer than any sentence is resynchronised on its
	// last start marker.
	if f.max > 0 && len(f.buf) > f.max {
		if j := bytes.LastIndexByte(f.buf, sentence.StartMarker); j > 0 && len(f.buf)-j <= f.max {
			f.buf = append(f.buf[:0], f.buf[j:]...)
		} else {
			f.buf = f.buf[:0]
		}
	}
	return lines
}

// pending is the number of buffered bytes not yet part of a completed line.
func (f *lineFramer) pending() int {
	return len(f.buf)
}
