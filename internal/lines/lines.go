// Package lines turns a dataset or program file into the sequence of
// content lines the rest of the pipeline walks. Blank lines and comment
// lines never make it out of here, so downstream ordinals only count
// lines that carry data.
package lines

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

const DefaultCommentMarker = "!"

type Line struct {
	// N is the 1-based line number in the original file.
	N    int
	Text string
}

type Options struct {
	CommentMarker string
}

func (o Options) marker() string {
	if o.CommentMarker == "" {
		return DefaultCommentMarker
	}
	return o.CommentMarker
}

// ReadFile reads every content line of the file at path.
// The only hard failure is not being able to open the file; bad bytes in
// the middle of a line are replaced and extraction carries on.
func ReadFile(path string, opts Options) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", path)
	}
	defer f.Close()
	return Scan(f, opts), nil
}

// Scan yields stripped content lines with their original line numbers.
func Scan(r io.Reader, opts Options) []Line {
	marker := opts.marker()
	kept := []Line{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line_num := 0
	for scanner.Scan() {
		line_num++
		text := strings.ToValidUTF8(scanner.Text(), "�")
		text = StripQuotes(strings.TrimSpace(text))
		if len(text) == 0 || strings.HasPrefix(text, marker) {
			continue
		}
		kept = append(kept, Line{N: line_num, Text: text})
	}
	return kept
}

// StripQuotes removes a single layer of matching surrounding quotes.
// `'plane'` becomes `plane`; `'a' 'b'` is left alone because the
// outermost quotes don't pair up.
func StripQuotes(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if first != last || (first != '\'' && first != '"') {
		return s
	}
	inner := s[1 : len(s)-1]
	if strings.ContainsRune(inner, rune(first)) {
		return s
	}
	return inner
}
