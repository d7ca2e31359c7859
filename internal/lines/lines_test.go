package lines_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/assert"

	. "github.com/fortrec/fortrec/internal/lines"
)

func TestScan(t *testing.T) {
	input := `
'Cantilever beam'

4 2
0.0 1.5
! comment line
  3.0   4.5
`
	res := Scan(strings.NewReader(input), Options{})

	assert.Equal(t, len(res), 4)
	assert.Equal(t, res[0].Text, "Cantilever beam")
	assert.Equal(t, res[0].N, 2)
	assert.Equal(t, res[1].Text, "4 2")
	assert.Equal(t, res[2].Text, "0.0 1.5")
	assert.Equal(t, res[3].Text, "3.0   4.5")
	assert.Equal(t, res[3].N, 7)
}

func TestScanCommentMarker(t *testing.T) {
	input := "# skipped\n1 2 3\n"
	res := Scan(strings.NewReader(input), Options{CommentMarker: "#"})

	assert.Equal(t, len(res), 1)
	assert.Equal(t, res[0].Text, "1 2 3")
}

func TestStripQuotes(t *testing.T) {
	assert.Equal(t, StripQuotes(`'beam'`), "beam")
	assert.Equal(t, StripQuotes(`"beam"`), "beam")
	// mismatched and embedded quotes are left alone
	assert.Equal(t, StripQuotes(`'beam"`), `'beam"`)
	assert.Equal(t, StripQuotes(`'it's'`), `'it's'`)
	assert.Equal(t, StripQuotes(`plain`), "plain")
	assert.Equal(t, StripQuotes(`''`), "")
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p41_1.dat")
	err := os.WriteFile(path, []byte("4 2 1.0\n0 5\n"), 0o644)
	assert.NilError(t, err)

	res, err := ReadFile(path, Options{})
	assert.NilError(t, err)
	assert.Equal(t, len(res), 2)
	assert.Equal(t, res[1].Text, "0 5")
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.dat"), Options{})
	assert.Assert(t, err != nil)
}
