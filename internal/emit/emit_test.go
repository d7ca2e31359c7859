package emit_test

import (
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/assert"

	"github.com/fortrec/fortrec/internal/document"
	. "github.com/fortrec/fortrec/internal/emit"
)

func sampleDataset() *document.Dataset {
	d := document.NewDataset("pfem5_ch04_p41_p41_1")
	rec := document.NewDecodedRecord(0, 7, "READ(10,*)nels,np_types")
	rec.Fields.Push("nels", 4)
	rec.Fields.Push("np_types", 2)
	d.Records = append(d.Records, rec)
	return d
}

func TestMarshalDeterministic(t *testing.T) {
	a, err := Marshal(document.Project(sampleDataset()))
	assert.NilError(t, err)
	b, err := Marshal(document.Project(sampleDataset()))
	assert.NilError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestWriteFileVerify(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "benchmarks", "ch04")

	out_path, err := WriteFile(dir, sampleDataset())
	assert.NilError(t, err)
	assert.Equal(t, filepath.Base(out_path), "pfem5_ch04_p41_p41_1.yaml")

	_, err = os.Stat(out_path)
	assert.NilError(t, err)

	problems := Verify(out_path)
	assert.Equal(t, len(problems), 0)
}

func TestVerifyBadFiles(t *testing.T) {
	dir := t.TempDir()

	missing_keys := filepath.Join(dir, "missing.yaml")
	assert.NilError(t, os.WriteFile(missing_keys, []byte("id: x\n"), 0o644))
	problems := Verify(missing_keys)
	assert.Equal(t, len(problems), 2)

	empty_id := filepath.Join(dir, "empty_id.yaml")
	assert.NilError(t, os.WriteFile(empty_id, []byte("id: \"\"\ncode: {}\nrecords: []\n"), 0o644))
	problems = Verify(empty_id)
	assert.Equal(t, len(problems), 1)

	invalid := filepath.Join(dir, "invalid.yaml")
	assert.NilError(t, os.WriteFile(invalid, []byte("a:\n\tb: 1\n"), 0o644))
	problems = Verify(invalid)
	assert.Equal(t, len(problems), 1)

	problems = Verify(filepath.Join(dir, "nope.yaml"))
	assert.Equal(t, len(problems), 1)
}

func TestVerifyAllDuplicateIds(t *testing.T) {
	dir := t.TempDir()
	doc := "id: pfem5_ch04_p41_p41_1\ncode: {}\nrecords: []\n"

	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	assert.NilError(t, os.WriteFile(a, []byte(doc), 0o644))
	assert.NilError(t, os.WriteFile(b, []byte(doc), 0o644))

	problems := VerifyAll([]string{a, b})
	assert.Equal(t, len(problems), 1)
	assert.ErrorContains(t, problems[0], "duplicate id")
}
