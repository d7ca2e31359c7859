package runner_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/assert"

	"github.com/fortrec/fortrec/internal/cases"
	"github.com/fortrec/fortrec/internal/document"
	. "github.com/fortrec/fortrec/internal/runner"
)

const p41_source = ` USE main
 READ(10,*)nels,np_types
 READ(10,*)ell,nr
 READ(10,*)(k,nf(:,k),i=1,nr)
`

const p41_data = `4 2
1.25 2
1 0 1
6 1 0
`

func writeCase(t *testing.T, root, chapter, name, source, data string) cases.Case {
	t.Helper()
	program, _, _ := strings.Cut(name, "_")
	source_path := filepath.Join(root, "source", chapter, program+".f03")
	dataset_path := filepath.Join(root, "executable", chapter, name+".dat")
	assert.NilError(t, os.MkdirAll(filepath.Dir(source_path), 0o755))
	assert.NilError(t, os.MkdirAll(filepath.Dir(dataset_path), 0o755))
	assert.NilError(t, os.WriteFile(source_path, []byte(source), 0o644))
	assert.NilError(t, os.WriteFile(dataset_path, []byte(data), 0o644))

	store := cases.NewStore(root)
	return cases.Case{
		Id:          store.CaseId(chapter, program, name),
		Chapter:     chapter,
		Program:     program,
		Name:        name,
		SourcePath:  source_path,
		DatasetPath: dataset_path,
	}
}

func TestRun(t *testing.T) {
	c := writeCase(t, t.TempDir(), "chap04", "p41_1", p41_source, p41_data)

	res, err := Run(c, Options{})
	assert.NilError(t, err)

	assert.Equal(t, res.CaseId, "pfem5_ch04_p41_p41_1")
	assert.Equal(t, res.Incomplete(), false)
	assert.Equal(t, len(res.Records), 3)
	assert.Equal(t, res.Records[0].Fields.Get("nels"), 4)

	rows := res.Records[2].Fields.Get("bc_table").([]*document.Row)
	assert.Equal(t, len(rows), 2)
	assert.Equal(t, rows[1].Get("node"), 6)
}

func TestRunMissingSource(t *testing.T) {
	c := writeCase(t, t.TempDir(), "chap04", "p41_1", p41_source, p41_data)
	c.SourcePath = c.SourcePath + ".gone"

	_, err := Run(c, Options{})
	assert.Assert(t, err != nil)
}

func TestRunBatchOrdering(t *testing.T) {
	root := t.TempDir()
	// written out of order on purpose
	c2 := writeCase(t, root, "chap04", "p41_2", p41_source, p41_data)
	c1 := writeCase(t, root, "chap04", "p41_1", p41_source, p41_data)

	batch := RunBatch([]cases.Case{c2, c1}, Options{})

	assert.Equal(t, batch.Results.Len(), 2)
	assert.Equal(t, len(batch.Failed), 0)

	iter, err := batch.Results.IterCh()
	assert.NilError(t, err)
	defer iter.Close()

	ids := []string{}
	for record := range iter.Records() {
		ids = append(ids, record.Key)
	}
	assert.DeepEqual(t, ids, []string{"pfem5_ch04_p41_p41_1", "pfem5_ch04_p41_p41_2"})
}

func TestRunBatchFailedCase(t *testing.T) {
	root := t.TempDir()
	good := writeCase(t, root, "chap04", "p41_1", p41_source, p41_data)
	bad := writeCase(t, root, "chap04", "p41_2", p41_source, p41_data)
	assert.NilError(t, os.Remove(bad.DatasetPath))

	batch := RunBatch([]cases.Case{good, bad}, Options{})

	assert.Equal(t, len(batch.Failed), 1)
	assert.Assert(t, batch.Failed.Has(bad.Id))

	// the failed case still has a batch entry, carrying the resource
	// diagnostic instead of records
	assert.Equal(t, batch.Results.Len(), 2)
	failed, ok := batch.Results.Get(bad.Id)
	assert.Equal(t, ok, true)
	assert.Equal(t, len(failed.Records), 0)
	assert.Equal(t, failed.Diags[0].Kind, document.DiagResource)
}
