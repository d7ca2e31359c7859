// Package runner wires one case through the pipeline: content lines
// from both files, read statements from the source, a schema from the
// statements, and decoded records from the dataset. Each run owns all
// of its state, so independent cases can be fanned out by the caller
// without any coordination here.
package runner

import (
	"os"

	"github.com/pkg/errors"
	sorted "github.com/tobshub/go-sortedmap"

	"github.com/fortrec/fortrec/internal/cases"
	"github.com/fortrec/fortrec/internal/decoder"
	"github.com/fortrec/fortrec/internal/document"
	"github.com/fortrec/fortrec/internal/lines"
	"github.com/fortrec/fortrec/internal/scanner"
	"github.com/fortrec/fortrec/internal/schema"
	"github.com/fortrec/fortrec/pkg"
)

type Options struct {
	Channel       string
	CommentMarker string
	Schema        schema.Options
}

// Run extracts one case. The returned error is a resource error only
// (file unreadable); everything the content itself gets wrong comes
// back inside the dataset's diagnostics.
func Run(c cases.Case, opts Options) (*document.Dataset, error) {
	source, err := os.ReadFile(c.SourcePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read source %s", c.SourcePath)
	}

	data_lines, err := lines.ReadFile(c.DatasetPath, lines.Options{CommentMarker: opts.CommentMarker})
	if err != nil {
		return nil, err
	}

	return Extract(c.Id, string(source), data_lines, opts), nil
}

// Extract is Run without the file I/O; the service feeds it directly.
func Extract(case_id, source string, data_lines []lines.Line, opts Options) *document.Dataset {
	descriptors := scanner.Scan(source, scanner.Options{Channel: opts.Channel})
	record_schema := schema.Build(descriptors, opts.Schema)
	return decoder.Decode(case_id, record_schema, data_lines)
}

type BatchResult struct {
	// Results is ordered by case id so batch reports come out the same
	// way every run. A case that failed on a resource error still gets
	// an entry: an empty dataset carrying the ResourceError diagnostic.
	Results *sorted.SortedMap[string, *document.Dataset]
	// Failed maps case id to the resource error that stopped it.
	Failed pkg.Map[string, error]
}

// RunBatch extracts every case, skipping over resource failures; one
// unreadable case never aborts the batch.
func RunBatch(cs []cases.Case, opts Options) *BatchResult {
	batch := &BatchResult{
		Results: sorted.New[string, *document.Dataset](len(cs), func(a, b *document.Dataset) bool {
			return a.CaseId < b.CaseId
		}),
		Failed: pkg.Map[string, error]{},
	}

	for _, c := range cs {
		dataset, err := Run(c, opts)
		if err != nil {
			pkg.ErrorLog("case", c.Id, "failed;", err)
			batch.Failed.Set(c.Id, err)

			failed := document.NewDataset(c.Id)
			failed.AddDiag(document.DiagResource, "", 0, err.Error())
			batch.Results.Insert(c.Id, failed)
			continue
		}
		if dataset.Incomplete() {
			pkg.WarnLog("case", c.Id, "incomplete;", len(dataset.Unresolved), "unresolved fields")
		}
		batch.Results.Insert(c.Id, dataset)
	}
	return batch
}
