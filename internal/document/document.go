// Package document holds the structured output of a case run: the
// decoded records, the fields that could not be trusted, and the
// diagnostics that explain why. It also projects that structure into a
// yaml node tree with stable, schema-ordered keys.
package document

import (
	"github.com/fortrec/fortrec/pkg"
)

type DiagKind string

const (
	DiagResource           DiagKind = "ResourceError"
	DiagMalformedStatement DiagKind = "MalformedStatement"
	DiagCoercion           DiagKind = "CoercionError"
	DiagInsufficientData   DiagKind = "InsufficientData"
)

type Diag struct {
	Kind    DiagKind
	Field   string
	Line    int
	Message string
}

// Row is one decoded table row: column name -> value, insertion order.
type Row = pkg.InsertSortMap[string, any]

// DecodedRecord is the set of fields one read statement produced.
// Values are int, float64, string, []any (fixed arrays) or []*Row
// (tables). Immutable once the decoder hands it over.
type DecodedRecord struct {
	Index      int
	LineNumber int
	Statement  string
	Fields     *pkg.InsertSortMap[string, any]
}

func NewDecodedRecord(index, line_number int, statement string) *DecodedRecord {
	return &DecodedRecord{
		Index:      index,
		LineNumber: line_number,
		Statement:  statement,
		Fields:     pkg.NewInsertSortMap[string, any](),
	}
}

// Lookup finds a field by name, searching this record first.
func (r *DecodedRecord) Lookup(name string) (any, bool) {
	if r.Fields.Has(name) {
		return r.Fields.Get(name), true
	}
	return nil, false
}

type Dataset struct {
	CaseId     string
	Records    []*DecodedRecord
	Unresolved []string
	Diags      []Diag
}

func NewDataset(case_id string) *Dataset {
	return &Dataset{
		CaseId:     case_id,
		Records:    []*DecodedRecord{},
		Unresolved: []string{},
		Diags:      []Diag{},
	}
}

// ResolveField looks a field name up across the records decoded so far,
// newest first. Row counts and array lengths resolve through here; the
// reference is a name, never a pointer.
func (d *Dataset) ResolveField(name string) (any, bool) {
	for i := len(d.Records) - 1; i >= 0; i-- {
		if v, ok := d.Records[i].Lookup(name); ok {
			return v, true
		}
	}
	return nil, false
}

func (d *Dataset) AddDiag(kind DiagKind, field string, line int, message string) {
	d.Diags = append(d.Diags, Diag{Kind: kind, Field: field, Line: line, Message: message})
}

func (d *Dataset) MarkUnresolved(field string) {
	d.Unresolved = append(d.Unresolved, field)
}

func (d *Dataset) Incomplete() bool {
	return len(d.Unresolved) > 0
}
