// Package decoder walks the dataset's content lines in lockstep with
// the record schema and produces decoded records. It never fails on
// content: coercion problems and truncated files degrade to partial
// results with an unresolved list, because the benchmark datasets are
// heterogeneous and must stay inspectable either way.
package decoder

import (
	"fmt"
	"strconv"

	"github.com/fortrec/fortrec/internal/document"
	"github.com/fortrec/fortrec/internal/lines"
	"github.com/fortrec/fortrec/internal/schema"
	"github.com/fortrec/fortrec/pkg"
)

type decoder struct {
	dataset *document.Dataset
	lines   []lines.Line
	pos     int
	// tokens left on the line currently being consumed
	tokens   []string
	line_num int
	starved  bool
}

// Decode runs the schema against the content lines. Each record group
// starts on a fresh content line; a group may span several physical
// lines when its fields need more tokens than one line carries.
func Decode(case_id string, s *schema.Schema, ls []lines.Line) *document.Dataset {
	d := &decoder{dataset: document.NewDataset(case_id), lines: ls}

	for i, record_spec := range s.Records {
		if d.starved {
			d.markGroupUnresolved(record_spec)
			continue
		}
		d.decodeGroup(i, record_spec)
	}
	return d.dataset
}

func (d *decoder) decodeGroup(index int, spec *schema.RecordSpec) {
	if spec.Malformed {
		d.decodeMalformed(index, spec)
		return
	}
	if spec.Conditional {
		guard, ok := d.resolveInt(nil, spec.GuardRef)
		if !ok {
			d.dataset.AddDiag(document.DiagInsufficientData, spec.GuardRef, spec.LineNumber,
				fmt.Sprintf("conditional guard %q does not name a decoded integer field", spec.GuardRef))
			d.markGroupUnresolved(spec)
			return
		}
		if guard == 0 {
			// Guard is zero: the group contributes nothing and consumes
			// no lines.
			return
		}
	}

	record := document.NewDecodedRecord(index, spec.LineNumber, spec.RawText)
	d.tokens = nil // groups start on a fresh content line

	for _, field := range spec.Fields {
		if d.starved {
			d.markFieldUnresolved(field)
			continue
		}
		switch field.Kind {
		case schema.FieldKindLoopIndex:
			// index variable, not data
		case schema.FieldKindScalar:
			d.decodeScalar(record, field)
		case schema.FieldKindFixedArray:
			d.decodeArray(record, field)
		case schema.FieldKindTable:
			d.decodeTable(record, field)
		}
	}

	d.dataset.Records = append(d.dataset.Records, record)
	d.tokens = nil
}

// decodeMalformed handles a statement whose variable list never parsed.
// Its content line is consumed and kept raw, so every later group still
// decodes its own line, and the diagnostic marks the gap.
func (d *decoder) decodeMalformed(index int, spec *schema.RecordSpec) {
	d.dataset.AddDiag(document.DiagMalformedStatement, "", spec.LineNumber,
		fmt.Sprintf("statement %q could not be parsed; its data line is kept unparsed", spec.RawText))

	record := document.NewDecodedRecord(index, spec.LineNumber, spec.RawText)
	d.tokens = nil
	if line := d.takeLine(); line != nil {
		vals := make([]any, 0, len(line))
		for _, tok := range line {
			vals = append(vals, coerceAny(tok))
		}
		record.Fields.Push("raw", vals)
	}
	d.dataset.Records = append(d.dataset.Records, record)
	d.tokens = nil
}

func (d *decoder) decodeScalar(record *document.DecodedRecord, field *schema.FieldSpec) {
	if field.Weak {
		// Weak binding: accept a single value or a whole-line sequence.
		toks := d.takeLine()
		if d.starved {
			d.insufficient(field.Name)
			return
		}
		if len(toks) == 1 {
			record.Fields.Push(field.Name, coerceAny(toks[0]))
			return
		}
		vals := make([]any, 0, len(toks))
		for _, tok := range toks {
			vals = append(vals, coerceAny(tok))
		}
		record.Fields.Push(field.Name, vals)
		return
	}

	tok, ok := d.nextToken()
	if !ok {
		d.insufficient(field.Name)
		return
	}
	value, err := coerce(tok, field.Type)
	if err != nil {
		d.coercionFailed(record, field.Name, tok, err)
		return
	}
	record.Fields.Push(field.Name, value)
}

func (d *decoder) decodeArray(record *document.DecodedRecord, field *schema.FieldSpec) {
	length, known := d.arrayLength(record, field)
	if !known {
		// Unknown length: the array is one whole content line.
		toks := d.takeLine()
		if d.starved {
			d.insufficient(field.Name)
			return
		}
		record.Fields.Push(field.Name, d.coerceSlice(record, field, toks))
		return
	}

	toks := make([]string, 0, length)
	for len(toks) < length {
		tok, ok := d.nextToken()
		if !ok {
			d.insufficient(field.Name)
			return
		}
		toks = append(toks, tok)
	}
	record.Fields.Push(field.Name, d.coerceSlice(record, field, toks))
}

func (d *decoder) coerceSlice(record *document.DecodedRecord, field *schema.FieldSpec, toks []string) []any {
	vals := make([]any, 0, len(toks))
	for _, tok := range toks {
		value, err := coerce(tok, field.Type)
		if err != nil {
			d.coercionFailed(record, field.Name, tok, err)
			value = tok
		}
		vals = append(vals, value)
	}
	return vals
}

func (d *decoder) arrayLength(record *document.DecodedRecord, field *schema.FieldSpec) (int, bool) {
	if field.LengthLit > 0 {
		return field.LengthLit, true
	}
	if field.LengthRef == "" {
		return 0, false
	}
	n, ok := d.resolveInt(record, field.LengthRef)
	if !ok {
		return 0, false
	}
	return n + field.LengthOff, true
}

func (d *decoder) decodeTable(record *document.DecodedRecord, field *schema.FieldSpec) {
	n, ok := d.rowCount(record, field)
	if !ok {
		d.dataset.AddDiag(document.DiagCoercion, field.Name, record.LineNumber,
			fmt.Sprintf("row count %q did not resolve to an integer", field.RowCountRef))
		d.dataset.MarkUnresolved(field.Name)
		return
	}

	// The table always starts on the line after its leading scalars;
	// n == 0 consumes nothing further.
	d.tokens = nil
	rows := make([]*document.Row, 0, n)
	expand_width := -1
	for r := 0; r < n; r++ {
		row, width := d.decodeRow(record, field, r, expand_width)
		if row == nil {
			d.insufficient(field.Name)
			break
		}
		expand_width = width
		rows = append(rows, row)
	}
	record.Fields.Push(field.Name, rows)
}

func (d *decoder) rowCount(record *document.DecodedRecord, field *schema.FieldSpec) (int, bool) {
	if field.RowCountRef == "" {
		return field.RowCountLit, true
	}
	return d.resolveInt(record, field.RowCountRef)
}

// decodeRow consumes one table row, pulling extra physical lines when
// the declared columns make the row wider than one line. The width of
// an expandable column group is learned from the first row and pinned
// for the rest of the table.
func (d *decoder) decodeRow(record *document.DecodedRecord, field *schema.FieldSpec, row_idx, expand_width int) (*document.Row, int) {
	toks := d.takeLine()
	if d.starved {
		return nil, expand_width
	}

	fixed := 0
	expandable := 0
	for _, col := range field.Columns {
		if col.Expand {
			expandable++
		} else {
			fixed++
		}
	}
	if expand_width < 0 {
		expand_width = 0
		if expandable > 0 {
			expand_width = (len(toks) - fixed) / expandable
			if expand_width < 0 {
				expand_width = 0
			}
		}
	}

	need := fixed + expandable*expand_width
	for len(toks) < need {
		tok, ok := d.nextToken()
		if !ok {
			return nil, expand_width
		}
		toks = append(toks, tok)
	}

	row := pkg.NewInsertSortMap[string, any]()
	cursor := 0
	take := func() (string, bool) {
		if cursor >= len(toks) {
			return "", false
		}
		tok := toks[cursor]
		cursor++
		return tok, true
	}

	for _, col := range field.Columns {
		width := 1
		name := col.Name
		if col.Expand {
			width = expand_width
		}
		for w := 1; w <= width; w++ {
			if col.Expand {
				name = col.Name + strconv.Itoa(w)
			}
			tok, ok := take()
			if !ok {
				d.dataset.MarkUnresolved(rowFieldName(field.Name, row_idx, name))
				continue
			}
			value, err := coerce(tok, col.Type)
			if err != nil {
				d.dataset.AddDiag(document.DiagCoercion, rowFieldName(field.Name, row_idx, name), d.line_num, err.Error())
				d.dataset.MarkUnresolved(rowFieldName(field.Name, row_idx, name))
				value = tok
			}
			row.Push(name, value)
		}
	}
	return row, expand_width
}

func rowFieldName(table string, row int, col string) string {
	return fmt.Sprintf("%s[%d].%s", table, row, col)
}

// resolveInt looks a count field up by name: the record being decoded
// first, then earlier records newest-first. References are names into
// the decoded arena, never pointers.
func (d *decoder) resolveInt(record *document.DecodedRecord, name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	var value any
	ok := false
	if record != nil {
		value, ok = record.Lookup(name)
	}
	if !ok {
		value, ok = d.dataset.ResolveField(name)
	}
	if !ok {
		return 0, false
	}
	switch value := value.(type) {
	case int:
		return value, true
	case float64:
		return pkg.NumToInt(value), true
	}
	return 0, false
}

func (d *decoder) nextToken() (string, bool) {
	for len(d.tokens) == 0 {
		if !d.pullLine() {
			return "", false
		}
	}
	tok := d.tokens[0]
	d.tokens = d.tokens[1:]
	return tok, true
}

// takeLine returns every remaining token of the current line, pulling a
// fresh line when the current one is spent.
func (d *decoder) takeLine() []string {
	for len(d.tokens) == 0 {
		if !d.pullLine() {
			return nil
		}
	}
	toks := d.tokens
	d.tokens = nil
	return toks
}

func (d *decoder) pullLine() bool {
	if d.pos >= len(d.lines) {
		d.starved = true
		return false
	}
	line := d.lines[d.pos]
	d.pos++
	d.tokens = Tokenize(line.Text)
	d.line_num = line.N
	return true
}

func (d *decoder) insufficient(field string) {
	if !hasInsufficientDiag(d.dataset) {
		d.dataset.AddDiag(document.DiagInsufficientData, field, d.line_num, "insufficient data lines")
	}
	d.dataset.MarkUnresolved(field)
}

func hasInsufficientDiag(ds *document.Dataset) bool {
	for _, diag := range ds.Diags {
		if diag.Kind == document.DiagInsufficientData {
			return true
		}
	}
	return false
}

func (d *decoder) coercionFailed(record *document.DecodedRecord, field, tok string, err error) {
	d.dataset.AddDiag(document.DiagCoercion, field, d.line_num, err.Error())
	d.dataset.MarkUnresolved(field)
	// keep the raw token so the document stays inspectable
	record.Fields.Push(field, tok)
}

func (d *decoder) markGroupUnresolved(spec *schema.RecordSpec) {
	for _, field := range spec.Fields {
		if field.Kind == schema.FieldKindLoopIndex {
			continue
		}
		d.dataset.MarkUnresolved(field.Name)
	}
}

func (d *decoder) markFieldUnresolved(field *schema.FieldSpec) {
	if field.Kind == schema.FieldKindLoopIndex {
		return
	}
	d.dataset.MarkUnresolved(field.Name)
}
