// Package schema turns an ordered list of read-statement descriptors
// into a record schema: one record spec per descriptor, each naming its
// fields as a closed set of kinds (scalar, fixed array, table, loop
// index). Classification is heuristic and never fails; a token the
// heuristics can't place becomes a weak scalar the decoder treats
// permissively.
package schema

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fortrec/fortrec/internal/scanner"
)

type RecordSpec struct {
	// LineNumber and RawText carry the originating read statement
	// through to the projected document.
	LineNumber int
	RawText    string

	Fields []*FieldSpec

	// Malformed groups have no fields but still own one content line.
	Malformed bool

	// Conditional groups are skipped entirely when the guard field
	// decodes to zero. GuardRef is the first identifier in the guard
	// text; nothing more of the expression is interpreted.
	Conditional bool
	GuardText   string
	GuardRef    string
}

type Schema struct {
	Records []*RecordSpec
}

type Options struct {
	// TableNames maps a row-count field to the name of the table it
	// governs. The defaults cover the benchmark corpus; anything not
	// listed falls back to "<count>_rows".
	TableNames map[string]string
	// ColumnAliases renames loop-body expressions whose source names are
	// bookkeeping rather than meaning (the node counter k, the freedom
	// array nf).
	ColumnAliases map[string]string
	// ArrayNames marks bare variables that are known whole-line arrays.
	ArrayNames []string
}

func DefaultOptions() Options {
	return Options{
		TableNames: map[string]string{
			"nr":             "bc_table",
			"loaded_nodes":   "nodal_loads",
			"fixed_freedoms": "prescribed_displacements",
		},
		ColumnAliases: map[string]string{
			"k":     "node",
			"nf":    "dof",
			"loads": "load_dof",
		},
		ArrayNames: []string{"prop", "coord"},
	}
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
var leading_identifier = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// Build constructs the schema in descriptor order. It never returns an
// error: every descriptor yields a record spec, worst case one made of
// weak scalars.
func Build(descriptors []scanner.ReadDescriptor, opts Options) *Schema {
	if opts.TableNames == nil && opts.ColumnAliases == nil && opts.ArrayNames == nil {
		opts = DefaultOptions()
	}

	s := &Schema{Records: []*RecordSpec{}}
	for _, desc := range descriptors {
		s.Records = append(s.Records, buildRecord(desc, opts))
	}
	degradeForwardRefs(s)
	markCountFields(s)
	return s
}

func buildRecord(desc scanner.ReadDescriptor, opts Options) *RecordSpec {
	record := &RecordSpec{
		LineNumber:  desc.LineNumber,
		RawText:     desc.RawText,
		Fields:      []*FieldSpec{},
		Malformed:   desc.Malformed,
		Conditional: desc.IsConditional,
		GuardText:   desc.ConditionText,
	}
	if desc.IsConditional {
		record.GuardRef = leading_identifier.FindString(desc.ConditionText)
	}

	loop_vars := []string{}
	for _, token := range desc.Variables {
		field, loop_var := classifyToken(token, opts)
		if field == nil {
			continue
		}
		if loop_var != "" {
			loop_vars = append(loop_vars, loop_var)
		}
		record.Fields = append(record.Fields, field)
	}

	// A scalar that is really an implied-loop index carries no data.
	for _, field := range record.Fields {
		if field.Kind != FieldKindScalar {
			continue
		}
		for _, lv := range loop_vars {
			if field.Name == lv {
				field.Kind = FieldKindLoopIndex
			}
		}
	}

	// A conditional group with a table but no explicit count uses the
	// guard field as the implicit row count.
	if record.Conditional {
		for _, field := range record.Fields {
			if field.Kind == FieldKindTable && field.RowCountRef == "" && field.RowCountLit == 0 {
				field.RowCountRef = record.GuardRef
			}
		}
	}

	return record
}

// classifyToken applies the variable-list heuristics in order, first
// match wins. The returned loop variable (if any) is the implied-loop
// index name.
func classifyToken(token string, opts Options) (*FieldSpec, string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ""
	}

	if strings.HasPrefix(token, "(") && strings.HasSuffix(token, ")") {
		return classifyLoopGroup(token, opts)
	}

	if open := strings.Index(token, "("); open > 0 && strings.HasSuffix(token, ")") {
		return classifySubscript(token, opts), ""
	}

	if identifier.MatchString(token) {
		if isArrayName(token, opts) {
			// Whole-line array of unknown length.
			return &FieldSpec{Name: token, Kind: FieldKindFixedArray, Type: FieldTypeReal, Weak: true}, ""
		}
		return &FieldSpec{Name: token, Kind: FieldKindScalar, Type: FieldTypeAny}, ""
	}

	// Ambiguous token: weak scalar, keep the raw text as the name.
	return &FieldSpec{Name: token, Kind: FieldKindScalar, Type: FieldTypeAny, Weak: true}, ""
}

func isArrayName(name string, opts Options) bool {
	for _, pat := range opts.ArrayNames {
		if name == pat || strings.Contains(name, pat) {
			return true
		}
	}
	return false
}

// classifySubscript handles `name(5)` and `name(nxe+1)` outside loop
// groups: a fixed array whose length is a literal or an earlier field
// plus offset.
func classifySubscript(token string, opts Options) *FieldSpec {
	open := strings.Index(token, "(")
	name := token[:open]
	inside := strings.TrimSpace(token[open+1 : len(token)-1])

	field := &FieldSpec{Name: name, Kind: FieldKindFixedArray, Type: FieldTypeReal}
	if n, err := strconv.Atoi(inside); err == nil {
		field.LengthLit = n
		return field
	}
	if ref, off, ok := splitLengthExpr(inside); ok {
		field.LengthRef = ref
		field.LengthOff = off
		return field
	}
	field.Weak = true
	return field
}

// splitLengthExpr recognizes `name`, `name+K` and `name-K`.
func splitLengthExpr(expr string) (string, int, bool) {
	expr = strings.ReplaceAll(expr, " ", "")
	if identifier.MatchString(expr) {
		return expr, 0, true
	}
	for _, sign := range []string{"+", "-"} {
		parts := strings.SplitN(expr, sign, 2)
		if len(parts) != 2 || !identifier.MatchString(parts[0]) {
			continue
		}
		off, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		if sign == "-" {
			off = -off
		}
		return parts[0], off, true
	}
	return "", 0, false
}

// classifyLoopGroup parses an implied-loop token `(body..., i=1,n)`
// into a table field: one row per loop iteration, columns named from
// the body expressions. Full implied-loop semantics are not recoverable
// from text alone; this is the best-effort reading the corpus needs.
func classifyLoopGroup(token string, opts Options) (*FieldSpec, string) {
	inner := token[1 : len(token)-1]
	pieces, err := scanner.SplitVariables(inner)
	if err != nil || len(pieces) < 2 {
		return &FieldSpec{Name: token, Kind: FieldKindScalar, Type: FieldTypeAny, Weak: true}, ""
	}

	control := -1
	for i, piece := range pieces {
		if strings.Contains(piece, "=") && !strings.Contains(piece, "(") {
			control = i
			break
		}
	}
	if control < 0 || control+1 >= len(pieces) {
		return &FieldSpec{Name: token, Kind: FieldKindScalar, Type: FieldTypeAny, Weak: true}, ""
	}

	loop_var := strings.TrimSpace(strings.SplitN(pieces[control], "=", 2)[0])
	bound := strings.TrimSpace(pieces[control+1])
	body := pieces[:control]

	field := &FieldSpec{Kind: FieldKindTable, Type: FieldTypeAny}
	if n, err := strconv.Atoi(bound); err == nil {
		field.RowCountLit = n
	} else {
		field.RowCountRef = leading_identifier.FindString(bound)
	}

	for _, expr := range body {
		field.Columns = append(field.Columns, columnFromExpr(expr, opts))
	}

	field.Name = tableName(field, opts)
	return field, loop_var
}

func columnFromExpr(expr string, opts Options) ColumnSpec {
	expr = strings.TrimSpace(expr)
	name := leading_identifier.FindString(expr)
	if alias, ok := opts.ColumnAliases[name]; ok {
		name = alias
	}

	if !strings.Contains(expr, "(") {
		// a bare loop-body variable is a per-row counter, always integral
		return ColumnSpec{Name: name, Type: FieldTypeInt}
	}

	open := strings.Index(expr, "(")
	inside := strings.TrimSuffix(expr[open+1:], ")")
	// `name(i)` or `name(k)` subscripted by one plain identifier is one
	// value per row, whichever identifier drives it.
	if identifier.MatchString(inside) {
		return ColumnSpec{Name: name, Type: FieldTypeAny}
	}
	// Colon slices and multi-index subscripts are per-row groups of
	// unknown width; width comes from the first data row.
	return ColumnSpec{Name: name, Type: FieldTypeAny, Expand: true}
}

func tableName(field *FieldSpec, opts Options) string {
	if field.RowCountRef != "" {
		if name, ok := opts.TableNames[field.RowCountRef]; ok {
			return name
		}
		return field.RowCountRef + "_rows"
	}
	if len(field.Columns) > 0 {
		return field.Columns[0].Name + "_table"
	}
	return "rows"
}

// degradeForwardRefs downgrades a table whose row count names a field
// that no same-or-earlier group decodes. The decoder could only ever
// fail on such a table; a weak scalar at least captures the line.
func degradeForwardRefs(s *Schema) {
	seen := map[string]bool{}
	for _, record := range s.Records {
		for _, field := range record.Fields {
			if field.Kind != FieldKindTable {
				continue
			}
			if field.RowCountRef == "" || seen[field.RowCountRef] {
				continue
			}
			if siblingField(record, field.RowCountRef) {
				continue
			}
			field.Kind = FieldKindScalar
			field.Weak = true
			field.Columns = nil
		}
		for _, field := range record.Fields {
			seen[field.Name] = true
		}
	}
}

func siblingField(record *RecordSpec, name string) bool {
	for _, field := range record.Fields {
		if field.Name == name {
			return true
		}
	}
	return false
}

// markCountFields retypes scalars that some later (or same-group) field
// uses as a row count or array length; those must decode as integers.
func markCountFields(s *Schema) {
	refs := map[string]bool{}
	for _, record := range s.Records {
		for _, field := range record.Fields {
			if field.RowCountRef != "" {
				refs[field.RowCountRef] = true
			}
			if field.LengthRef != "" {
				refs[field.LengthRef] = true
			}
		}
		if record.GuardRef != "" {
			refs[record.GuardRef] = true
		}
	}
	for _, record := range s.Records {
		for _, field := range record.Fields {
			if field.Kind == FieldKindScalar && refs[field.Name] {
				field.Type = FieldTypeInt
			}
		}
	}
}
