package schema

type FieldType string

const (
	FieldTypeInt    FieldType = "Int"
	FieldTypeReal   FieldType = "Real"
	FieldTypeString FieldType = "String"
	// FieldTypeAny lets the decoder pick the narrowest type the token
	// parses as. Most benchmark fields end up here because a read
	// statement alone rarely pins the type down.
	FieldTypeAny FieldType = "Any"
)

type FieldKind int

const (
	FieldKindScalar FieldKind = iota
	FieldKindFixedArray
	FieldKindTable
	FieldKindLoopIndex
)

func (k FieldKind) String() string {
	switch k {
	case FieldKindScalar:
		return "Scalar"
	case FieldKindFixedArray:
		return "FixedArray"
	case FieldKindTable:
		return "Table"
	case FieldKindLoopIndex:
		return "LoopIndex"
	}
	return "Unknown"
}

type ColumnSpec struct {
	Name string
	Type FieldType
	// Expand marks a column group of unknown width (a colon-array in the
	// loop body). The decoder learns the width from the first data row
	// and names the columns Name1..NameN.
	Expand bool
}

type FieldSpec struct {
	Name string
	Kind FieldKind
	Type FieldType

	// FixedArray length: a literal, or an earlier field's value plus an
	// offset ("nxe+1" -> LengthRef "nxe", LengthOff 1). Both zero means
	// the length is unknown and the field consumes one whole line.
	LengthLit int
	LengthRef string
	LengthOff int

	// Table row count: an earlier decoded field's name, or a literal
	// bound when the implied loop uses one.
	RowCountRef string
	RowCountLit int
	Columns     []ColumnSpec

	// Weak fields were classified on a best-effort default; the decoder
	// treats them permissively (single value or whole-line sequence).
	Weak bool
}
