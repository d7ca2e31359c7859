package decoder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fortrec/fortrec/internal/lines"
	"github.com/fortrec/fortrec/internal/schema"
	"github.com/fortrec/fortrec/pkg"
)

// Tokenize splits a content line on whitespace and commas. Each token
// loses one layer of matching quotes, so `'plane'` arrives as plane.
func Tokenize(text string) []string {
	toks := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
	for i, tok := range toks {
		toks[i] = lines.StripQuotes(tok)
	}
	return pkg.Filter(toks, func(t string) bool { return len(t) > 0 })
}

// coerce casts a token to its declared type. Real literals accept both
// 1.0e6 and 1.0E6; strings may arrive quoted or bare.
func coerce(tok string, field_type schema.FieldType) (any, error) {
	switch field_type {
	case schema.FieldTypeInt:
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to Int", tok)
		}
		return n, nil
	case schema.FieldTypeReal:
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to Real", tok)
		}
		return f, nil
	case schema.FieldTypeString:
		return tok, nil
	default:
		return coerceAny(tok), nil
	}
}

// coerceAny picks the narrowest type the token parses as.
func coerceAny(tok string) any {
	if n, err := strconv.Atoi(tok); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f
	}
	return tok
}
