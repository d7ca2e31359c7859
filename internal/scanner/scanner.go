// Package scanner finds the sequential-read statements in a program
// file. It does not parse the surrounding language; it only recognizes
// the read signature on the conventional input channel and captures
// enough of each statement for the schema builder to work with.
package scanner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fortrec/fortrec/pkg"
)

const DefaultChannel = "10"

type ReadDescriptor struct {
	// LineNumber is 1-based in the source file.
	LineNumber    int
	RawText       string
	Variables     []string
	IsConditional bool
	ConditionText string
	// Malformed marks a statement whose variable list could not be
	// split. The decoder still consumes its data line, so later records
	// stay aligned with their lines.
	Malformed bool
}

type Options struct {
	// Channel is the input unit identifier, "10" by default.
	Channel string
}

func (o Options) channel() string {
	if o.Channel == "" {
		return DefaultChannel
	}
	return o.Channel
}

var label_prefix = regexp.MustCompile(`^\d+\s+`)

func readPattern(channel string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)read\s*\(\s*` + regexp.QuoteMeta(channel) + `\s*,\s*\*\s*\)`)
}

// Scan returns one descriptor per read statement, in source order.
// A statement that matches the read signature but whose variable list
// cannot be split still yields a descriptor with no variables; one
// malformed statement must never abort extraction.
func Scan(source string, opts Options) []ReadDescriptor {
	pattern := readPattern(opts.channel())
	descriptors := []ReadDescriptor{}

	for i, raw := range strings.Split(source, "\n") {
		line := strings.TrimSpace(raw)
		if comment := strings.Index(line, "!"); comment >= 0 {
			line = strings.TrimSpace(line[:comment])
		}
		line = label_prefix.ReplaceAllString(line, "")

		loc := pattern.FindStringIndex(line)
		if loc == nil {
			continue
		}

		desc := ReadDescriptor{LineNumber: i + 1, RawText: line}

		guard, ok := conditionalGuard(line[:loc[0]])
		if ok {
			desc.IsConditional = true
			desc.ConditionText = guard
		}

		vars, err := SplitVariables(line[loc[1]:])
		if err != nil {
			desc.Malformed = true
			pkg.WarnLog(fmt.Sprintf("line %d: %s; keeping descriptor with no variables", i+1, err))
		} else {
			desc.Variables = vars
		}
		descriptors = append(descriptors, desc)
	}
	return descriptors
}

// conditionalGuard recognizes an `if (cond)` prefix ahead of the read
// and returns the guard text verbatim. No expression evaluation happens
// here or anywhere else; the schema builder only ever asks "is the
// named earlier field nonzero".
func conditionalGuard(prefix string) (string, bool) {
	prefix = strings.TrimSpace(prefix)
	if len(prefix) < 2 || !strings.EqualFold(prefix[:2], "if") {
		return "", false
	}
	rest := strings.TrimSpace(prefix[2:])
	if !strings.HasPrefix(rest, "(") {
		return "", false
	}
	depth := 0
	for i, r := range rest {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return strings.TrimSpace(rest[1:i]), true
			}
		}
	}
	return "", false
}

// SplitVariables splits a read statement's io list on top-level commas.
// An implied-loop group `(k,nf(:,k),i=1,nr)` stays one token; its inner
// commas are below parenthesis depth zero.
func SplitVariables(list string) ([]string, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return []string{}, nil
	}

	vars := []string{}
	depth := 0
	start := 0
	for i := 0; i < len(list); i++ {
		switch list[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced parentheses in %q", list)
			}
		case ',':
			if depth == 0 {
				vars = append(vars, strings.TrimSpace(list[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced parentheses in %q", list)
	}
	vars = append(vars, strings.TrimSpace(list[start:]))
	return pkg.Filter(vars, func(v string) bool { return len(v) > 0 }), nil
}
