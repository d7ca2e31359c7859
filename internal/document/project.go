package document

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Project maps a dataset into a yaml node tree. Pure and deterministic:
// identical datasets yield byte-identical structure, with keys in
// schema/record order, never alphabetical. Serialization itself is the
// emitter's job.
func Project(d *Dataset) *yaml.Node {
	root := mappingNode()

	appendPair(root, "id", scalarNode(d.CaseId))

	reads := sequenceNode()
	for _, record := range d.Records {
		read := mappingNode()
		read.Style = yaml.FlowStyle
		appendPair(read, "line", scalarNode(record.LineNumber))
		appendPair(read, "stmt", scalarNode(record.Statement))
		reads.Content = append(reads.Content, read)
	}
	code := mappingNode()
	appendPair(code, "io_reads", reads)
	appendPair(root, "code", code)

	records := sequenceNode()
	for _, record := range d.Records {
		records.Content = append(records.Content, projectRecord(record))
	}
	appendPair(root, "records", records)

	unresolved := sequenceNode()
	for _, name := range d.Unresolved {
		unresolved.Content = append(unresolved.Content, scalarNode(name))
	}
	appendPair(root, "unresolved", unresolved)

	diags := sequenceNode()
	for _, diag := range d.Diags {
		node := mappingNode()
		node.Style = yaml.FlowStyle
		appendPair(node, "kind", scalarNode(string(diag.Kind)))
		if diag.Field != "" {
			appendPair(node, "field", scalarNode(diag.Field))
		}
		if diag.Line > 0 {
			appendPair(node, "line", scalarNode(diag.Line))
		}
		appendPair(node, "message", scalarNode(diag.Message))
		diags.Content = append(diags.Content, node)
	}
	appendPair(root, "diagnostics", diags)

	return root
}

func projectRecord(record *DecodedRecord) *yaml.Node {
	node := mappingNode()
	appendPair(node, "record", scalarNode(record.Index+1))
	appendPair(node, "read", scalarNode(record.Statement))
	appendPair(node, "line", scalarNode(record.LineNumber))

	fields := mappingNode()
	for _, name := range record.Fields.Sorted {
		appendPair(fields, name, valueNode(record.Fields.Get(name)))
	}
	appendPair(node, "fields", fields)
	return node
}

func valueNode(value any) *yaml.Node {
	switch value := value.(type) {
	case []any:
		seq := sequenceNode()
		seq.Style = yaml.FlowStyle
		for _, item := range value {
			seq.Content = append(seq.Content, valueNode(item))
		}
		return seq
	case []*Row:
		seq := sequenceNode()
		for _, row := range value {
			node := mappingNode()
			node.Style = yaml.FlowStyle
			for _, name := range row.Sorted {
				appendPair(node, name, valueNode(row.Get(name)))
			}
			seq.Content = append(seq.Content, node)
		}
		return seq
	default:
		return scalarNode(value)
	}
}

func mappingNode() *yaml.Node  { return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"} }
func sequenceNode() *yaml.Node { return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"} }

func scalarNode(value any) *yaml.Node {
	node := &yaml.Node{Kind: yaml.ScalarNode}
	switch value := value.(type) {
	case string:
		node.Tag = "!!str"
		node.Value = value
	case int:
		node.Tag = "!!int"
		node.Value = strconv.Itoa(value)
	case float64:
		node.Tag = "!!float"
		node.Value = strconv.FormatFloat(value, 'g', -1, 64)
	case bool:
		node.Tag = "!!bool"
		node.Value = strconv.FormatBool(value)
	case nil:
		node.Tag = "!!null"
		node.Value = "null"
	default:
		node.Tag = "!!str"
		node.Value = fmt.Sprint(value)
	}
	return node
}

func appendPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, value)
}
