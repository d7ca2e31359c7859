// Package emit serializes projected documents to YAML files and checks
// emitted files for structural problems. The shape of the document is
// the projector's business; this package only persists and verifies it.
package emit

import (
	"bytes"
	"fmt"
	"os"
	"path"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fortrec/fortrec/internal/document"
)

const indent = 2

// Marshal renders a projected document. Identical node trees yield
// byte-identical output.
func Marshal(node *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(node); err != nil {
		return nil, errors.Wrap(err, "cannot encode document")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "cannot encode document")
	}
	return buf.Bytes(), nil
}

// WriteFile projects and writes one dataset as <case id>.yaml in dir,
// creating dir when needed.
func WriteFile(dir string, dataset *document.Dataset) (string, error) {
	data, err := Marshal(document.Project(dataset))
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", errors.Wrapf(err, "cannot create %s", dir)
		}
	}

	out_path := path.Join(dir, dataset.CaseId+".yaml")
	if err := os.WriteFile(out_path, data, 0644); err != nil {
		return "", errors.Wrapf(err, "cannot write %s", out_path)
	}
	return out_path, nil
}

// required top-level keys of an emitted document
var required_keys = []string{"id", "code", "records"}

// Verify checks one emitted file: valid yaml, a mapping at the root,
// the required keys present, and a non-empty id. Each problem is one
// error; an empty slice means the file is good.
func Verify(yaml_path string) []error {
	data, err := os.ReadFile(yaml_path)
	if err != nil {
		return []error{errors.Wrapf(err, "cannot read %s", yaml_path)}
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []error{errors.Wrapf(err, "%s: yaml parse error", yaml_path)}
	}
	if doc == nil {
		return []error{fmt.Errorf("%s: document root must be a mapping", yaml_path)}
	}

	problems := []error{}
	for _, key := range required_keys {
		if _, ok := doc[key]; !ok {
			problems = append(problems, fmt.Errorf("%s: missing required key %q", yaml_path, key))
		}
	}

	if id, ok := doc["id"]; ok {
		if id_str, ok := id.(string); !ok || id_str == "" {
			problems = append(problems, fmt.Errorf("%s: id must be a non-empty string", yaml_path))
		}
	}
	return problems
}

// VerifyAll checks every file and then checks ids for uniqueness across
// the whole set.
func VerifyAll(yaml_paths []string) []error {
	problems := []error{}
	id_owner := map[string]string{}

	for _, yaml_path := range yaml_paths {
		problems = append(problems, Verify(yaml_path)...)

		id := documentId(yaml_path)
		if id == "" {
			continue
		}
		if owner, ok := id_owner[id]; ok {
			problems = append(problems, fmt.Errorf("%s: duplicate id %q (also in %s)", yaml_path, id, owner))
			continue
		}
		id_owner[id] = yaml_path
	}
	return problems
}

func documentId(yaml_path string) string {
	data, err := os.ReadFile(yaml_path)
	if err != nil {
		return ""
	}
	var doc struct {
		Id string `yaml:"id"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return ""
	}
	return doc.Id
}
