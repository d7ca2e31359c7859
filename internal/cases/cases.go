// Package cases enumerates benchmark cases from the conventional tree
// layout: program sources under source/<chapter>/<program>.f03 and
// dataset files under executable/<chapter>/<case>.dat, where a case
// name starts with its program name (p51_3 -> p51).
package cases

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const (
	DefaultCollection = "pfem5"
	sourceExt         = ".f03"
	datasetExt        = ".dat"
)

type Case struct {
	Id      string
	Chapter string
	Program string
	Name    string

	SourcePath  string
	DatasetPath string
}

type Store struct {
	Root       string
	Collection string
}

func NewStore(root string) *Store {
	return &Store{Root: root, Collection: DefaultCollection}
}

// Chapters lists chapter directories under executable/, sorted.
func (s *Store) Chapters() ([]string, error) {
	entries, err := os.ReadDir(path.Join(s.Root, "executable"))
	if err != nil {
		return nil, errors.Wrap(err, "cannot list chapters")
	}
	chapters := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			chapters = append(chapters, entry.Name())
		}
	}
	sort.Strings(chapters)
	return chapters, nil
}

// List enumerates the cases of one chapter in name order. A dataset
// with no companion source file is skipped; the caller learns about it
// from the returned names.
func (s *Store) List(chapter string) (found []Case, missing []string, err error) {
	pattern := path.Join(s.Root, "executable", chapter, "*"+datasetExt)
	dat_files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "cannot glob %s", pattern)
	}
	sort.Strings(dat_files)

	for _, dat_path := range dat_files {
		name := strings.TrimSuffix(path.Base(dat_path), datasetExt)
		program := programOf(name)
		source_path := path.Join(s.Root, "source", chapter, program+sourceExt)
		if _, stat_err := os.Stat(source_path); stat_err != nil {
			missing = append(missing, name)
			continue
		}
		found = append(found, Case{
			Id:          s.CaseId(chapter, program, name),
			Chapter:     chapter,
			Program:     program,
			Name:        name,
			SourcePath:  source_path,
			DatasetPath: dat_path,
		})
	}
	return found, missing, nil
}

func (s *Store) CaseId(chapter, program, name string) string {
	collection := s.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	chapter_num := strings.TrimPrefix(chapter, "chap")
	return fmt.Sprintf("%s_ch%s_%s_%s", collection, chapter_num, program, name)
}

func programOf(case_name string) string {
	if idx := strings.Index(case_name, "_"); idx > 0 {
		return case_name[:idx]
	}
	return case_name
}
