package main

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/fortrec/fortrec/internal/emit"
)

func main() {
	args := os.Args
	var dir string

	if len(args) > 1 {
		dir = args[1]
	} else {
		dir = "./benchmarks"
	}

	if !path.IsAbs(dir) {
		cwd, _ := os.Getwd()
		dir = path.Join(cwd, dir)
	}

	fmt.Printf("Checking %s for errors\n", dir)

	yaml_files := []string{}
	filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() && filepath.Ext(p) == ".yaml" {
			yaml_files = append(yaml_files, p)
		}
		return nil
	})
	sort.Strings(yaml_files)

	if len(yaml_files) == 0 {
		fmt.Println("No yaml documents found")
		os.Exit(1)
	}

	problems := emit.VerifyAll(yaml_files)
	if len(problems) > 0 {
		for _, problem := range problems {
			fmt.Printf("Error: %s\n", problem.Error())
		}
		fmt.Printf("%d problems in %d documents\n", len(problems), len(yaml_files))
		os.Exit(1)
	}
	fmt.Printf("Document checks successful: %d documents are valid\n", len(yaml_files))
}
