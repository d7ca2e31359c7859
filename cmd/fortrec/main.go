package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fortrec/fortrec/internal/cases"
	"github.com/fortrec/fortrec/internal/conn"
	"github.com/fortrec/fortrec/internal/emit"
	"github.com/fortrec/fortrec/internal/runner"
	"github.com/fortrec/fortrec/pkg"
)

func main() {
	cwd, _ := os.Getwd()

	root := flag.String("root", cwd, "benchmark tree root (source/ and executable/)")
	chapter := flag.String("chapter", "", "chapter to process; empty means all")
	only_case := flag.String("case", "", "process a single case by name")
	out := flag.String("out", cwd+"/benchmarks", "output directory for yaml documents")
	channel := flag.String("channel", "10", "sequential read channel identifier")
	comment := flag.String("comment", "!", "dataset comment marker")
	collection := flag.String("collection", cases.DefaultCollection, "collection prefix for case ids")
	port := flag.Int("port", 0, "run the extraction service on this port instead")
	should_log := flag.Bool("log", true, "enable logs")
	show_debug_logs := flag.Bool("dbg", false, "show debug logs")

	flag.Parse()

	if *should_log {
		if *show_debug_logs {
			pkg.SetLogLevel(pkg.LogLevelDebug)
		} else {
			pkg.SetLogLevel(pkg.LogLevelErrOnly)
		}
	} else {
		pkg.SetLogLevel(pkg.LogLevelNone)
	}

	opts := runner.Options{Channel: *channel, CommentMarker: *comment}

	if *port > 0 {
		conn.NewService(*root, opts).Listen(*port)
		return
	}

	store := cases.NewStore(*root)
	store.Collection = *collection

	chapters := []string{*chapter}
	if *chapter == "" {
		all, err := store.Chapters()
		if err != nil {
			pkg.FatalLog(err)
		}
		chapters = all
	}

	total, incomplete := 0, 0
	for _, chap := range chapters {
		found, missing, err := store.List(chap)
		if err != nil {
			pkg.ErrorLog("chapter", chap, "skipped;", err)
			continue
		}
		for _, name := range missing {
			pkg.WarnLog("case", name, "has no companion source; skipped")
		}
		if *only_case != "" {
			found = pkg.Filter(found, func(c cases.Case) bool { return c.Name == *only_case })
		}

		batch := runner.RunBatch(found, opts)
		iter, err := batch.Results.IterCh()
		if err != nil {
			continue
		}
		for record := range iter.Records() {
			out_path, err := emit.WriteFile(*out+"/"+chap, record.Val)
			if err != nil {
				pkg.ErrorLog("case", record.Key, "not written;", err)
				continue
			}
			total++
			if record.Val.Incomplete() {
				incomplete++
			}
			pkg.InfoLog("wrote", out_path)
		}
		iter.Close()
	}

	fmt.Printf("Generated %d yaml documents (%d incomplete)\n", total, incomplete)
}
