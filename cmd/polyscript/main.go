// Command polyscript evaluates polyscript files and reports, for every
// mesh they define, its validation findings, its triangulation and
// whether the result is a closed manifold.
//
// Usage:
//
//	polyscript [flags] file.ps ...
//
// A file name of "-" reads standard input.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("polyscript: ")
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is main without the process exit, for tests. It returns 2 on usage
// errors, 1 when any script or mesh fails, and 0 otherwise.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg := DefaultConfig()
	var asJSON, quiet bool

	fs := flag.NewFlagSet("polyscript", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Kernel, "kernel", cfg.Kernel, "geometry backend: poly, sdfx or manifold")
	fs.StringVar(&cfg.Policy, "policy", cfg.Policy, "ear clipping policy: naive or best")
	fs.Float64Var(&cfg.Epsilon, "epsilon", cfg.Epsilon, "predicate tolerance")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "faces triangulated concurrently")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "evaluation time limit per script")
	fs.BoolVar(&cfg.IncludeMesh, "mesh", false, "include triangulated meshes in JSON output")
	fs.BoolVar(&asJSON, "json", false, "print reports as JSON")
	fs.BoolVar(&quiet, "quiet", false, "do not log triangulation fallbacks")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: polyscript [flags] file.ps ...")
		fs.PrintDefaults()
		return 2
	}
	if !quiet {
		cfg.Logger = log.New(stderr, "polyscript: ", 0)
	}

	app, err := NewApp(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "polyscript: %v\n", err)
		return 2
	}

	ctx := context.Background()
	status := 0
	results := make(map[string]EvalResult, fs.NArg())
	for _, path := range fs.Args() {
		source, err := readSource(path, stdin)
		if err != nil {
			fmt.Fprintf(stderr, "polyscript: %v\n", err)
			status = 1
			continue
		}
		res := app.Evaluate(ctx, string(source))
		if !res.OK() {
			status = 1
		}
		if asJSON {
			results[path] = res
			continue
		}
		printResult(stdout, path, res)
	}

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			fmt.Fprintf(stderr, "polyscript: %v\n", err)
			return 1
		}
	}
	return status
}

func readSource(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func printResult(w io.Writer, path string, res EvalResult) {
	fmt.Fprintf(w, "%s:\n", path)
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  error: %s\n", e.Error())
	}
	for _, m := range res.Meshes {
		closed := "open"
		if m.Closed {
			closed = "closed"
		}
		fmt.Fprintf(w, "  %s: %d vertices, %d faces -> %d triangles, %s, volume %.6g\n",
			m.Name, m.Vertices, m.Faces, m.Triangles, closed, m.Volume)
		for _, fb := range m.Fallbacks {
			fmt.Fprintf(w, "    kept face %d (%d vertices): %s\n", fb.Face, fb.Vertices, fb.Reason)
		}
		for _, i := range m.Errors {
			fmt.Fprintf(w, "    %s\n", i.Error())
		}
		for _, i := range m.Warnings {
			fmt.Fprintf(w, "    %s\n", i.Error())
		}
	}
}
