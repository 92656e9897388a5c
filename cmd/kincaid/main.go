// Command kincaid prints the Flesch Reading Ease and Flesch-Kincaid grade
// level of text files.
//
// All inputs are scored together as one document, each file a separate
// chunk. With no arguments it reads standard input.
//
// Usage:
//
//	kincaid [-markdown] [-each] [-json] [-normalize=false] [-exclude glob]... [path-or-glob ...]
//
// -normalize, on by default, composes text to NFC before scoring.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/markdown"
	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/readability"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type options struct {
	markdown  bool
	each      bool
	json      bool
	normalize bool
	excludes  stringList
}

// input is one named source of text. name is "-" for standard input.
type input struct {
	name   string
	chunks []string
}

// fileReport is one entry of -each output.
type fileReport struct {
	File   string              `json:"file"`
	Report *readability.Report `json:"report,omitempty"`
	Error  string              `json:"error,omitempty"`
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("kincaid", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&opts.markdown, "markdown", false, "treat every input as Markdown (.md and .markdown files always are)")
	fs.BoolVar(&opts.each, "each", false, "print one report per file instead of one for all inputs")
	fs.BoolVar(&opts.json, "json", false, "print reports as JSON")
	fs.BoolVar(&opts.normalize, "normalize", true, "apply Unicode NFC normalization before scoring")
	fs.Var(&opts.excludes, "exclude", "skip files matching this glob (repeatable)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: kincaid [flags] [path-or-glob ...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	var engineOpts []readability.Option
	if opts.normalize {
		engineOpts = append(engineOpts, readability.WithNormalization())
	}
	engine, err := readability.New(engineOpts...)
	if err != nil {
		fmt.Fprintf(stderr, "kincaid: %v\n", err)
		return 1
	}

	inputs, err := readInputs(fs.Args(), opts, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "kincaid: %v\n", err)
		return 1
	}
	if len(inputs) == 0 {
		fmt.Fprintln(stderr, "kincaid: no input files")
		return 1
	}

	if opts.each {
		return printEach(ctx, engine, inputs, opts, stdout, stderr)
	}

	var chunks []string
	for _, in := range inputs {
		chunks = append(chunks, in.chunks...)
	}
	report, err := score(ctx, engine, chunks)
	if err != nil {
		fmt.Fprintf(stderr, "kincaid: %v\n", err)
		return 1
	}
	if opts.json {
		return writeJSON(stdout, stderr, report)
	}
	printReport(stdout, report)
	return 0
}

func readInputs(args []string, opts options, stdin io.Reader) ([]input, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return []input{{name: "-", chunks: chunksOf(data, opts.markdown)}}, nil
	}

	ex, err := compileExcludes(opts.excludes)
	if err != nil {
		return nil, err
	}
	files, err := resolveFiles(args, ex)
	if err != nil {
		return nil, err
	}
	inputs := make([]input, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		inputs = append(inputs, input{name: f, chunks: chunksOf(data, opts.markdown || isMarkdown(f))})
	}
	return inputs, nil
}

func chunksOf(data []byte, md bool) []string {
	if md {
		return markdown.Chunks(data)
	}
	return []string{string(data)}
}

func score(ctx context.Context, engine *readability.Engine, chunks []string) (readability.Report, error) {
	m, err := engine.MeasureAll(ctx, chunks, runtime.GOMAXPROCS(0))
	if err != nil {
		return readability.Report{}, err
	}
	return readability.NewReport(m)
}

func printEach(ctx context.Context, engine *readability.Engine, inputs []input, opts options, stdout, stderr io.Writer) int {
	status := 0
	reports := make([]fileReport, 0, len(inputs))
	for _, in := range inputs {
		r, err := score(ctx, engine, in.chunks)
		if err != nil {
			status = 1
			reports = append(reports, fileReport{File: in.name, Error: err.Error()})
			continue
		}
		reports = append(reports, fileReport{File: in.name, Report: &r})
	}

	if opts.json {
		if code := writeJSON(stdout, stderr, reports); code != 0 {
			return code
		}
		return status
	}
	for i, fr := range reports {
		if i > 0 {
			fmt.Fprintln(stdout)
		}
		fmt.Fprintf(stdout, "%s:\n", fr.File)
		if fr.Report == nil {
			fmt.Fprintf(stdout, "  error: %s\n", fr.Error)
			continue
		}
		printReport(stdout, *fr.Report)
	}
	return status
}

func printReport(w io.Writer, r readability.Report) {
	fmt.Fprintf(w, "Words:         %d\n", r.Words)
	fmt.Fprintf(w, "Syllables:     %d\n", r.Syllables)
	fmt.Fprintf(w, "Sentences:     %d\n", r.Sentences)
	fmt.Fprintf(w, "Reading ease:  %.2f (%s: %s)\n", float64(r.ReadingEase), r.ReadingEaseLabel, r.ReadingEaseDescription)
	fmt.Fprintf(w, "Grade level:   %.2f (%s)\n", float64(r.GradeLevel), r.GradeLevelLabel)
}

func writeJSON(stdout, stderr io.Writer, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "kincaid: writing JSON: %v\n", err)
		return 1
	}
	return 0
}
