package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/readability"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Stdin(t *testing.T) {
	code, out, errOut := runCLI(t, "The cat sat on the mat.")
	if code != 0 {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	if !strings.Contains(out, "Words:         6\n") {
		t.Errorf("output missing word count:\n%s", out)
	}
	if !strings.Contains(out, "Reading ease:  100.00") {
		t.Errorf("output missing clamped reading ease:\n%s", out)
	}
}

func TestRun_HelpAndNormalize(t *testing.T) {
	code, _, errOut := runCLI(t, "", "-h")
	if code != 0 {
		t.Fatalf("-h exit %d", code)
	}
	for _, name := range []string{"-markdown", "-each", "-json", "-normalize", "-exclude"} {
		if !strings.Contains(errOut, name) {
			t.Errorf("usage does not list %s:\n%s", name, errOut)
		}
	}

	decomposed := "cafe\u0301 au lait."
	if _, out, _ := runCLI(t, decomposed); !strings.Contains(out, "Words:         3\n") {
		t.Errorf("default run should normalize:\n%s", out)
	}
	if _, out, _ := runCLI(t, decomposed, "-normalize=false"); !strings.Contains(out, "Words:         2\n") {
		t.Errorf("-normalize=false should keep the decomposed accent:\n%s", out)
	}
}

func TestRun_StdinNoWords(t *testing.T) {
	code, _, errOut := runCLI(t, "12 34 !!")
	if code != 1 {
		t.Errorf("exit %d, want 1", code)
	}
	if !strings.Contains(errOut, readability.ErrNoWords.Error()) {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestRun_FilesAccumulate(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "The cat sat.")
	b := writeFile(t, dir, "b.txt", "The dog ran far.")

	code, out, errOut := runCLI(t, "", "-json", a, b)
	if code != 0 {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	var r readability.Report
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if r.Words != 7 || r.Sentences != 2 {
		t.Errorf("words=%d sentences=%d, want 7 and 2", r.Words, r.Sentences)
	}
}

func TestRun_EachWithGlobAndExclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "docs/one.md", "# Intro\n\n```\nignored code\n```\n\nShort text here.\n")
	writeFile(t, dir, "docs/nested/two.txt", "Another simple line.")
	writeFile(t, dir, "docs/nested/skip.txt", "Should not be read.")

	code, out, errOut := runCLI(t, "", "-each", "-json", "-exclude", "skip.*",
		filepath.Join(dir, "docs", "**", "*.{md,txt}"))
	if code != 0 {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	var reports []fileReport
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2: %+v", len(reports), reports)
	}
	words := map[string]int{}
	for _, fr := range reports {
		if fr.Report == nil {
			t.Fatalf("%s: %s", fr.File, fr.Error)
		}
		words[filepath.Base(fr.File)] = fr.Report.Words
	}
	if words["one.md"] != 4 {
		t.Errorf("one.md words = %d, want 4 (code block skipped)", words["one.md"])
	}
	if words["two.txt"] != 3 {
		t.Errorf("two.txt words = %d, want 3", words["two.txt"])
	}
}

func TestRun_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "One two three.")
	writeFile(t, dir, "sub/b.md", "Four five.")
	writeFile(t, dir, "sub/c.go", "package ignored")

	files, err := resolveFiles([]string{dir}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Errorf("files = %v, want a.txt and sub/b.md", files)
	}
}

func TestRun_EachReportsUnscorableFile(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.txt", "Plain words.")
	empty := writeFile(t, dir, "empty.txt", "42")

	code, out, _ := runCLI(t, "", "-each", good, empty)
	if code != 1 {
		t.Errorf("exit %d, want 1", code)
	}
	if !strings.Contains(out, "error: "+readability.ErrNoWords.Error()) {
		t.Errorf("output missing error line:\n%s", out)
	}
	if !strings.Contains(out, "Words:         2") {
		t.Errorf("output missing good report:\n%s", out)
	}
}

func TestRun_Errors(t *testing.T) {
	if code, _, _ := runCLI(t, "", "-bogus"); code != 2 {
		t.Errorf("unknown flag: exit %d, want 2", code)
	}
	if code, _, _ := runCLI(t, "", filepath.Join(t.TempDir(), "missing.txt")); code != 1 {
		t.Errorf("missing file: exit %d, want 1", code)
	}
	if code, _, _ := runCLI(t, "", "-exclude", "[", "x.txt"); code != 1 {
		t.Errorf("bad exclude: exit %d, want 1", code)
	}
	if code, _, errOut := runCLI(t, "", filepath.Join(t.TempDir(), "*.txt")); code != 1 || !strings.Contains(errOut, "no input files") {
		t.Errorf("empty glob: exit %d, stderr %q", code, errOut)
	}
}

func TestExcluderMatchesBaseAndPath(t *testing.T) {
	ex, err := compileExcludes([]string{"**/vendor/**", "*.log"})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		path string
		want bool
	}{
		{"a/vendor/x.txt", true},
		{"logs/app.log", true},
		{"docs/readme.md", false},
	}
	for _, tt := range tests {
		if got := ex.match(tt.path); got != tt.want {
			t.Errorf("match(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
