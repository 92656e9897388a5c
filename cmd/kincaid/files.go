package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gobwas/glob"
)

// dirPattern selects the files read from a directory argument.
const dirPattern = "**/*.{txt,text,md,markdown}"

func isMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

func hasGlobChars(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

type excluder []glob.Glob

func compileExcludes(patterns []string) (excluder, error) {
	var ex excluder
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		ex = append(ex, g)
	}
	return ex, nil
}

// match tests the slash-separated path and its base name.
func (ex excluder) match(path string) bool {
	p := filepath.ToSlash(filepath.Clean(path))
	base := filepath.Base(path)
	for _, g := range ex {
		if g.Match(p) || g.Match(base) {
			return true
		}
	}
	return false
}

// resolveFiles expands args into a sorted, de-duplicated list of regular
// files. Arguments may be files, directories (searched recursively for
// text and Markdown files) or doublestar globs. Named paths that do not
// exist are an error; globs matching nothing are not.
func resolveFiles(args []string, ex excluder) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if ex.match(path) {
			return
		}
		key, err := filepath.Abs(path)
		if err != nil {
			key = path
		}
		if !seen[key] {
			seen[key] = true
			files = append(files, path)
		}
	}

	for _, arg := range args {
		if hasGlobChars(arg) {
			matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("invalid glob %q: %w", arg, err)
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %q: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		matches, err := doublestar.Glob(os.DirFS(arg), dirPattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("searching %q: %w", arg, err)
		}
		for _, m := range matches {
			add(filepath.Join(arg, filepath.FromSlash(m)))
		}
	}

	sort.Strings(files)
	return files, nil
}
