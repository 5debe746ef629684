package asm

import (
	"fmt"
	"os"
	"path"
	"strings"
)

// FlatLine is one line of the flattened, include-expanded program: the
// raw text as it appeared in its originating file, already parsed, and
// tagged with where it came from.
type FlatLine struct {
	File     string
	Line     int // 1-based, within File
	Parsed   ParsedLine
}

const defaultSourceName = "input"

// resolveIncludes performs a depth-first walk of entry's `.include`
// closure over sources, with case-folded admit-once semantics (not
// "open" vs "closed" — admission is irrevocable, so a cyclic include
// is silently skipped rather than treated as a distinct error case).
func resolveIncludes(sources map[string]string, entry string) ([]FlatLine, []Diagnostic) {
	var diags diagList
	text, ok := sources[entry]
	if !ok {
		diags.addError(SourceLocation{File: entry, Line: 0}, "Entry point file not found")
		return nil, diags.diags
	}

	admitted := map[string]bool{strings.ToLower(entry): true}
	var flat []FlatLine
	walkInclude(sources, entry, text, admitted, &flat, &diags)
	return flat, diags.diags
}

func walkInclude(sources map[string]string, file, text string, admitted map[string]bool, flat *[]FlatLine, diags *diagList) {
	lines := strings.Split(text, "\n")
	for i, raw := range lines {
		lineNum := i + 1
		parsed := parseLine(raw)
		if parsed.Kind == LineDirective && parsed.Directive.Kind == DirInclude {
			loc := SourceLocation{File: file, Line: lineNum}
			rawPath := strings.TrimSpace(parsed.Directive.IncludePath)
			rawPath = unquoteIncludePath(rawPath)
			if rawPath == "" {
				diags.addError(loc, "requires a file path")
				continue
			}
			resolved := resolveIncludePath(file, rawPath)
			key := strings.ToLower(resolved)
			if admitted[key] {
				continue
			}
			childText, ok := sources[resolved]
			if !ok {
				diags.addError(loc, "Cannot find included file")
				continue
			}
			admitted[key] = true
			walkInclude(sources, resolved, childText, admitted, flat, diags)
			continue
		}
		*flat = append(*flat, FlatLine{File: file, Line: lineNum, Parsed: parsed})
	}
}

// LoadSources reads entryPath off disk and recursively follows every
// `.include` directive it (and its includes) contain, resolving paths
// the same way resolveIncludePath does, so the returned map is ready
// to hand to AssembleMulti without any further disk access. It is the
// on-disk counterpart to the in-memory sources map the core pipeline
// otherwise expects, for callers such as cmd/vasm that start from a
// file path rather than a preloaded source set.
func LoadSources(entryPath string) (sources map[string]string, entry string, err error) {
	sources = make(map[string]string)
	if err := loadSource(entryPath, sources); err != nil {
		return nil, "", err
	}
	return sources, entryPath, nil
}

func loadSource(file string, sources map[string]string) error {
	if _, ok := sources[file]; ok {
		return nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", file, err)
	}
	text := string(data)
	sources[file] = text

	for i, raw := range strings.Split(text, "\n") {
		parsed := parseLine(raw)
		if parsed.Kind != LineDirective || parsed.Directive.Kind != DirInclude {
			continue
		}
		rawPath := unquoteIncludePath(strings.TrimSpace(parsed.Directive.IncludePath))
		if rawPath == "" {
			continue // reported as a diagnostic during assembly; not fatal here
		}
		resolved := resolveIncludePath(file, rawPath)
		if err := loadSource(resolved, sources); err != nil {
			return fmt.Errorf("%s:%d: %w", file, i+1, err)
		}
	}
	return nil
}

func unquoteIncludePath(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// resolveIncludePath resolves an include path relative to the
// directory of the including file, supporting './' and '../'.
func resolveIncludePath(includingFile, includePath string) string {
	if strings.HasPrefix(includePath, "/") {
		return path.Clean(includePath)
	}
	dir := path.Dir(includingFile)
	return path.Clean(path.Join(dir, includePath))
}
