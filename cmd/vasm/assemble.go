package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-vasm8/vasm8/asm"
	"github.com/go-vasm8/vasm8/config"
)

// runAssemble implements `vasm assemble <file> [-o out.bin] [-map
// out.map] [-config vasm.toml]`. It returns the process exit code
// rather than calling os.Exit directly, so main stays the only place
// that terminates the process.
func runAssemble(args []string) int {
	fs := flag.NewFlagSet("assemble", flag.ContinueOnError)
	outPath := fs.String("o", "", "output binary path (default: <file> with .bin extension)")
	mapPath := fs.String("map", "", "output source-map path (default: <file> with .map extension)")
	configPath := fs.String("config", "vasm.toml", "configuration file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: vasm assemble <file> [-o out.bin] [-map out.map] [-config vasm.toml]")
		return 2
	}
	file := fs.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vasm: %v\n", err)
		return 1
	}

	if *outPath == "" {
		*outPath = defaultOutputPath(file, ".bin", cfg.Assemble.OutputDir)
	}
	if *mapPath == "" {
		*mapPath = defaultOutputPath(file, ".map", cfg.Assemble.OutputDir)
	}
	if cfg.Assemble.OutputDir != "" {
		if err := os.MkdirAll(cfg.Assemble.OutputDir, 0750); err != nil {
			fmt.Fprintf(os.Stderr, "vasm: %v\n", err)
			return 1
		}
	}

	origin, err := parseAddr(cfg.Assemble.DefaultOrigin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vasm: invalid default_origin %q: %v\n", cfg.Assemble.DefaultOrigin, err)
		return 1
	}

	sources, entry, err := asm.LoadSources(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vasm: %v\n", err)
		return 1
	}

	artifact := asm.AssembleMulti(sources, entry, asm.Options{Origin: origin})

	exitCode := 0
	for _, d := range artifact.Diagnostics {
		fmt.Fprintln(os.Stderr, d.String())
		if d.Severity == asm.Error || cfg.Assemble.WarningsAsErrors {
			exitCode = 1
		}
	}

	if !artifact.Succeeded() {
		return 1
	}

	if len(artifact.Segments) > 0 {
		if err := os.WriteFile(*outPath, artifact.Segments[0].Data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "vasm: %v\n", err)
			return 1
		}
	}

	if cfg.Assemble.EmitSourceMap {
		if err := writeMapFile(*mapPath, artifact); err != nil {
			fmt.Fprintf(os.Stderr, "vasm: %v\n", err)
			return 1
		}
	}

	fmt.Printf("assembled %s -> %s (%d segment(s))\n", file, *outPath, len(artifact.Segments))
	return exitCode
}

func writeMapFile(path string, artifact *asm.Artifact) error {
	var b strings.Builder

	fmt.Fprintln(&b, "; segments")
	for _, seg := range artifact.Segments {
		fmt.Fprintf(&b, "$%04X  %d bytes\n", seg.Start, len(seg.Data))
	}

	fmt.Fprintln(&b, "\n; symbols")
	names := make([]string, 0, len(artifact.Symbols))
	for name := range artifact.Symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "$%04X  %s\n", artifact.Symbols[name], name)
	}

	fmt.Fprintln(&b, "\n; source map")
	for _, line := range artifact.SourceMap.Lines() {
		fmt.Fprintf(&b, "$%04X  %s:%d\n", line.Address, line.File, line.Line)
	}

	return os.WriteFile(path, []byte(b.String()), 0644)
}

func replaceExt(file, ext string) string {
	base := file[:len(file)-len(filepath.Ext(file))]
	return base + ext
}

// defaultOutputPath derives the default output path for an unspecified
// -o/-map flag: next to the source file, unless outputDir is set, in
// which case the file's base name is redirected there instead.
func defaultOutputPath(file, ext, outputDir string) string {
	if outputDir == "" {
		return replaceExt(file, ext)
	}
	return filepath.Join(outputDir, replaceExt(filepath.Base(file), ext))
}
