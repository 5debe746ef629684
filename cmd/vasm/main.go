// Command vasm is the cross-assembler's command-line front end: a thin
// main that hands off to one of a small set of subcommands.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "assemble":
		os.Exit(runAssemble(os.Args[2:]))
	case "repl":
		runRepl(os.Args[2:])
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "vasm: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  vasm assemble <file> [-o out.bin] [-map out.map] [-config vasm.toml]
  vasm repl [-config vasm.toml]`)
}
