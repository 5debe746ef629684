package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/cmd"
	"github.com/beevik/prefixtree/v2"

	"github.com/go-vasm8/vasm8/asm"
	"github.com/go-vasm8/vasm8/config"
	"github.com/go-vasm8/vasm8/disasm"
)

// replState holds the interactive session's last assembled artifact,
// keeping the assembled memory and source map alive between commands.
type replState struct {
	cfg      *config.Config
	term     *terminal
	artifact *asm.Artifact
	symbols  *prefixtree.Tree[uint16]
}

var replCommands *cmd.Tree

func init() {
	root := cmd.NewTree("vasm")
	root.AddCommand(cmd.Command{
		Name:        "asm",
		Brief:       "Assemble a file",
		Description: "Assemble a file (and its .include closure) and load the result into the session.",
		Usage:       "asm <file>",
		Data:        (*replState).cmdAsm,
	})
	root.AddCommand(cmd.Command{
		Name:  "sym",
		Brief: "Look up or list symbols",
		Description: "With no argument, list every symbol from the last assembly." +
			" With a prefix, resolve it to the one symbol it unambiguously abbreviates.",
		Usage: "sym [prefix]",
		Data:  (*replState).cmdSym,
	})
	root.AddCommand(cmd.Command{
		Name:        "dis",
		Brief:       "Disassemble from an address",
		Description: "Disassemble instructions starting at addr within the last assembly's segments.",
		Usage:       "dis <addr> [count]",
		Data:        (*replState).cmdDis,
	})
	root.AddCommand(cmd.Command{
		Name:        "help",
		Brief:       "Display help for a command",
		Usage:       "help [<command>]",
		Data:        (*replState).cmdHelp,
	})
	root.AddCommand(cmd.Command{
		Name:        "quit",
		Brief:       "Quit the REPL",
		Description: "Quit the interactive shell.",
		Usage:       "quit",
		Data:        (*replState).cmdQuit,
	})
	root.AddShortcut("a", "asm")
	root.AddShortcut("s", "sym")
	root.AddShortcut("d", "dis")
	root.AddShortcut("?", "help")
	root.AddShortcut("q", "quit")
	replCommands = root
}

func runRepl(args []string) {
	configPath := "vasm.toml"
	for i, a := range args {
		if a == "-config" && i+1 < len(args) {
			configPath = args[i+1]
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vasm: %v\n", err)
		os.Exit(1)
	}

	st := &replState{cfg: cfg, term: newTerminal(os.Stdin, os.Stdout)}
	defer st.term.Close()

	for {
		line, err := st.term.ReadLine(cfg.Repl.Prompt)
		if err != nil {
			fmt.Println()
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		sel, err := replCommands.Lookup(line)
		switch {
		case err == cmd.ErrNotFound:
			fmt.Println("Command not found.")
			continue
		case err == cmd.ErrAmbiguous:
			fmt.Println("Command is ambiguous.")
			continue
		case err != nil:
			fmt.Printf("ERROR: %v\n", err)
			continue
		}
		if sel.Command == nil || sel.Command.Data == nil {
			continue
		}

		handler := sel.Command.Data.(func(*replState, cmd.Selection) error)
		if err := handler(st, sel); err != nil {
			if err == errQuit {
				return
			}
			fmt.Printf("ERROR: %v\n", err)
		}
	}
}

var errQuit = fmt.Errorf("quit")

func (s *replState) cmdAsm(c cmd.Selection) error {
	if len(c.Args) < 1 {
		fmt.Println("Usage: asm <file>")
		return nil
	}

	sources, entry, err := asm.LoadSources(c.Args[0])
	if err != nil {
		fmt.Println(err)
		return nil
	}

	origin, err := parseAddr(s.cfg.Assemble.DefaultOrigin)
	if err != nil {
		fmt.Printf("invalid default_origin %q: %v\n", s.cfg.Assemble.DefaultOrigin, err)
		return nil
	}

	s.artifact = asm.AssembleMulti(sources, entry, asm.Options{Origin: origin})
	s.symbols = prefixtree.New[uint16]()
	for name, addr := range s.artifact.Symbols {
		s.symbols.Add(name, addr)
	}

	for _, d := range s.artifact.Diagnostics {
		fmt.Println(d.String())
	}
	if s.artifact.Succeeded() {
		fmt.Printf("Assembled %s: %d segment(s), %d symbol(s).\n",
			c.Args[0], len(s.artifact.Segments), len(s.artifact.Symbols))
	} else {
		fmt.Println("Assembly failed.")
	}
	return nil
}

func (s *replState) cmdSym(c cmd.Selection) error {
	if s.artifact == nil {
		fmt.Println("No assembly loaded. Use 'asm <file>' first.")
		return nil
	}

	if len(c.Args) == 0 {
		names := make([]string, 0, len(s.artifact.Symbols))
		for name := range s.artifact.Symbols {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  $%04X  %s\n", s.artifact.Symbols[name], name)
		}
		return nil
	}

	addr, err := s.symbols.FindValue(c.Args[0])
	if err != nil {
		fmt.Printf("No symbol matches prefix %q.\n", c.Args[0])
		return nil
	}
	fmt.Printf("  $%04X  %s\n", addr, c.Args[0])
	return nil
}

func (s *replState) cmdDis(c cmd.Selection) error {
	if s.artifact == nil {
		fmt.Println("No assembly loaded. Use 'asm <file>' first.")
		return nil
	}
	if len(c.Args) < 1 {
		fmt.Println("Usage: dis <addr> [count]")
		return nil
	}

	addr, err := parseAddr(c.Args[0])
	if err != nil {
		fmt.Println(err)
		return nil
	}

	count := 10
	if len(c.Args) > 1 {
		if n, err := strconv.Atoi(c.Args[1]); err == nil {
			count = n
		}
	}

	seg := segmentContaining(s.artifact.Segments, addr)
	if seg == nil {
		fmt.Printf("Address $%04X is not within any assembled segment.\n", addr)
		return nil
	}

	offset := int(addr - seg.Start)
	for i := 0; i < count && offset < len(seg.Data); i++ {
		inst, err := disasm.Decode(seg.Data[offset:])
		if err != nil {
			fmt.Printf("$%04X  ???  %v\n", seg.Start+uint16(offset), err)
			break
		}
		fmt.Printf("$%04X  %s\n", seg.Start+uint16(offset), inst.String())
		offset += inst.Length
	}
	return nil
}

func (s *replState) cmdHelp(c cmd.Selection) error {
	if len(c.Args) == 0 {
		fmt.Println("Commands:")
		for _, cc := range replCommands.Commands {
			if cc.Brief != "" {
				fmt.Printf("    %-10s  %s\n", cc.Name, cc.Brief)
			}
		}
		return nil
	}

	sel, err := replCommands.Lookup(strings.Join(c.Args, " "))
	if err != nil {
		fmt.Println(err)
		return nil
	}
	if sel.Command.Usage != "" {
		fmt.Printf("Usage: %s\n", sel.Command.Usage)
	}
	if sel.Command.Description != "" {
		fmt.Println(sel.Command.Description)
	}
	return nil
}

func (s *replState) cmdQuit(c cmd.Selection) error {
	return errQuit
}

func segmentContaining(segs []asm.Segment, addr uint16) *asm.Segment {
	for i := range segs {
		start := segs[i].Start
		end := start + uint16(len(segs[i].Data))
		if addr >= start && addr < end {
			return &segs[i]
		}
	}
	return nil
}

func parseAddr(s string) (uint16, error) {
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint16(v), nil
}
