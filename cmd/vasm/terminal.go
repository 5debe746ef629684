package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/beevik/term"
)

// terminal reads REPL input a line at a time. When stdin is a TTY it
// puts the terminal into raw mode via beevik/term so it can echo and
// edit a line itself for a Ctrl-C-interruptible command prompt;
// otherwise it falls back to a plain bufio.Scanner, which keeps
// piped/scripted input (and this package's non-interactive tests)
// working.
type terminal struct {
	in    *os.File
	out   io.Writer
	scan  *bufio.Scanner
	state *term.State
	raw   bool
}

func newTerminal(in *os.File, out io.Writer) *terminal {
	t := &terminal{in: in, out: out, scan: bufio.NewScanner(in)}
	if state, err := term.MakeRaw(int(in.Fd())); err == nil {
		t.state = state
		t.raw = true
	}
	return t
}

func (t *terminal) Close() error {
	if t.raw {
		return term.Restore(int(t.in.Fd()), t.state)
	}
	return nil
}

func (t *terminal) ReadLine(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	if t.raw {
		return t.readLineRaw()
	}
	if !t.scan.Scan() {
		if err := t.scan.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return t.scan.Text(), nil
}

func (t *terminal) readLineRaw() (string, error) {
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := t.in.Read(buf)
		if err != nil {
			return "", err
		}
		if n == 0 {
			continue
		}
		switch b := buf[0]; b {
		case '\r', '\n':
			fmt.Fprint(t.out, "\r\n")
			return string(line), nil
		case 3: // Ctrl-C
			return "", io.EOF
		case 127, 8: // backspace/delete
			if len(line) > 0 {
				line = line[:len(line)-1]
				fmt.Fprint(t.out, "\b \b")
			}
		default:
			line = append(line, b)
			fmt.Fprintf(t.out, "%c", b)
		}
	}
}
