package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/coyove/minilisp"
	"github.com/peterh/liner"
	"golang.org/x/term"
)

const (
	HistoryFile = ".minilisp.history"
	promptMain  = "minilisp> "
	promptCont  = "      ... "
)

// Run starts a line editing session when stdin is a terminal and falls back
// to reading forms from the pipe otherwise.
func Run(vm *minilisp.VirtualMachine) error {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		home, _ := os.UserHomeDir()
		return Interactive(vm, filepath.Join(home, HistoryFile))
	}
	return Pipe(vm, os.Stdin, os.Stdout)
}

// Interactive reads forms with liner, keeping the history at histPath.
func Interactive(vm *minilisp.VirtualMachine, histPath string) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(func(line string) (c []string) {
		i := strings.LastIndexAny(line, "( '") + 1
		for _, name := range vm.Symbols().Names() {
			if strings.HasPrefix(name, line[i:]) {
				c = append(c, line[:i]+name)
			}
		}
		return c
	})

	if f, err := os.Open(histPath); err == nil {
		ln.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			ln.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		src, err := readForm(func(prompt string) (string, error) { return ln.Prompt(prompt) })
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return nil
		} else if err != nil {
			return err
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		if quit := Exec(vm, src, os.Stdout); quit {
			return nil
		}
	}
}

// Pipe evaluates the forms read from r, printing each result to w.
func Pipe(vm *minilisp.VirtualMachine, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	for {
		src, err := readForm(func(string) (string, error) {
			if !sc.Scan() {
				if err := sc.Err(); err != nil {
					return "", err
				}
				return "", io.EOF
			}
			return sc.Text(), nil
		})
		if strings.TrimSpace(src) != "" {
			if quit := Exec(vm, src, w); quit {
				return nil
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}
	}
}

// readForm keeps prompting until the collected lines parse or fail for a
// reason other than missing input.
func readForm(prompt func(string) (string, error)) (string, error) {
	var b strings.Builder
	for {
		p := promptMain
		if b.Len() > 0 {
			p = promptCont
		}
		line, err := prompt(p)
		if err != nil {
			return b.String(), err
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if _, err := minilisp.ParseAll(b.String()); !minilisp.IsIncomplete(err) {
			return b.String(), nil
		}
	}
}

// Exec runs one REPL command. @ lists the global table, :quit ends the
// session.
func Exec(vm *minilisp.VirtualMachine, src string, w io.Writer) (quit bool) {
	switch strings.TrimSpace(src) {
	case ":quit":
		return true
	case "@":
		t := vm.Symbols()
		g := t.Globals()
		for _, name := range t.Names() {
			fmt.Fprintf(w, "%s => %v\n", name, g[name].Value())
		}
		return false
	}
	v, err := vm.EvalString(src)
	if err != nil {
		var re *minilisp.RuntimeError
		if errors.As(err, &re) {
			fmt.Fprintln(w, "error:", re.Trace())
		} else {
			fmt.Fprintln(w, "error:", err)
		}
		return false
	}
	fmt.Fprintln(w, v)
	return false
}
