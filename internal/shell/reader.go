package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

type lineReader interface {
	Readline() (string, error)
	SaveHistory(line string) error
	Close() error
}

// newReader picks readline for terminals and a plain line reader for pipes
// and files.
func (s *Shell) newReader() (lineReader, error) {
	if !term.IsTerminal(int(s.stdio.In.Fd())) {
		return &plainReader{
			prompt: s.config.Prompt,
			out:    s.stdio.Out,
			in:     bufio.NewReader(s.stdio.In),
		}, nil
	}

	rl, err := readline.NewEx(s.readlineConfig())
	if err != nil {
		return nil, fmt.Errorf("error initializing readline: %w", err)
	}
	for _, line := range s.history.GetAll() {
		if err := rl.SaveHistory(line); err != nil {
			rl.Close()
			return nil, err
		}
	}
	return rl, nil
}

func (s *Shell) readlineConfig() *readline.Config {
	return &readline.Config{
		Prompt:                 s.config.Prompt,
		Stdin:                  readline.NewCancelableStdin(s.stdio.In),
		Stdout:                 s.stdio.Out,
		Stderr:                 s.stdio.Err,
		HistoryLimit:           historyLimit(s.config.HistorySize),
		DisableAutoSaveHistory: true,
		FuncFilterInputRune:    s.filterInput,
	}
}

// historyLimit maps a history size onto readline, where 0 means its default
// and a negative limit disables history.
func historyLimit(size int) int {
	if size == 0 {
		return -1
	}
	return size
}

// filterInput turns a Ctrl-Z typed at the prompt into a mode toggle. In raw
// mode the terminal delivers it as a byte, and readline would otherwise
// suspend the process group and wait for a SIGCONT that never comes.
func (s *Shell) filterInput(r rune) (rune, bool) {
	if r == readline.CharCtrlZ {
		s.toggleMode()
		return 0, false
	}
	return r, true
}

type plainReader struct {
	prompt string
	out    io.Writer
	in     *bufio.Reader
}

func (r *plainReader) Readline() (string, error) {
	fmt.Fprint(r.out, r.prompt)

	line, err := r.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

func (r *plainReader) SaveHistory(string) error { return nil }

func (r *plainReader) Close() error { return nil }
