package shell

import (
	"fmt"
	"os/exec"

	"smallsh/internal/parser"
	"smallsh/internal/spawn"
)

// Launcher starts commands through the child helper. self is the shell
// binary that gets re-executed.
type Launcher struct {
	self  string
	stdio *Stdio
}

func NewLauncher(self string, stdio *Stdio) *Launcher {
	return &Launcher{self: self, stdio: stdio}
}

// Start spawns cmd and returns without waiting for it.
func (l *Launcher) Start(cmd *parser.Command, background bool) (*exec.Cmd, error) {
	c := spawn.Command(l.self, &spawn.Request{
		Argv:       cmd.Args,
		InputPath:  cmd.InputPath,
		OutputPath: cmd.OutputPath,
		Background: background,
	})
	c.Stdin = l.stdio.In
	c.Stdout = l.stdio.Out
	c.Stderr = l.stdio.Err

	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("fork failed: %w", err)
	}
	return c, nil
}
