package shell

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"smallsh/internal/parser"
)

// executeBuiltin runs cmd if it names a built-in. Redirections and '&' are
// ignored for built-ins.
func (s *Shell) executeBuiltin(cmd *parser.Command) (bool, error) {
	switch cmd.Program {
	case "exit":
		s.exit()
		return true, nil
	case "status":
		fmt.Fprintln(s.stdio.Out, describe(s.lastStatus))
		return true, nil
	case "cd":
		return true, s.changeDirectory(cmd.Args[1:])
	default:
		return false, nil
	}
}

func (s *Shell) changeDirectory(args []string) error {
	var dir string
	if len(args) == 0 {
		dir = s.homeDir()
	} else {
		dir = args[0]
	}
	if dir == "" {
		return errors.New("cd: HOME not set")
	}

	if err := os.Chdir(dir); err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return fmt.Errorf("cd: %s: %w", dir, pathErr.Err)
		}
		return fmt.Errorf("cd: %w", err)
	}
	s.logger.Printf("changed directory to %s", dir)
	return nil
}

func (s *Shell) homeDir() string {
	if s.config.HomeDir != "" {
		return s.config.HomeDir
	}
	return os.Getenv("HOME")
}

// exit signals every background job still tracked and stops the loop. Jobs
// are not reaped.
func (s *Shell) exit() {
	sig := s.config.Signal()
	for _, pid := range s.jobs.Signal(sig) {
		s.logger.Printf("sent %v to background pid %d", sig, pid)
	}
	s.quit = true
}
