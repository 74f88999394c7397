// Package shell runs the smallsh dispatch loop.
package shell

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"golang.org/x/sys/unix"

	"smallsh/internal/config"
	"smallsh/internal/history"
	"smallsh/internal/parser"
)

// Stdio holds the files the shell talks to. Children inherit them directly.
type Stdio struct {
	In  *os.File
	Out *os.File
	Err *os.File
}

func DefaultStdio() *Stdio {
	return &Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

var errorColor = color.New(color.FgRed)

type Shell struct {
	config   *config.Config
	stdio    *Stdio
	history  *history.History
	reader   lineReader
	launcher *Launcher
	jobs     *JobTable
	mode     modeSwitch
	logger   *log.Logger
	logFile  io.Closer

	// lastStatus is the raw wait status of the last foreground command.
	lastStatus unix.WaitStatus
	signalChan chan os.Signal
	quit       bool
}

func New(cfg *config.Config, stdio *Stdio) (*Shell, error) {
	hist, err := history.New(cfg.Fs(), cfg.HistoryFile, cfg.HistorySize)
	if err != nil {
		return nil, fmt.Errorf("error initializing history: %w", err)
	}

	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locating shell binary: %w", err)
	}

	s := &Shell{
		config:   cfg,
		stdio:    stdio,
		history:  hist,
		launcher: NewLauncher(self, stdio),
		jobs:     NewJobTable(),
		logger:   log.New(io.Discard, "", 0),
	}

	if cfg.LogFile != "" {
		f, err := cfg.OpenLog()
		if err != nil {
			return nil, fmt.Errorf("opening log: %w", err)
		}
		s.logFile = f
		s.logger = log.New(f, "smallsh: ", log.LstdFlags)
	}

	if s.reader, err = s.newReader(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Run reads and executes lines until exit or end of input.
func (s *Shell) Run() int {
	s.setupSignalHandling()
	defer s.stopSignalHandling()

	s.logger.Printf("started, pid %d", os.Getpid())
	for !s.quit {
		line, err := s.reader.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err != nil {
			if err != io.EOF {
				s.report(fmt.Errorf("reading input: %w", err))
			}
			s.exit()
			break
		}

		s.remember(line)

		if err := s.Execute(line); err != nil {
			s.report(err)
		}
	}
	return 0
}

// Execute runs one dispatch cycle for line. Finished background jobs are
// reported afterwards unless the line made the shell exit.
func (s *Shell) Execute(line string) error {
	err := s.dispatch(line)
	if !s.quit {
		s.reapCompleted()
	}
	return err
}

func (s *Shell) dispatch(line string) error {
	cmd, err := parser.Parse(line)
	if err != nil {
		return err
	}
	if cmd.Empty() || cmd.Comment() {
		return nil
	}

	if ok, err := s.executeBuiltin(cmd); ok {
		return err
	}
	return s.launch(cmd)
}

func (s *Shell) launch(cmd *parser.Command) error {
	background := cmd.Background && !s.mode.foregroundOnly()

	proc, err := s.launcher.Start(cmd, background)
	if err != nil {
		return err
	}

	if background {
		job := s.jobs.Add(proc.Process, cmd.String())
		s.logger.Printf("started background pid %d: %s", job.Pid, job.Command)
		fmt.Fprintf(s.stdio.Out, "background pid is %d\n", job.Pid)
		return nil
	}
	return s.waitForeground(proc, cmd)
}

func (s *Shell) waitForeground(proc *exec.Cmd, cmd *parser.Command) error {
	err := proc.Wait()
	if proc.ProcessState == nil {
		return fmt.Errorf("waiting for %s: %w", cmd.Program, err)
	}

	ws, ok := proc.ProcessState.Sys().(syscall.WaitStatus)
	if !ok {
		return fmt.Errorf("waiting for %s: unexpected status %v", cmd.Program, proc.ProcessState)
	}
	s.lastStatus = unix.WaitStatus(ws)
	s.logger.Printf("foreground pid %d: %s", proc.Process.Pid, describe(s.lastStatus))

	if s.lastStatus.Signaled() {
		fmt.Fprintf(s.stdio.Out, "terminated by signal %d\n", s.lastStatus.Signal())
	}
	return nil
}

// reapCompleted reports background jobs that finished since the last cycle.
func (s *Shell) reapCompleted() {
	for _, c := range s.jobs.Reap() {
		if c.Err != nil {
			s.logger.Printf("dropped background pid %d: %v", c.Job.Pid, c.Err)
			continue
		}
		s.logger.Printf("reaped background pid %d (%s): %s", c.Job.Pid, c.Job.Command, describe(c.Status))
		fmt.Fprintf(s.stdio.Out, "background pid %d is done: %s\n", c.Job.Pid, describe(c.Status))
	}
}

func (s *Shell) remember(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	if err := s.reader.SaveHistory(line); err != nil {
		s.logger.Printf("readline history: %v", err)
	}
	if err := s.history.Add(line); err != nil {
		s.logger.Printf("saving history: %v", err)
	}
}

func (s *Shell) report(err error) {
	errorColor.Fprintf(s.stdio.Err, "smallsh: %v\n", err)
}

// Close releases the line reader and the log file. Background jobs are left
// running.
func (s *Shell) Close() error {
	var err error
	if s.reader != nil {
		err = s.reader.Close()
	}
	if s.logFile != nil {
		if cerr := s.logFile.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
