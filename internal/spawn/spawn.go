// Package spawn implements the child side of launching a command.
//
// Go cannot run code between fork and exec, so the shell re-executes its own
// binary with EnvMarker set. That process runs Main, which prepares signal
// dispositions and redirections for the command and then replaces itself
// with the target program. Main only returns if something went wrong; the
// caller must exit with the returned status.
package spawn

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pborman/getopt/v2"
	"golang.org/x/sys/unix"
)

// EnvMarker is set in the environment of a re-executed shell binary to make
// it act as a child helper.
const EnvMarker = "SMALLSH_SPAWN"

// ExitFailure is the status of a child that could not run its program.
const ExitFailure = 1

// Requested reports whether this process was started as a child helper.
func Requested() bool {
	return os.Getenv(EnvMarker) == "1"
}

// Request describes the program a child helper should become.
type Request struct {
	// Argv is the program name followed by its arguments.
	Argv       []string
	InputPath  string
	OutputPath string
	Background bool
}

// Args encodes the request as helper command line arguments, not including
// the helper's own name.
func (r *Request) Args() []string {
	var args []string
	if r.Background {
		args = append(args, "--background")
	}
	if r.InputPath != "" {
		args = append(args, "--input="+r.InputPath)
	}
	if r.OutputPath != "" {
		args = append(args, "--output="+r.OutputPath)
	}
	args = append(args, "--")
	return append(args, r.Argv...)
}

// Command builds the helper process for req. self is the path of the shell
// binary.
func Command(self string, req *Request) *exec.Cmd {
	cmd := exec.Command(self, req.Args()...)
	cmd.Env = append(os.Environ(), EnvMarker+"=1")
	return cmd
}

// Decode parses a helper command line. args[0] is the helper's own name.
func Decode(args []string) (*Request, error) {
	set := getopt.New()
	input := set.StringLong("input", 'i', "", "redirect standard input from FILE", "FILE")
	output := set.StringLong("output", 'o', "", "redirect standard output to FILE", "FILE")
	background := set.BoolLong("background", 'b', "run as a background job")

	if err := set.Getopt(args, nil); err != nil {
		return nil, err
	}

	argv := set.Args()
	if len(argv) == 0 {
		return nil, errors.New("missing program")
	}

	return &Request{
		Argv:       argv,
		InputPath:  *input,
		OutputPath: *output,
		Background: *background,
	}, nil
}

// Main runs the child helper with the given command line.
func Main(args []string) int {
	// Signal dispositions are set before anything else. Runtime init still
	// leaves a short window in which SIGINT kills a background helper.
	signal.Ignore(syscall.SIGTSTP)
	if wantsBackground(args) {
		signal.Ignore(syscall.SIGINT)
	}

	req, err := Decode(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "smallsh: spawn: %v\n", err)
		return ExitFailure
	}
	return Exec(req, os.Stderr)
}

// Exec sets up the current process for req and executes the program. It
// returns only on failure, after reporting the problem to errOut.
func Exec(req *Request, errOut io.Writer) int {
	// Job control is not supported: a stopped child could never be resumed.
	signal.Ignore(syscall.SIGTSTP)
	if req.Background {
		signal.Ignore(syscall.SIGINT)
	}

	if err := Redirect(req.InputPath, req.OutputPath); err != nil {
		fmt.Fprintf(errOut, "smallsh: %v\n", err)
		return ExitFailure
	}

	path, err := exec.LookPath(req.Argv[0])
	if err != nil {
		fmt.Fprintf(errOut, "smallsh: %s: %v\n", req.Argv[0], unwrapExecError(err))
		return ExitFailure
	}

	err = unix.Exec(path, req.Argv, environ())
	fmt.Fprintf(errOut, "smallsh: %s: %v\n", req.Argv[0], err)
	return ExitFailure
}

// wantsBackground scans the helper options for the background flag without
// a full decode.
func wantsBackground(args []string) bool {
	if len(args) < 2 {
		return false
	}
	for _, arg := range args[1:] {
		switch arg {
		case "--":
			return false
		case "--background", "-b":
			return true
		}
	}
	return false
}

func environ() []string {
	var env []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, EnvMarker+"=") {
			continue
		}
		env = append(env, kv)
	}
	return env
}

func unwrapExecError(err error) error {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return execErr.Err
	}
	return err
}
