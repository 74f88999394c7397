package spawn

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const createMode = 0644

// RedirectError is returned when a redirection target can't be opened.
type RedirectError struct {
	Op   string // "input" or "output"
	Path string
	Err  error
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("cannot open %s for %s: %v", e.Path, e.Op, e.Err)
}

func (e *RedirectError) Unwrap() error {
	return e.Err
}

// Redirect rebinds standard input to in and standard output to out. Empty
// paths leave the descriptor alone. It changes the descriptors of the calling
// process and must only run in a child helper.
func Redirect(in, out string) error {
	if in != "" {
		if err := bind(in, unix.O_RDONLY, 0, unix.Stdin); err != nil {
			return &RedirectError{Op: "input", Path: in, Err: err}
		}
	}
	if out != "" {
		if err := bind(out, unix.O_WRONLY|unix.O_CREAT|unix.O_TRUNC, createMode, unix.Stdout); err != nil {
			return &RedirectError{Op: "output", Path: out, Err: err}
		}
	}
	return nil
}

func bind(path string, flags int, mode uint32, target int) error {
	fd, err := unix.Open(path, flags|unix.O_CLOEXEC, mode)
	if err != nil {
		return err
	}
	if fd == target {
		// Landed on the target already; it must survive exec.
		_, err := unix.FcntlInt(uintptr(fd), unix.F_SETFD, 0)
		return err
	}
	defer unix.Close(fd)

	return unix.Dup2(fd, target)
}
