package shell

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// describe renders a wait status the way status and job reports print it.
func describe(ws unix.WaitStatus) string {
	if ws.Signaled() {
		return fmt.Sprintf("terminated by signal %d", ws.Signal())
	}
	return fmt.Sprintf("exit value %d", ws.ExitStatus())
}
