package shell

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

type mode int32

const (
	modeNormal mode = iota
	// modeForegroundOnly runs every command in the foreground, '&' is ignored.
	modeForegroundOnly
)

var modeNotices = map[mode][]byte{
	modeForegroundOnly: []byte("Entering foreground-only mode (& is now ignored)\n"),
	modeNormal:         []byte("Exiting foreground-only mode (& is no longer ignored)\n"),
}

func (m mode) String() string {
	if m == modeForegroundOnly {
		return "foreground-only"
	}
	return "normal"
}

// modeSwitch is the only shell state written outside the dispatch loop.
type modeSwitch struct {
	state atomic.Int32
}

func (m *modeSwitch) current() mode {
	return mode(m.state.Load())
}

func (m *modeSwitch) foregroundOnly() bool {
	return m.current() == modeForegroundOnly
}

// toggle flips the mode and returns the new one.
func (m *modeSwitch) toggle() mode {
	for {
		old := m.state.Load()
		next := modeForegroundOnly
		if mode(old) == modeForegroundOnly {
			next = modeNormal
		}
		if m.state.CompareAndSwap(old, int32(next)) {
			return next
		}
	}
}

func (s *Shell) setupSignalHandling() {
	s.signalChan = make(chan os.Signal, 4)
	signal.Notify(s.signalChan, syscall.SIGINT, syscall.SIGTSTP)
	go s.handleSignals(s.signalChan)
}

func (s *Shell) stopSignalHandling() {
	signal.Stop(s.signalChan)
	close(s.signalChan)
}

func (s *Shell) handleSignals(signals <-chan os.Signal) {
	for sig := range signals {
		s.handleSignal(sig)
	}
}

func (s *Shell) handleSignal(sig os.Signal) {
	switch sig {
	case syscall.SIGTSTP:
		s.toggleMode()
	case syscall.SIGINT:
		// Swallowed so only the foreground child dies.
	}
}

func (s *Shell) toggleMode() {
	next := s.mode.toggle()
	_, _ = s.stdio.Out.Write(modeNotices[next])
	s.logger.Printf("switched to %s mode", next)
}
