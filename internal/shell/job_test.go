package shell

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

type fakeWaiter struct {
	exited map[int]unix.WaitStatus
	errs   map[int][]error
	calls  []int
}

func (f *fakeWaiter) wait(pid int, status *unix.WaitStatus, options int, _ *unix.Rusage) (int, error) {
	f.calls = append(f.calls, pid)
	if options&unix.WNOHANG == 0 {
		panic("blocking wait")
	}
	if errs := f.errs[pid]; len(errs) > 0 {
		f.errs[pid] = errs[1:]
		return -1, errs[0]
	}
	if ws, ok := f.exited[pid]; ok {
		*status = ws
		return pid, nil
	}
	return 0, nil
}

func newFakeTable(w *fakeWaiter, pids ...int) *JobTable {
	table := NewJobTable()
	table.wait = w.wait
	for _, pid := range pids {
		table.add(&Job{Pid: pid, Command: "sleep 5 &"})
	}
	return table
}

func exitStatus(code int) unix.WaitStatus { return unix.WaitStatus(code << 8) }

func signalStatus(sig syscall.Signal) unix.WaitStatus { return unix.WaitStatus(sig) }

func TestJobTableReapKeepsOrder(t *testing.T) {
	w := &fakeWaiter{exited: map[int]unix.WaitStatus{
		11: exitStatus(0),
		13: signalStatus(syscall.SIGKILL),
	}}
	table := newFakeTable(w, 10, 11, 12, 13)

	done := table.Reap()
	require.Len(t, done, 2)
	assert.Equal(t, 11, done[0].Job.Pid)
	assert.Equal(t, "exit value 0", describe(done[0].Status))
	assert.Equal(t, 13, done[1].Job.Pid)
	assert.Equal(t, "terminated by signal 9", describe(done[1].Status))
	assert.Equal(t, []int{10, 12}, table.Pids())

	w.calls = nil
	assert.Empty(t, table.Reap())
	assert.Equal(t, []int{10, 12}, w.calls)
	assert.Equal(t, 2, table.Len())
}

func TestJobTableReapDropsLostJobs(t *testing.T) {
	w := &fakeWaiter{errs: map[int][]error{20: {unix.ECHILD}}}
	table := newFakeTable(w, 20, 21)

	done := table.Reap()
	require.Len(t, done, 1)
	assert.Equal(t, 20, done[0].Job.Pid)
	assert.ErrorIs(t, done[0].Err, unix.ECHILD)
	assert.Equal(t, []int{21}, table.Pids())
}

func TestJobTableReapRetriesInterruptedWait(t *testing.T) {
	w := &fakeWaiter{
		errs:   map[int][]error{30: {unix.EINTR, unix.EINTR}},
		exited: map[int]unix.WaitStatus{30: exitStatus(2)},
	}
	table := newFakeTable(w, 30)

	done := table.Reap()
	require.Len(t, done, 1)
	assert.NoError(t, done[0].Err)
	assert.Equal(t, "exit value 2", describe(done[0].Status))
	assert.Equal(t, []int{30, 30, 30}, w.calls)
}

func TestJobTableSignal(t *testing.T) {
	table := newFakeTable(&fakeWaiter{}, 1, 2, 3)

	sent := map[int][]syscall.Signal{}
	table.kill = func(pid int, sig syscall.Signal) error {
		sent[pid] = append(sent[pid], sig)
		if pid == 2 {
			return unix.ESRCH
		}
		return nil
	}

	assert.Equal(t, []int{1, 2, 3}, table.Signal(syscall.SIGTERM))
	assert.Equal(t, map[int][]syscall.Signal{
		1: {syscall.SIGTERM},
		2: {syscall.SIGTERM},
		3: {syscall.SIGTERM},
	}, sent)
	assert.Equal(t, 3, table.Len())
}

func TestJobTableEmpty(t *testing.T) {
	table := newFakeTable(&fakeWaiter{})

	assert.Empty(t, table.Reap())
	assert.Empty(t, table.Signal(syscall.SIGTERM))
	assert.Empty(t, table.Pids())
	assert.Zero(t, table.Len())
}

func TestDescribe(t *testing.T) {
	cases := map[string]struct {
		status unix.WaitStatus
		want   string
	}{
		"success":  {status: exitStatus(0), want: "exit value 0"},
		"failure":  {status: exitStatus(1), want: "exit value 1"},
		"sigterm":  {status: signalStatus(syscall.SIGTERM), want: "terminated by signal 15"},
		"sigint":   {status: signalStatus(syscall.SIGINT), want: "terminated by signal 2"},
		"no-cycle": {want: "exit value 0"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.want, describe(tc.status))
		})
	}
}
