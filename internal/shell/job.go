package shell

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// Job is a background process the shell has not reaped yet.
type Job struct {
	Pid     int
	Command string

	process *os.Process
}

func (j *Job) release() {
	if j.process != nil {
		_ = j.process.Release()
	}
}

// Completion is the outcome of a reaped job. Err is set when the job could
// not be waited for at all, Status is meaningless in that case.
type Completion struct {
	Job    *Job
	Status unix.WaitStatus
	Err    error
}

type (
	waitFunc func(pid int, status *unix.WaitStatus, options int, rusage *unix.Rusage) (int, error)
	killFunc func(pid int, sig syscall.Signal) error
)

// JobTable tracks background jobs in the order they were started. It is
// owned by the goroutine running the dispatch loop.
type JobTable struct {
	jobs []*Job
	wait waitFunc
	kill killFunc
}

func NewJobTable() *JobTable {
	return &JobTable{
		wait: unix.Wait4,
		kill: unix.Kill,
	}
}

// Add starts tracking a spawned process.
func (t *JobTable) Add(p *os.Process, command string) *Job {
	job := &Job{
		Pid:     p.Pid,
		Command: command,
		process: p,
	}
	t.add(job)
	return job
}

func (t *JobTable) add(job *Job) {
	t.jobs = append(t.jobs, job)
}

// Reap checks every job without blocking and removes the ones that have
// terminated. The survivors keep their relative order.
func (t *JobTable) Reap() []Completion {
	var done []Completion
	kept := t.jobs[:0]
	for _, job := range t.jobs {
		status, exited, err := t.poll(job.Pid)
		if err == nil && !exited {
			kept = append(kept, job)
			continue
		}
		job.release()
		done = append(done, Completion{Job: job, Status: status, Err: err})
	}
	for i := len(kept); i < len(t.jobs); i++ {
		t.jobs[i] = nil
	}
	t.jobs = kept
	return done
}

func (t *JobTable) poll(pid int) (unix.WaitStatus, bool, error) {
	var status unix.WaitStatus
	for {
		wpid, err := t.wait(pid, &status, unix.WNOHANG, nil)
		switch {
		case err == unix.EINTR:
			continue
		case err != nil:
			return 0, false, err
		default:
			return status, wpid == pid, nil
		}
	}
}

// Signal sends sig once to every tracked job and returns the pids it tried.
// Delivery errors are ignored.
func (t *JobTable) Signal(sig syscall.Signal) []int {
	pids := make([]int, 0, len(t.jobs))
	for _, job := range t.jobs {
		_ = t.kill(job.Pid, sig)
		pids = append(pids, job.Pid)
	}
	return pids
}

// Pids lists the tracked process ids in start order.
func (t *JobTable) Pids() []int {
	pids := make([]int, 0, len(t.jobs))
	for _, job := range t.jobs {
		pids = append(pids, job.Pid)
	}
	return pids
}

func (t *JobTable) Len() int {
	return len(t.jobs)
}
