// Package tracee implements the traced-process handle: a state machine
// over one ptrace'd OS process with attach, launch, resume, wait, register
// access and guaranteed teardown.
package tracee

import (
	"io"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/pbreak/pbreak/pkg/logflags"
)

// Status is the tracer's view of the traced process.
type Status int

const (
	// Stopped means the process is in a trace stop; registers may be
	// inspected or modified and execution may be resumed.
	Stopped Status = iota
	// Running means execution was resumed and no state change has been
	// observed yet.
	Running
	// Exited means the process exited normally. The handle is inert.
	Exited
	// Terminated means the process was killed by a signal. The handle is
	// inert.
	Terminated
)

func (s Status) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Exited:
		return "exited"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// Tracee represents all of the information the tracer is holding onto
// regarding the process being traced.
type Tracee struct {
	pid    int // 0 until an attach or launch succeeds
	status Status

	// childProcess is true if the process was launched, not attached to.
	childProcess bool
	detached     bool

	ptraceChan     chan func()
	ptraceDoneChan chan struct{}

	stdout io.Writer
	log    *logrus.Entry
}

// newTracee returns an initialized Tracee. Before returning it launches
// the goroutine that serializes ptrace(2) requests; see handlePtraceFuncs.
func newTracee(pid int) *Tracee {
	t := &Tracee{
		pid:            pid,
		status:         Stopped,
		ptraceChan:     make(chan func()),
		ptraceDoneChan: make(chan struct{}),
		stdout:         os.Stdout,
		log:            logflags.TraceeLogger(),
	}
	go t.handlePtraceFuncs()
	return t
}

func (t *Tracee) handlePtraceFuncs() {
	// We must ensure here that we are running on the same thread during
	// the execution of ptrace(2) requests: the kernel expects all requests
	// after PTRACE_ATTACH to come from the single tracing thread.
	runtime.LockOSThread()

	for fn := range t.ptraceChan {
		fn()
		t.ptraceDoneChan <- struct{}{}
	}
}

func (t *Tracee) execPtraceFunc(fn func()) {
	t.ptraceChan <- fn
	<-t.ptraceDoneChan
}

// Pid returns the identifier of the traced process.
func (t *Tracee) Pid() int {
	return t.pid
}

// Status returns the tracer's current view of the traced process.
func (t *Tracee) Status() Status {
	return t.status
}

// SetOutput redirects the state-change messages emitted by WaitOnSignal.
func (t *Tracee) SetOutput(w io.Writer) {
	t.stdout = w
}
