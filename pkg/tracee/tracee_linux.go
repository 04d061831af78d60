package tracee

import (
	"fmt"
	"os"
	"os/exec"

	sys "golang.org/x/sys/unix"

	"github.com/pbreak/pbreak/pkg/ipc"
)

// Attach constructs a Tracee by attaching to an existing process. A
// successful attach request asynchronously stops the target, so Attach
// waits for that stop before returning; the returned handle always has
// status Stopped.
func Attach(pid int) (*Tracee, error) {
	t := newTracee(pid)

	var err error
	t.execPtraceFunc(func() { err = sys.PtraceAttach(pid) })
	if err != nil {
		t.closeFuncs()
		return nil, &AttachError{Pid: pid, Err: err}
	}
	t.log.Debugf("attached to pid %d", pid)

	if err := t.WaitOnSignal(); err != nil {
		t.Detach()
		return nil, err
	}
	return t, nil
}

// Launch constructs a Tracee by starting program under trace control.
//
// Go cannot run code between fork and exec, so the child side of the
// handshake runs in a re-executed copy of the tracer binary (see
// ExecChild): the helper asks to be traced, then replaces itself with the
// target program, reporting any failure through the pipe it inherited.
// The parent reads the pipe first; a non-empty result is the child's
// failure message and the child is reaped before the error is returned.
// An empty result means the target exec'd, and the parent then waits for
// the trap delivered at the exec boundary.
func Launch(program string, args []string) (*Tracee, error) {
	pipe, err := ipc.NewPipe()
	if err != nil {
		return nil, err
	}
	defer pipe.Close()

	cmd := exec.Command("/proc/self/exe", append([]string{ChildMarker, program}, args...)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{pipe.Sender()}
	// An async preemption signal delivered to the helper between
	// PTRACE_TRACEME and the exec would stop it while nobody is waiting
	// on it yet; the helper runs too briefly to need preemption anyway.
	cmd.Env = append(os.Environ(), "GODEBUG=asyncpreemptoff=1")
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("could not fork: %v", err)
	}
	pipe.CloseSender()

	msg, err := pipe.Receive()
	if err != nil {
		sys.Kill(cmd.Process.Pid, sys.SIGKILL)
		cmd.Wait()
		return nil, err
	}
	if msg != "" {
		// Reap the failed child before reporting so no zombie is left
		// behind.
		cmd.Wait()
		return nil, &SpawnError{Message: msg}
	}

	t := newTracee(cmd.Process.Pid)
	t.childProcess = true
	t.log.Debugf("launched %q as pid %d", program, t.pid)

	if err := t.WaitOnSignal(); err != nil {
		t.closeFuncs()
		sys.Kill(t.pid, sys.SIGKILL)
		cmd.Wait()
		return nil, err
	}
	if t.status != Stopped {
		t.closeFuncs()
		return nil, &SpawnError{Message: fmt.Sprintf("process %d ended before its first trap", t.pid)}
	}
	return t, nil
}

// Resume issues a continue-execution request. It does not block for the
// next state change; that is WaitOnSignal's job, so callers choose when to
// suspend.
func (t *Tracee) Resume() error {
	if t.status != Stopped {
		return &StateError{Op: "resume", Pid: t.pid, Status: t.status}
	}
	var err error
	t.execPtraceFunc(func() { err = sys.PtraceCont(t.pid, 0) })
	if err != nil {
		return fmt.Errorf("could not continue pid %d: %v", t.pid, err)
	}
	t.status = Running
	t.log.Debugf("resumed pid %d", t.pid)
	return nil
}

// WaitOnSignal blocks until the kernel reports a status change on the
// traced process, updates the handle's status accordingly and prints a
// description of the change. It is the only operation that may move the
// handle out of Stopped/Running.
func (t *Tracee) WaitOnSignal() error {
	if t.status == Exited || t.status == Terminated {
		return &StateError{Op: "wait", Pid: t.pid, Status: t.status}
	}

	var ws sys.WaitStatus
	if _, err := sys.Wait4(t.pid, &ws, 0, nil); err != nil {
		return fmt.Errorf("could not wait on pid %d: %v", t.pid, err)
	}

	switch {
	case ws.Stopped():
		t.status = Stopped
		sig := ws.StopSignal()
		fmt.Fprintf(t.stdout, "Process (%d) stopped with signal [%d: %s]\n", t.pid, int(sig), sys.SignalName(sig))
	case ws.Exited():
		t.status = Exited
		fmt.Fprintf(t.stdout, "Process (%d) exited with code [%d]\n", t.pid, ws.ExitStatus())
	case ws.Signaled():
		t.status = Terminated
		sig := ws.Signal()
		fmt.Fprintf(t.stdout, "Process (%d) terminated with signal [%d: %s]\n", t.pid, int(sig), sys.SignalName(sig))
	default:
		return fmt.Errorf("unexpected wait status %#x for pid %d", uint32(ws), t.pid)
	}
	t.log.Debugf("pid %d is now %s", t.pid, t.status)
	return nil
}

// Detach tears the handle down: a running tracee is stopped first so the
// detach does not race its next state change, then the process is
// detached from, killed and reaped. Detach is a no-op on a handle that
// never attached and on repeat calls, and runs on every exit path of a
// session so no process is left attached-and-orphaned and no zombie
// remains.
func (t *Tracee) Detach() error {
	if t == nil || t.pid == 0 || t.detached {
		return nil
	}
	defer t.closeFuncs()

	if t.status == Exited || t.status == Terminated {
		// Already reaped by WaitOnSignal; nothing is attached anymore.
		return nil
	}

	if t.status == Running {
		if err := sys.Kill(t.pid, sys.SIGSTOP); err != nil {
			return fmt.Errorf("could not stop pid %d: %v", t.pid, err)
		}
		if err := t.WaitOnSignal(); err != nil {
			return err
		}
	}

	var err error
	t.execPtraceFunc(func() { err = sys.PtraceDetach(t.pid) })
	if err != nil {
		t.log.Debugf("detach from pid %d failed: %v", t.pid, err)
	}

	// The process may still be stopped by the SIGSTOP above; continue it
	// so the kill can be delivered, then reap it. ESRCH and ECHILD here
	// mean the process is already gone, which is the state we want.
	sys.Kill(t.pid, sys.SIGCONT)
	sys.Kill(t.pid, sys.SIGKILL)
	var ws sys.WaitStatus
	sys.Wait4(t.pid, &ws, 0, nil)
	t.status = Terminated
	t.log.Debugf("detached from pid %d", t.pid)
	return nil
}

func (t *Tracee) closeFuncs() {
	if !t.detached {
		t.detached = true
		close(t.ptraceChan)
	}
}
