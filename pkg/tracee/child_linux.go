package tracee

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"syscall"

	sys "golang.org/x/sys/unix"

	"github.com/pbreak/pbreak/pkg/ipc"
)

// ChildMarker is the hidden first argument that diverts a pbreak binary
// into the trace-child helper before any command line handling runs.
const ChildMarker = "--trace-child"

// reportFd is where Launch places the write end of the error-report
// channel in the helper (the first ExtraFiles slot).
const reportFd = 3

// ExecChild is the child half of Launch. It runs in a re-executed copy of
// the tracer binary: it asks to become traced by its parent and then
// replaces its image with the target program. Setup failures are written
// into the inherited error-report endpoint before exiting nonzero. It
// never returns.
func ExecChild(program string, args []string) {
	// PTRACE_TRACEME applies to the calling thread and the exec must
	// happen on that same thread.
	runtime.LockOSThread()

	report := ipc.SenderFromFile(os.NewFile(reportFd, "pipe|write"))

	// The descriptor lost its close-on-exec mark when it was duplicated
	// into this process; restore it so a successful exec closes the
	// channel and the parent reads "no failure".
	if _, err := sys.FcntlInt(reportFd, sys.F_SETFD, sys.FD_CLOEXEC); err != nil {
		childFail(report, fmt.Sprintf("could not mark report pipe close-on-exec: %v", err))
	}

	if _, _, errno := syscall.Syscall6(syscall.SYS_PTRACE, sys.PTRACE_TRACEME, 0, 0, 0, 0, 0); errno != 0 {
		childFail(report, fmt.Sprintf("could not trace newly forked process: %v", errno))
	}

	path, err := exec.LookPath(program)
	if err != nil {
		childFail(report, fmt.Sprintf("could not find executable %q: %v", program, err))
	}

	if err := sys.Exec(path, append([]string{program}, args...), os.Environ()); err != nil {
		childFail(report, fmt.Sprintf("could not exec %q: %v", path, err))
	}
}

func childFail(report *ipc.Pipe, msg string) {
	report.Send(msg)
	report.CloseSender()
	os.Exit(127)
}
