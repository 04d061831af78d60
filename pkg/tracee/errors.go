package tracee

import "fmt"

// AttachError means a trace-attach request on an existing pid failed,
// either because the pid does not exist or because the caller does not
// have permission to trace it.
type AttachError struct {
	Pid int
	Err error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("could not attach to pid %d: %v", e.Pid, e.Err)
}

func (e *AttachError) Unwrap() error { return e.Err }

// SpawnError means the launched child reported a setup or exec failure
// over the error-report channel. Message is the child's report, verbatim.
// The child has already been reaped by the time this error is returned.
type SpawnError struct {
	Message string
}

func (e *SpawnError) Error() string {
	return "could not launch process: " + e.Message
}

// RegisterAccessError means the kernel rejected a register snapshot
// transfer.
type RegisterAccessError struct {
	Op  string
	Err error
}

func (e *RegisterAccessError) Error() string {
	return fmt.Sprintf("could not %s: %v", e.Op, e.Err)
}

func (e *RegisterAccessError) Unwrap() error { return e.Err }

// StateError means an operation was issued against a tracee in an
// incompatible state, for example resuming a process that has already
// exited or reading the registers of a running one.
type StateError struct {
	Op     string
	Pid    int
	Status Status
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s: process (%d) is %s", e.Op, e.Pid, e.Status)
}
