package tracee

import (
	"syscall"
	"unsafe"

	sys "golang.org/x/sys/unix"
)

// GPRegisters is a full general purpose register snapshot, mirroring the
// kernel's user_regs_struct.
type GPRegisters sys.PtraceRegs

// FPRegisters is a full floating point register snapshot, mirroring the
// kernel's user_fpregs_struct (the FXSAVE area).
type FPRegisters struct {
	Cwd      uint16
	Swd      uint16
	Ftw      uint16
	Fop      uint16
	Rip      uint64
	Rdp      uint64
	Mxcsr    uint32
	MxcrMask uint32
	StSpace  [32]uint32
	XmmSpace [64]uint32
	Padding  [24]uint32
}

// ReadGPRegisters fetches the tracee's general purpose register snapshot.
// The tracee must be stopped.
func (t *Tracee) ReadGPRegisters() (*GPRegisters, error) {
	if t.status != Stopped {
		return nil, &StateError{Op: "read registers", Pid: t.pid, Status: t.status}
	}
	var (
		regs GPRegisters
		err  error
	)
	t.execPtraceFunc(func() { err = sys.PtraceGetRegs(t.pid, (*sys.PtraceRegs)(&regs)) })
	if err != nil {
		return nil, &RegisterAccessError{Op: "read general purpose registers", Err: err}
	}
	return &regs, nil
}

// WriteGPRegisters replaces the tracee's general purpose register
// snapshot. There is no partial update; the whole snapshot is exchanged.
func (t *Tracee) WriteGPRegisters(regs *GPRegisters) error {
	if t.status != Stopped {
		return &StateError{Op: "write registers", Pid: t.pid, Status: t.status}
	}
	var err error
	t.execPtraceFunc(func() { err = sys.PtraceSetRegs(t.pid, (*sys.PtraceRegs)(regs)) })
	if err != nil {
		return &RegisterAccessError{Op: "write general purpose registers", Err: err}
	}
	return nil
}

// ReadFPRegisters fetches the tracee's floating point register snapshot.
// The tracee must be stopped.
func (t *Tracee) ReadFPRegisters() (*FPRegisters, error) {
	if t.status != Stopped {
		return nil, &StateError{Op: "read registers", Pid: t.pid, Status: t.status}
	}
	var (
		regs FPRegisters
		err  error
	)
	t.execPtraceFunc(func() {
		_, _, errno := syscall.Syscall6(syscall.SYS_PTRACE, sys.PTRACE_GETFPREGS, uintptr(t.pid), 0, uintptr(unsafe.Pointer(&regs)), 0, 0)
		if errno != 0 {
			err = errno
		}
	})
	if err != nil {
		return nil, &RegisterAccessError{Op: "read floating point registers", Err: err}
	}
	return &regs, nil
}

// WriteFPRegisters replaces the tracee's floating point register snapshot.
func (t *Tracee) WriteFPRegisters(regs *FPRegisters) error {
	if t.status != Stopped {
		return &StateError{Op: "write registers", Pid: t.pid, Status: t.status}
	}
	var err error
	t.execPtraceFunc(func() {
		_, _, errno := syscall.Syscall6(syscall.SYS_PTRACE, sys.PTRACE_SETFPREGS, uintptr(t.pid), 0, uintptr(unsafe.Pointer(regs)), 0, 0)
		if errno != 0 {
			err = errno
		}
	})
	if err != nil {
		return &RegisterAccessError{Op: "write floating point registers", Err: err}
	}
	return nil
}
