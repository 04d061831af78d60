// Package ipc implements the one-shot error-report channel used during
// process launch. The channel lets the trace-child helper report setup
// failures to its parent before the parent commits to treating the child
// as traced.
package ipc

import (
	"fmt"
	"io"
	"os"

	sys "golang.org/x/sys/unix"
)

// receiveLimit bounds a single Receive call. Failure reports are short,
// single line messages.
const receiveLimit = 128

// Pipe is a unidirectional byte channel with independently closable
// endpoints. Both endpoints are marked close-on-exec, so a successful exec
// in the holding process closes the write end without any explicit signal;
// the reader observing end-of-file with no data is what "no failure" looks
// like.
type Pipe struct {
	reader *os.File
	writer *os.File
}

// NewPipe opens the channel. Failure here means the environment cannot
// support a launch at all.
func NewPipe() (*Pipe, error) {
	var fds [2]int
	if err := sys.Pipe2(fds[:], sys.O_CLOEXEC); err != nil {
		return nil, fmt.Errorf("could not open pipe: %v", err)
	}
	return &Pipe{
		reader: os.NewFile(uintptr(fds[0]), "pipe|read"),
		writer: os.NewFile(uintptr(fds[1]), "pipe|write"),
	}, nil
}

// SenderFromFile wraps a descriptor inherited from another process as the
// write endpoint of the channel that process created.
func SenderFromFile(f *os.File) *Pipe {
	return &Pipe{writer: f}
}

// Sender returns the write endpoint so it can be handed to a spawned
// process as an inherited descriptor.
func (p *Pipe) Sender() *os.File {
	return p.writer
}

// Send writes a message into the channel. It is used at most once, by the
// child, and only on a failure path.
func (p *Pipe) Send(msg string) error {
	if _, err := p.writer.WriteString(msg); err != nil {
		return fmt.Errorf("could not write to pipe: %v", err)
	}
	return nil
}

// Receive performs a blocking read of up to 128 bytes and returns the
// decoded text. The result is empty exactly when the write end closed
// without any data being sent.
func (p *Pipe) Receive() (string, error) {
	buf := make([]byte, receiveLimit)
	n, err := p.reader.Read(buf)
	if err == io.EOF {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("could not read from pipe: %v", err)
	}
	return string(buf[:n]), nil
}

// CloseReceiver closes the read endpoint. Calling it again is a no-op.
func (p *Pipe) CloseReceiver() error {
	if p.reader == nil {
		return nil
	}
	err := p.reader.Close()
	p.reader = nil
	return err
}

// CloseSender closes the write endpoint. Calling it again is a no-op.
func (p *Pipe) CloseSender() error {
	if p.writer == nil {
		return nil
	}
	err := p.writer.Close()
	p.writer = nil
	return err
}

// Close releases both endpoints. It is safe to defer unconditionally; the
// endpoints that were already closed are skipped.
func (p *Pipe) Close() error {
	errRecv := p.CloseReceiver()
	errSend := p.CloseSender()
	if errRecv != nil {
		return errRecv
	}
	return errSend
}
