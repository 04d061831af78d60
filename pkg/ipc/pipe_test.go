package ipc

import (
	"strings"
	"testing"
)

func TestPipeSendReceive(t *testing.T) {
	p, err := NewPipe()
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	const msg = "message"
	if err := p.Send(msg); err != nil {
		t.Fatal(err)
	}
	got, err := p.Receive()
	if err != nil {
		t.Fatal(err)
	}
	if got != msg {
		t.Errorf("Receive() = %q, want %q", got, msg)
	}
}

func TestPipeReceiveEmptyOnClosedSender(t *testing.T) {
	p, err := NewPipe()
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if err := p.CloseSender(); err != nil {
		t.Fatal(err)
	}
	got, err := p.Receive()
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("Receive() = %q, want empty result after sender closed without data", got)
	}
}

func TestPipeReceiveIsBounded(t *testing.T) {
	p, err := NewPipe()
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if err := p.Send(strings.Repeat("x", 4*receiveLimit)); err != nil {
		t.Fatal(err)
	}
	got, err := p.Receive()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != receiveLimit {
		t.Errorf("len(Receive()) = %d, want %d", len(got), receiveLimit)
	}
}

func TestPipeCloseIsIdempotent(t *testing.T) {
	p, err := NewPipe()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := p.CloseReceiver(); err != nil {
			t.Errorf("CloseReceiver call %d: %v", i+1, err)
		}
		if err := p.CloseSender(); err != nil {
			t.Errorf("CloseSender call %d: %v", i+1, err)
		}
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close after explicit closes: %v", err)
	}
}
