package logflags

import "testing"

func TestSetupRejectsOutputWithoutLog(t *testing.T) {
	if err := Setup(false, "tracee"); err == nil {
		t.Error("expected an error when --log-output is given without --log")
	}
}

func TestSetupEnablesComponents(t *testing.T) {
	defer func() {
		tracee = false
		terminal = false
	}()
	if err := Setup(true, "tracee,terminal"); err != nil {
		t.Fatal(err)
	}
	if !Tracee() {
		t.Error("tracee logging not enabled")
	}
	if !Terminal() {
		t.Error("terminal logging not enabled")
	}
}

func TestSetupDefaultsToTracee(t *testing.T) {
	defer func() {
		tracee = false
		terminal = false
	}()
	if err := Setup(true, ""); err != nil {
		t.Fatal(err)
	}
	if !Tracee() {
		t.Error("tracee logging should be the default component")
	}
	if Terminal() {
		t.Error("terminal logging should not be enabled by default")
	}
}
