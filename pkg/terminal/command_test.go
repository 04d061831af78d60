package terminal

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/pbreak/pbreak/pkg/logflags"
	"github.com/pbreak/pbreak/pkg/tracee"
)

func TestMain(m *testing.M) {
	// See the note in pkg/tracee's tests: launching re-executes the test
	// binary as the trace-child helper.
	if len(os.Args) >= 3 && os.Args[1] == tracee.ChildMarker {
		tracee.ExecChild(os.Args[2], os.Args[3:])
	}
	logflags.Setup(false, "")
	os.Exit(m.Run())
}

func testTerm(tr *tracee.Tracee, input string) (*Term, *bytes.Buffer) {
	out := new(bytes.Buffer)
	term := New(tr, nil)
	term.interactive = false
	term.stdin = strings.NewReader(input)
	term.stdout = out
	if tr != nil {
		tr.SetOutput(out)
	}
	return term, out
}

func TestUnexpectedCommand(t *testing.T) {
	term, out := testTerm(nil, "")
	if err := term.cmds.Call("frob", term); err != nil {
		t.Fatal(err)
	}
	if want := `unexpected command: "frob"`; !strings.Contains(out.String(), want) {
		t.Errorf("output %q does not contain %q", out.String(), want)
	}
}

func TestCommandMatchIsCaseSensitive(t *testing.T) {
	term, out := testTerm(nil, "")
	if err := term.cmds.Call("Continue", term); err != nil {
		t.Fatal(err)
	}
	if want := `unexpected command: "Continue"`; !strings.Contains(out.String(), want) {
		t.Errorf("output %q does not contain %q", out.String(), want)
	}
}

func TestCommandsMergeAliases(t *testing.T) {
	cmds := TraceCommands()
	cmds.Merge(map[string][]string{"continue": {"c"}})
	found := false
	for _, cmd := range cmds.cmds {
		if cmd.match("c") {
			found = true
		}
	}
	if !found {
		t.Error("alias defined in the config was not merged")
	}
}

func TestRunSession(t *testing.T) {
	tr, err := tracee.Launch("true", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Detach()

	term, out := testTerm(tr, "continue\n")
	status, err := term.Run()
	if err != nil {
		t.Fatal(err)
	}
	if status != 0 {
		t.Errorf("exit status = %d, want 0", status)
	}
	if want := "exited with code [0]"; !strings.Contains(out.String(), want) {
		t.Errorf("output %q does not contain %q", out.String(), want)
	}
	if !strings.Contains(out.String(), "pbreak> ") {
		t.Errorf("output %q does not contain the prompt", out.String())
	}
}

func TestRunContinuesPastUnexpectedCommand(t *testing.T) {
	tr, err := tracee.Launch("true", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Detach()

	term, out := testTerm(tr, "bogus\ncontinue\n")
	status, err := term.Run()
	if err != nil {
		t.Fatal(err)
	}
	if status != 0 {
		t.Errorf("exit status = %d, want 0", status)
	}
	if want := `unexpected command: "bogus"`; !strings.Contains(out.String(), want) {
		t.Errorf("output %q does not contain %q", out.String(), want)
	}
}

func TestRunFatalOnCommandFailure(t *testing.T) {
	tr, err := tracee.Launch("true", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Detach()

	// The second continue resumes an already exited process, which must
	// end the whole session.
	term, _ := testTerm(tr, "continue\ncontinue\n")
	status, err := term.Run()
	if err == nil {
		t.Fatal("expected the session to fail")
	}
	if status == 0 {
		t.Errorf("exit status = %d, want nonzero", status)
	}
}

func TestRegisterCommands(t *testing.T) {
	tr, err := tracee.Launch("sleep", []string{"60"})
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Detach()

	term, out := testTerm(tr, "")
	for _, cmd := range []string{"readgp", "writegp", "readfp", "writefp"} {
		if err := term.cmds.Call(cmd, term); err != nil {
			t.Fatalf("%s: %v", cmd, err)
		}
	}
	if !strings.Contains(out.String(), "rip") {
		t.Errorf("readgp output %q does not name rip", out.String())
	}
	if !strings.Contains(out.String(), "mxcsr") {
		t.Errorf("readfp output %q does not name mxcsr", out.String())
	}

	// writegp stores the sentinel into the stack pointer.
	regs, err := tr.ReadGPRegisters()
	if err != nil {
		t.Fatal(err)
	}
	if regs.Rsp != registerSentinel {
		t.Errorf("rsp = %d, want sentinel %d", regs.Rsp, registerSentinel)
	}
}
