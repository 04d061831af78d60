package main

import (
	"os"

	"github.com/pbreak/pbreak/cmd/pbreak/cmds"
	"github.com/pbreak/pbreak/pkg/tracee"
)

func main() {
	// The launch path re-executes this binary as a short lived helper
	// that asks to be traced and then execs the target program. Divert
	// before the command tree sees the arguments.
	if len(os.Args) >= 3 && os.Args[1] == tracee.ChildMarker {
		tracee.ExecChild(os.Args[2], os.Args[3:])
	}

	if err := cmds.New().Execute(); err != nil {
		os.Exit(1)
	}
}
