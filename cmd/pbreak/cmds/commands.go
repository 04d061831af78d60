package cmds

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pbreak/pbreak/pkg/config"
	"github.com/pbreak/pbreak/pkg/logflags"
	"github.com/pbreak/pbreak/pkg/terminal"
	"github.com/pbreak/pbreak/pkg/tracee"
	"github.com/pbreak/pbreak/pkg/version"
)

var (
	// log is whether to log debug statements.
	log bool
	// logOutput is a comma separated list of components that should
	// produce debug output.
	logOutput string
	// attachPid is the pid of a running process to attach to.
	attachPid int

	// rootCommand is the root of the command tree.
	rootCommand *cobra.Command

	conf *config.Config
)

const pbreakCommandLongDesc = `pbreak is a minimal interactive tracer for native programs.

It launches a program (or attaches to an already running process) under
trace control and gives you a prompt to resume execution, observe state
changes and inspect or modify CPU register state.

Pass flags to the program you are tracing after its name, for example:

` + "`pbreak ./hello --config conf/config.toml`"

// New returns an initialized command tree.
func New() *cobra.Command {
	conf = config.LoadConfig()

	rootCommand = &cobra.Command{
		Use:   "pbreak [flags] [program [args...]]",
		Short: "pbreak is a minimal interactive process tracer.",
		Long:  pbreakCommandLongDesc,
		Run:   rootCmd,
	}
	// Flags after the program name belong to the traced program.
	rootCommand.Flags().SetInterspersed(false)
	rootCommand.Flags().IntVarP(&attachPid, "pid", "p", 0, "Attach to the running process with the given pid.")
	rootCommand.PersistentFlags().BoolVarP(&log, "log", "", false, "Enable debug logging.")
	rootCommand.PersistentFlags().StringVarP(&logOutput, "log-output", "", "", "Comma separated list of components that should produce debug output (tracee,terminal).")

	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pbreak\n%s\n", version.PbreakVersion)
		},
	}
	rootCommand.AddCommand(versionCommand)

	return rootCommand
}

func rootCmd(cmd *cobra.Command, args []string) {
	if err := logflags.Setup(log, logOutput); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	switch {
	case attachPid != 0:
		os.Exit(attachCmd(attachPid))
	case len(args) > 0:
		os.Exit(launchCmd(args[0], args[1:]))
	default:
		fmt.Println("Missing command.")
		os.Exit(-1)
	}
}

func attachCmd(pid int) int {
	tr, err := tracee.Attach(pid)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return session(tr)
}

func launchCmd(program string, args []string) int {
	tr, err := tracee.Launch(program, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return session(tr)
}

// session drives the command loop and guarantees the handle's teardown on
// every exit path, so no process is left attached-and-orphaned and no
// zombie remains.
func session(tr *tracee.Tracee) int {
	defer func() {
		if err := tr.Detach(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}()

	status, err := terminal.New(tr, conf).Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return status
}
