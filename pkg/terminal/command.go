package terminal

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// registerSentinel is the fixed value the register write commands store
// into one representative field. They are smoke tests for the full
// read/modify/write path, not a general register editor.
const registerSentinel = 99999999

type cmdfunc func(t *Term, line string) error

type command struct {
	aliases []string
	helpMsg string
	cmdFn   cmdfunc
}

// Returns true if the input line matches one of the aliases for this
// command. Matching is exact and case sensitive; the commands take no
// arguments.
func (c command) match(line string) bool {
	for _, v := range c.aliases {
		if v == line {
			return true
		}
	}
	return false
}

// Commands represents the commands for the pbreak terminal.
type Commands struct {
	cmds []command
}

// TraceCommands returns a Commands struct with the default commands
// defined.
func TraceCommands() *Commands {
	c := &Commands{}

	c.cmds = []command{
		{aliases: []string{"continue"}, cmdFn: cont, helpMsg: "Resume the tracee, then wait for its next state change."},
		{aliases: []string{"readgp"}, cmdFn: readGPRegisters, helpMsg: "Display the general purpose register snapshot."},
		{aliases: []string{"writegp"}, cmdFn: writeGPRegisters, helpMsg: "Overwrite the stack pointer with a sentinel value and write the snapshot back."},
		{aliases: []string{"readfp"}, cmdFn: readFPRegisters, helpMsg: "Display the floating point register snapshot."},
		{aliases: []string{"writefp"}, cmdFn: writeFPRegisters, helpMsg: "Overwrite the MXCSR register with a sentinel value and write the snapshot back."},
	}
	return c
}

// Merge takes aliases defined in the config struct and merges them with
// the default command names.
func (c *Commands) Merge(allAliases map[string][]string) {
	for i := range c.cmds {
		if aliases, ok := allAliases[c.cmds[i].aliases[0]]; ok {
			c.cmds[i].aliases = append(c.cmds[i].aliases, aliases...)
		}
	}
}

// Call dispatches one input line. An unrecognized line is reported on the
// terminal but is not an error; an error return means a recognized
// command failed against the tracee.
func (c *Commands) Call(line string, t *Term) error {
	for _, cmd := range c.cmds {
		if cmd.match(line) {
			t.log.Debugf("command %q", line)
			return cmd.cmdFn(t, line)
		}
	}
	fmt.Fprintf(t.stdout, "unexpected command: %q\n", line)
	return nil
}

func cont(t *Term, line string) error {
	if err := t.tracee.Resume(); err != nil {
		return err
	}
	return t.tracee.WaitOnSignal()
}

func readGPRegisters(t *Term, line string) error {
	regs, err := t.tracee.ReadGPRegisters()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(t.stdout, 0, 8, 1, ' ', 0)
	for _, r := range []struct {
		name  string
		value uint64
	}{
		{"rip", regs.Rip}, {"rsp", regs.Rsp}, {"rbp", regs.Rbp},
		{"rax", regs.Rax}, {"rbx", regs.Rbx}, {"rcx", regs.Rcx},
		{"rdx", regs.Rdx}, {"rsi", regs.Rsi}, {"rdi", regs.Rdi},
		{"r8", regs.R8}, {"r9", regs.R9}, {"r10", regs.R10},
		{"r11", regs.R11}, {"r12", regs.R12}, {"r13", regs.R13},
		{"r14", regs.R14}, {"r15", regs.R15}, {"eflags", regs.Eflags},
		{"cs", regs.Cs}, {"ss", regs.Ss}, {"ds", regs.Ds},
		{"es", regs.Es}, {"fs", regs.Fs}, {"gs", regs.Gs},
	} {
		fmt.Fprintf(tw, "%s\t= %#016x\n", r.name, r.value)
	}
	return tw.Flush()
}

func writeGPRegisters(t *Term, line string) error {
	regs, err := t.tracee.ReadGPRegisters()
	if err != nil {
		return err
	}
	regs.Rsp = registerSentinel
	return t.tracee.WriteGPRegisters(regs)
}

func readFPRegisters(t *Term, line string) error {
	regs, err := t.tracee.ReadFPRegisters()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(t.stdout, 0, 8, 1, ' ', 0)
	fmt.Fprintf(tw, "cwd\t= %#04x\n", regs.Cwd)
	fmt.Fprintf(tw, "swd\t= %#04x\n", regs.Swd)
	fmt.Fprintf(tw, "ftw\t= %#04x\n", regs.Ftw)
	fmt.Fprintf(tw, "fop\t= %#04x\n", regs.Fop)
	fmt.Fprintf(tw, "rip\t= %#016x\n", regs.Rip)
	fmt.Fprintf(tw, "rdp\t= %#016x\n", regs.Rdp)
	fmt.Fprintf(tw, "mxcsr\t= %#08x\n", regs.Mxcsr)
	fmt.Fprintf(tw, "mxcr_mask\t= %#08x\n", regs.MxcrMask)
	for i := 0; i < 8; i++ {
		fmt.Fprintf(tw, "st%d\t= %s\n", i, fpWords(regs.StSpace[i*4:i*4+4]))
	}
	for i := 0; i < 16; i++ {
		fmt.Fprintf(tw, "xmm%d\t= %s\n", i, fpWords(regs.XmmSpace[i*4:i*4+4]))
	}
	return tw.Flush()
}

func fpWords(words []uint32) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = fmt.Sprintf("%08x", w)
	}
	return strings.Join(parts, " ")
}

func writeFPRegisters(t *Term, line string) error {
	regs, err := t.tracee.ReadFPRegisters()
	if err != nil {
		return err
	}
	regs.Mxcsr = registerSentinel
	return t.tracee.WriteFPRegisters(regs)
}
