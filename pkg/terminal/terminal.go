// Package terminal implements the interactive command loop: it reads
// operator input lines, maps them onto tracee operations and prints the
// resulting state.
package terminal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	"github.com/sirupsen/logrus"

	"github.com/pbreak/pbreak/pkg/config"
	"github.com/pbreak/pbreak/pkg/logflags"
	"github.com/pbreak/pbreak/pkg/tracee"
)

const historyFile string = ".pbreak_history"

// Term represents the terminal running pbreak. It is bound to exactly one
// tracee for its whole lifetime.
type Term struct {
	tracee *tracee.Tracee
	conf   *config.Config
	prompt string
	cmds   *Commands
	line   *liner.State

	// interactive selects line editing via liner; when standard input is
	// not a terminal a plain buffered reader is used instead.
	interactive bool
	stdin       io.Reader
	stdout      io.Writer
	log         *logrus.Entry
}

// New returns a new Term bound to the given tracee.
func New(tr *tracee.Tracee, conf *config.Config) *Term {
	cmds := TraceCommands()
	if conf != nil && conf.Aliases != nil {
		cmds.Merge(conf.Aliases)
	}
	if conf == nil {
		conf = &config.Config{}
	}
	return &Term{
		tracee:      tr,
		conf:        conf,
		prompt:      "pbreak> ",
		cmds:        cmds,
		interactive: isatty.IsTerminal(os.Stdin.Fd()),
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		log:         logflags.TerminalLogger(),
	}
}

// Run reads and executes operator commands until the input stream ends.
// It returns the process exit status: 0 when input is exhausted, 1 when a
// recognized command failed, because after a failed control operation the
// tracee's true state cannot be trusted and no safe continuation is
// possible.
func (t *Term) Run() (int, error) {
	readLine := t.plainReader()
	if t.interactive {
		t.line = liner.NewLiner()
		defer t.line.Close()
		t.line.SetCompleter(func(line string) (c []string) {
			for _, cmd := range t.cmds.cmds {
				for _, alias := range cmd.aliases {
					if strings.HasPrefix(alias, line) {
						c = append(c, alias)
					}
				}
			}
			return
		})
		t.loadHistory()
		defer t.saveHistory()
		readLine = func() (string, error) { return t.line.Prompt(t.prompt) }
	}

	for {
		line, err := readLine()
		if err == io.EOF {
			return 0, nil
		}
		if err != nil {
			// A bad read is not fatal; report it and keep the session
			// alive.
			fmt.Fprintf(t.stdout, "failed to read line from stdin: %v\n", err)
			continue
		}
		if t.interactive && line != "" {
			t.line.AppendHistory(line)
		}
		if err := t.cmds.Call(line, t); err != nil {
			return 1, err
		}
	}
}

func (t *Term) plainReader() func() (string, error) {
	scan := bufio.NewScanner(t.stdin)
	return func() (string, error) {
		fmt.Fprint(t.stdout, t.prompt)
		if scan.Scan() {
			return scan.Text(), nil
		}
		if err := scan.Err(); err != nil {
			// The reader cannot make progress anymore; report the error
			// and treat the stream as exhausted.
			fmt.Fprintf(t.stdout, "failed to read line from stdin: %v\n", err)
		}
		return "", io.EOF
	}
}

func (t *Term) loadHistory() {
	fullHistoryFile, err := config.GetConfigFilePath(historyFile)
	if err != nil {
		return
	}
	f, err := os.Open(fullHistoryFile)
	if err != nil {
		return
	}
	t.line.ReadHistory(f)
	f.Close()
}

func (t *Term) saveHistory() {
	fullHistoryFile, err := config.GetConfigFilePath(historyFile)
	if err != nil {
		return
	}
	f, err := os.Create(fullHistoryFile)
	if err != nil {
		fmt.Fprintf(t.stdout, "Unable to save history: %v.\n", err)
		return
	}
	t.line.WriteHistory(f)
	f.Close()
}
