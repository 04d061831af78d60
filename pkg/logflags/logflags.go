// Package logflags configures debug logging for the other packages in
// pbreak. Logging is off by default and is enabled per component through
// the --log and --log-output command line flags.
package logflags

import (
	"errors"
	"io"
	"log"
	"strings"

	"github.com/sirupsen/logrus"
)

var tracee = false
var terminal = false

func makeLogger(flag bool, fields logrus.Fields) *logrus.Entry {
	logger := logrus.New().WithFields(fields)
	logger.Logger.Level = logrus.DebugLevel
	if !flag {
		logger.Logger.Level = logrus.PanicLevel
	}
	return logger
}

// Tracee returns true if the tracee package should log its process control
// requests.
func Tracee() bool {
	return tracee
}

// TraceeLogger returns a logger for the tracee package.
func TraceeLogger() *logrus.Entry {
	return makeLogger(tracee, logrus.Fields{"layer": "tracee"})
}

// Terminal returns true if the command loop should log.
func Terminal() bool {
	return terminal
}

// TerminalLogger returns a logger for the command loop.
func TerminalLogger() *logrus.Entry {
	return makeLogger(terminal, logrus.Fields{"layer": "terminal"})
}

var errLogstrWithoutLog = errors.New("--log-output specified without --log")

// Setup sets logging flags based on the contents of logstr.
func Setup(logFlag bool, logstr string) error {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if !logFlag {
		log.SetOutput(io.Discard)
		if logstr != "" {
			return errLogstrWithoutLog
		}
		return nil
	}
	if logstr == "" {
		logstr = "tracee"
	}
	for _, logcmd := range strings.Split(logstr, ",") {
		switch logcmd {
		case "tracee":
			tracee = true
		case "terminal":
			terminal = true
		}
	}
	return nil
}
