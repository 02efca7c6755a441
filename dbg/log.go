package dbg

import (
	"io"
	"log"
	"os"

	"github.com/kr/pretty"
	"github.com/logrusorgru/aurora"
)

// Debug logging is off unless WAYEDIT_DEBUG is set. Modes log rejected input
// and aborted gestures here, never anything on the drag path.

var logger = log.New(io.Discard, "", log.Ltime|log.Lmicroseconds)

// Whether debug output is enabled.
var Enabled bool

func init() {
	if os.Getenv("WAYEDIT_DEBUG") != "" {
		SetOutput(os.Stderr)
	}
}

// Redirect debug output. A nil writer turns logging off.
func SetOutput(w io.Writer) {
	if w == nil {
		Enabled = false
		logger.SetOutput(io.Discard)
		return
	}
	Enabled = true
	logger.SetOutput(w)
}

func Logf(format string, args ...interface{}) {
	if !Enabled {
		return
	}
	logger.Printf(format, args...)
}

// Like Logf, but with the message highlighted. Used for aborted gestures.
func Warnf(format string, args ...interface{}) {
	if !Enabled {
		return
	}
	logger.Print(aurora.Yellow(pretty.Sprintf(format, args...)).String())
}

// Pretty print arbitrary values, typically command trees.
func Dump(values ...interface{}) {
	if !Enabled {
		return
	}
	for _, v := range values {
		logger.Printf("%# v", pretty.Formatter(v))
	}
}

// Sprint a value the same way Dump does.
func Sdump(v interface{}) string {
	return pretty.Sprint(v)
}
