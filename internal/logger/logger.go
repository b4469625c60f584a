package logger

import (
	"io"

	"github.com/fatih/color" // Import the fatih/color package for colored console output
)

// Colorized printers for each log level. Each one behaves like fmt.Printf
// and writes to the shared output (stdout unless SetOutput was called).
var (
	infoColor  = color.New(color.FgGreen)
	warnColor  = color.New(color.FgHiMagenta)
	errorColor = color.New(color.FgRed)
	debugColor = color.New(color.FgCyan)

	out io.Writer = color.Output
)

// Info logs informational messages in green.
var Info = func(format string, a ...any) { infoColor.Fprintf(out, format, a...) }

// Warn logs warnings in bright magenta. Warnings never stop a run.
var Warn = func(format string, a ...any) { warnColor.Fprintf(out, format, a...) }

// Error logs errors in red.
var Error = func(format string, a ...any) { errorColor.Fprintf(out, format, a...) }

// Debug logs debug messages in cyan if enabled, otherwise is a no-op.
// It is swapped by Init based on the --debug flag.
var Debug = func(format string, a ...any) {}

// Init enables or disables debug logging.
func Init(enableDebug bool) {
	if enableDebug {
		Debug = func(format string, a ...any) { debugColor.Fprintf(out, format, a...) }
	} else {
		// No-op so disabled debug logging costs nothing.
		Debug = func(format string, a ...any) {}
	}
}

// SetOutput redirects all levels to w. Tests use it to capture output.
func SetOutput(w io.Writer) {
	out = w
}
