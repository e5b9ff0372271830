package config

import (
	"fmt"
	"log"
	"os"
)

// exit is swapped by tests that must observe the exit code in-process.
var exit = os.Exit

// Exitf writes a formatted error message to stderr, prefixed with the
// command's log prefix, and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, log.Prefix()+format+"\n", args...)
	exit(1)
}
