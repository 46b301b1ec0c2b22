package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes
const (
	exitSuccess    = 0
	exitFileFailed = 1   // batch finished but some files could not be transcribed
	exitError      = 2   // configuration, provisioning or runtime error
	exitInterrupt  = 130 // stopped by a signal; the partial transcript is kept
)

func main() {
	err := execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ie *interruptedError
	if errors.As(err, &ie) {
		return exitInterrupt
	}
	var ff *fileFailureError
	if errors.As(err, &ff) {
		return exitFileFailed
	}
	return exitError
}
