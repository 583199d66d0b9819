package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spboyer/evaldash/internal/metricsapi"
)

// Exit codes for different failure modes
const (
	ExitSuccess      = 0 // Command completed
	ExitUpstreamHTTP = 1 // The metrics API answered with a non-2xx status
	ExitError        = 2 // Configuration, transport or runtime error
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps err to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var statusErr *metricsapi.StatusError
	if errors.As(err, &statusErr) {
		return ExitUpstreamHTTP
	}
	return ExitError
}
