package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess   = 0 // Every run succeeded or was served from cache
	ExitRunFailed = 1 // One or more matrix entries failed
	ExitError     = 2 // Configuration or runtime error
)

// RunFailureError indicates that the pipeline completed but one or more
// matrix entries failed.
type RunFailureError struct {
	Failed int
	Total  int
}

func (e *RunFailureError) Error() string {
	return fmt.Sprintf("%d of %d runs failed", e.Failed, e.Total)
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var runErr *RunFailureError
	if errors.As(err, &runErr) {
		return ExitRunFailed
	}
	return ExitError
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
