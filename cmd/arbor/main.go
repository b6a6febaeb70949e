package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/arbor/pkg/core"
)

func main() {
	Execute()
}

// fatal prints err and exits. Errors the user can fix by changing the
// request exit with status 2, everything else with 1.
func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	if core.Recoverable(err) {
		os.Exit(2)
	}
	var saveErr *core.SaveFailureError
	if errors.As(err, &saveErr) {
		fmt.Fprintln(os.Stderr, "your changes were not saved")
	}
	os.Exit(1)
}
