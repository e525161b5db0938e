package main

import (
	"fmt"
	"os"

	"github.com/gitfleet/gitfleet/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the gitfleet command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
