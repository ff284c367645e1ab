package main

import (
	"fmt"
	"os"
)

// failureExitCode signals any top-level failure — a rejected authorization
// code, an upload failure, bad arguments. Downstream pipeline scripts key
// off this value.
const failureExitCode = 42

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(failureExitCode)
	}
}
