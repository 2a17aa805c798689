// Command rustscout is a concurrent code search and in-place replace
// engine for large source trees (see pkg/search, pkg/replace, pkg/undo
// for the core pipeline this CLI is a thin collaborator of).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCodeFor(err))
	}
}
