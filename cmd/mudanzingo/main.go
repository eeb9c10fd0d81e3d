// Command mudanzingo manages the Mudanzingo back office records from the
// terminal.
package main

import (
	"fmt"
	"os"
)

func main() {
	cli := NewViperCLI()
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
