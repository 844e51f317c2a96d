// Command lotetrace records product and lot traceability on a versioned ledger.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/lotetrace/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
