// Command calculate binds reactive formulas to HTML documents, runs
// calculation scenarios and inspects recompute journals.
package main

import (
	"fmt"
	"os"

	"github.com/pablobm/calculate/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
