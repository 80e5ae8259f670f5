package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/citewatch/citewatch/cli"
	"github.com/citewatch/citewatch/cli/helpers"
)

func main() {
	cmd := cli.RootCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		// Categorized errors were already printed by the command.
		var cliErr *helpers.CliError
		if !errors.As(err, &cliErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
