package main

import (
	"fmt"

	"github.com/fwojciec/linkfeed"
)

// Run executes the build command.
func (c *BuildCmd) Run(deps *Dependencies) error {
	result, err := deps.Builder.Build(deps.Ctx, deps.Config)
	if result != nil {
		for _, res := range result.Sources {
			if res.Err != nil {
				fmt.Fprintf(deps.Stdout, "  fail %s: %s\n", res.Source.ID, linkfeed.ErrorMessage(res.Err))
				continue
			}
			fmt.Fprintf(deps.Stdout, "  ok   %s: %d items", res.Source.ID, len(res.Items))
			if deps.Runs != nil {
				fmt.Fprintf(deps.Stdout, " (%d new)", res.New)
			}
			fmt.Fprintln(deps.Stdout)
		}
		fmt.Fprintf(deps.Stdout, "Wrote %d feeds (%d failed)\n", result.Succeeded, result.Failed)
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", linkfeed.ErrorMessage(err))
		return err
	}
	return nil
}
