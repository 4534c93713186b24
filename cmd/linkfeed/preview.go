package main

import (
	"fmt"

	"github.com/fwojciec/linkfeed"
)

// Run executes the preview command.
func (c *PreviewCmd) Run(deps *Dependencies) error {
	src, err := deps.Config.FindSource(c.ID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", linkfeed.ErrorMessage(err))
		return err
	}

	result, err := deps.Builder.Preview(deps.Ctx, src)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", linkfeed.ErrorMessage(err))
		return err
	}

	for _, item := range result.Items {
		fmt.Fprintf(deps.Stdout, "%s\t%s\n", item.Title, item.URL)
	}

	if c.Stats {
		filter, err := linkfeed.NewLinkFilter(src.SourceURL, src.Rules)
		if err != nil {
			return err
		}
		fmt.Fprintf(deps.Stderr, "%d items\n", len(result.Items))
		for _, rule := range filter.Rules() {
			if n := result.Rejected[rule.Name]; n > 0 {
				fmt.Fprintf(deps.Stderr, "  rejected by %s: %d\n", rule.Name, n)
			}
		}
		if n := result.Rejected[linkfeed.RuleUnresolvableHref]; n > 0 {
			fmt.Fprintf(deps.Stderr, "  rejected by %s: %d\n", linkfeed.RuleUnresolvableHref, n)
		}
		if result.Duplicates > 0 {
			fmt.Fprintf(deps.Stderr, "  duplicates: %d\n", result.Duplicates)
		}
	}

	return nil
}
