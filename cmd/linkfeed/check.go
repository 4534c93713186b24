package main

import (
	"fmt"

	"github.com/fwojciec/linkfeed"
)

// Run executes the check command.
func (c *CheckCmd) Run(deps *Dependencies) error {
	var bad int
	for _, src := range deps.Config.Sources {
		path := deps.Writer.Path(linkfeed.FeedPath(deps.Config.Site.OutputDir, src.ID))

		summary, err := deps.Inspector.InspectFeed(deps.Ctx, path)
		switch linkfeed.ErrorCode(err) {
		case "":
		case linkfeed.ENOTFOUND:
			bad++
			fmt.Fprintf(deps.Stdout, "  missing %s: %s\n", src.ID, path)
			continue
		default:
			bad++
			fmt.Fprintf(deps.Stdout, "  invalid %s: %s\n", src.ID, linkfeed.ErrorMessage(err))
			continue
		}

		updated := "never"
		if summary.Updated != nil {
			updated = summary.Updated.UTC().Format("2006-01-02 15:04 UTC")
		}
		fmt.Fprintf(deps.Stdout, "  ok      %s: %d entries, updated %s\n", src.ID, summary.Entries, updated)
	}

	if bad > 0 {
		err := linkfeed.Errorf(linkfeed.ENOTFOUND, "%d of %d feeds missing or invalid", bad, len(deps.Config.Sources))
		fmt.Fprintf(deps.Stderr, "error: %s\n", linkfeed.ErrorMessage(err))
		return err
	}
	return nil
}
