package main

import (
	"fmt"

	"github.com/fwojciec/linkfeed"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	if deps.Runs == nil || deps.SeenLinks == nil {
		err := linkfeed.Errorf(linkfeed.ECONFIG, "history requires a database; set site.database or --db")
		fmt.Fprintf(deps.Stderr, "error: %s\n", linkfeed.ErrorMessage(err))
		return err
	}

	var sourceID *string
	if c.ID != "" {
		if _, err := deps.Config.FindSource(c.ID); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", linkfeed.ErrorMessage(err))
			return err
		}
		sourceID = &c.ID
	}

	if c.Links {
		return c.listLinks(deps, sourceID)
	}

	filter := linkfeed.RunFilter{SourceID: sourceID, Limit: c.Limit}
	if c.Failed {
		status := linkfeed.RunFailed
		filter.Status = &status
	}

	runs, err := deps.Runs.FindRuns(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", linkfeed.ErrorMessage(err))
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(deps.Stdout, "No runs recorded. Use 'linkfeed build' to create one.")
		return nil
	}

	for _, r := range runs {
		started := r.StartedAt.UTC().Format("2006-01-02 15:04:05")
		if r.Status == linkfeed.RunFailed {
			fmt.Fprintf(deps.Stdout, "%s  %s  failed  %s\n", started, r.SourceID, r.Error)
			continue
		}
		changed := "unchanged"
		if r.Changed {
			changed = "changed"
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %d items  %d new  %s\n", started, r.SourceID, r.ItemCount, r.NewCount, changed)
	}
	return nil
}

// listLinks prints recorded links, most recently discovered first.
func (c *HistoryCmd) listLinks(deps *Dependencies, sourceID *string) error {
	links, err := deps.SeenLinks.FindSeenLinks(deps.Ctx, linkfeed.SeenLinkFilter{SourceID: sourceID, Limit: c.Limit})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", linkfeed.ErrorMessage(err))
		return err
	}

	if len(links) == 0 {
		fmt.Fprintln(deps.Stdout, "No links recorded. Use 'linkfeed build' to record some.")
		return nil
	}

	for _, l := range links {
		seen := l.FirstSeenAt.UTC().Format("2006-01-02 15:04:05")
		fmt.Fprintf(deps.Stdout, "%s  %s  %s  %s\n", seen, l.SourceID, l.Title, l.URL)
	}
	return nil
}
