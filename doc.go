/*
Package yerf records nested, possibly overlapping timing intervals for units
of work in an interactive client.

A Sample measures one interval and is identified by a dotted key such as
"feed.counts.api". Samples form a tree: a parent always contains the
intervals of its children, and every child records its offset from the start
of its parent.

# Timing styles

  - Synchronous: Start then Stop a sample.
  - Waterfall: declare named dependencies with Waterfall; the sample stops by
    itself when the last dependency stops.
  - Backfill: insert intervals known after the fact (for instance resource
    timings of HTTP requests) into a stopped sample. Ancestors widen to keep
    containing their children.

# Usage

	t := yerf.New(yerf.WithLogger(logger))

	page := t.Create("page").Waterfall("api", "render")
	page.Start("api")
	// ... later, when the request returns
	page.Stop("api")
	page.Start("render").Stop("render") // page stops here

	for _, e := range t.ListUnreported(false) {
		fmt.Println(e.Name(), e.Millis())
	}

Protocol mistakes (starting twice, stopping a waterfall by hand, duplicate
keys) never abort a chain of calls: they are passed to the error handler
configured with WithErrorHandler and the offending call does nothing. Missing
or invalid arguments are programming errors and panic with a
*domain.ArgumentError.

A Tracker is safe for concurrent use. Event subscribers, lifecycle hooks and
the error handler run after the tracker lock is released, so they may call
back into the tracker.
*/
package yerf
