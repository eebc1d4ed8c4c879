package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"treasury_dashboard/internal/app/aggregate"
)

// render prints v as JSON, or as a table built from header and rows.
func (c *cli) render(v any, header []string, rows [][]string) error {
	if c.output == outputJSON {
		return aggregate.WriteJSON(c.out, v)
	}
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

// done prints a one-line confirmation, or v as JSON.
func (c *cli) done(v any, format string, args ...any) error {
	if c.output == outputJSON {
		return aggregate.WriteJSON(c.out, v)
	}
	_, err := fmt.Fprintf(c.out, format+"\n", args...)
	return err
}
