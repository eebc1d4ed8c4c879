package main

import (
	"fmt"
	"time"

	"treasury_dashboard/internal/app/aggregate"
	"treasury_dashboard/internal/app/service"
	"treasury_dashboard/internal/domain/entity"
	"treasury_dashboard/internal/pkg/utils"

	"github.com/spf13/cobra"
)

// parseDay accepts RFC 3339 or a bare date, read as UTC midnight.
func parseDay(flag, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid --%s %q: expected YYYY-MM-DD or RFC 3339", flag, raw)
}

func (c *cli) auditCmd() *cobra.Command {
	var (
		q        service.AuditLogQuery
		from, to string
		limit    int
		skip     int
		asCSV    bool
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the admin audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if q.Action != "" {
				if _, err := entity.ParseAdminAction(q.Action); err != nil {
					return err
				}
			}
			var err error
			if q.From, err = parseDay("from", from); err != nil {
				return err
			}
			if q.To, err = parseDay("to", to); err != nil {
				return err
			}
			q.Page = service.NewPage(limit, skip)

			rt, err := c.admin()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			entries, err := rt.Views.AuditLog(ctx, q)
			if err != nil {
				return err
			}
			if asCSV {
				return aggregate.WriteAuditLogCSV(c.out, entries)
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					utils.FormatDateTime(e.Timestamp),
					utils.FirstNonBlank(e.AdminName, e.AdminAddress),
					string(e.Action),
					string(e.ResourceType),
					utils.FirstNonBlank(e.ResourceID, "-"),
				})
			}
			return c.render(entries, []string{"TIME", "ADMIN", "ACTION", "RESOURCE", "ID"}, rows)
		},
	}
	f := cmd.Flags()
	f.StringVar(&q.AdminAddress, "admin", "", "only actions by this address")
	f.StringVar(&q.Action, "action", "", "only this action, e.g. add_admin")
	f.StringVar(&from, "from", "", "earliest timestamp")
	f.StringVar(&to, "to", "", "latest timestamp")
	f.IntVar(&limit, "limit", 50, "page size")
	f.IntVar(&skip, "offset", 0, "rows to skip")
	f.BoolVar(&asCSV, "csv", false, "write CSV instead of a table")
	return cmd
}

func (c *cli) runwayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runway",
		Short: "Show treasury value, 30-day burn rate and months of runway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.runtime()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			view, err := rt.Views.Dashboard(ctx)
			if err != nil {
				return err
			}
			for _, e := range view.Errors {
				rt.Logger.Sugar().Warnw("Section unavailable", "section", e.Section, "error", e.Message)
			}
			out := map[string]any{
				"totalValue": view.TotalValue,
				"burnRate":   view.BurnRate,
				"runway":     view.Runway,
				"errors":     view.Errors,
			}
			return c.render(out, []string{"TREASURY", "BURN (30D)", "RUNWAY (MONTHS)"},
				[][]string{{view.TotalValue, view.BurnRateDisplay, view.Runway}})
		},
	}
}
