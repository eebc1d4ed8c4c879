package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"treasury_dashboard/internal/app/aggregate"
	"treasury_dashboard/internal/app/service"
	dto "treasury_dashboard/internal/entity"
	"treasury_dashboard/internal/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func (c *cli) walletsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "wallets", Short: "Manage treasury wallets"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "ls",
			Short: "List treasury wallets",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				rt, err := c.runtime()
				if err != nil {
					return err
				}
				ctx, cancel := commandContext(cmd)
				defer cancel()
				wallets, err := rt.Services.Treasury.Wallets(ctx).Result()
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(wallets))
				for _, w := range wallets {
					rows = append(rows, []string{w.Address, w.ExplorerURL})
				}
				return c.render(wallets, []string{"ADDRESS", "EXPLORER"}, rows)
			},
		},
		&cobra.Command{
			Use:   "add <address>",
			Short: "Track a wallet as part of the treasury",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				rt, err := c.admin()
				if err != nil {
					return err
				}
				ctx, cancel := commandContext(cmd)
				defer cancel()
				w, err := rt.Services.Treasury.AddWallet.MutateAsync(ctx, args[0])
				if err != nil {
					return err
				}
				return c.done(w, "Added wallet %s", w.Address)
			},
		},
		&cobra.Command{
			Use:   "rm <address>",
			Short: "Stop tracking a wallet",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				rt, err := c.admin()
				if err != nil {
					return err
				}
				ctx, cancel := commandContext(cmd)
				defer cancel()
				if _, err := rt.Services.Treasury.DeleteWallet.MutateAsync(ctx, args[0]); err != nil {
					return err
				}
				return c.done(map[string]string{"removed": args[0]}, "Removed wallet %s", args[0])
			},
		},
		c.walletBalancesCmd(),
	)
	return cmd
}

func (c *cli) assetsCmd() *cobra.Command {
	var p dto.TreasuryAssetPayload
	add := &cobra.Command{
		Use:   "add",
		Short: "Track a token across the treasury wallets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.admin()
			if err != nil {
				return err
			}
			if p.ChainID == 0 {
				p.ChainID = int64(rt.Config.DefaultChain.ChainID)
			}
			if _, err := service.ValidateAddress(p.Address); err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			if _, err := rt.Services.Treasury.AddAsset.MutateAsync(ctx, p); err != nil {
				return err
			}
			return c.done(p, "Tracking %s (%s) on chain %d", p.Symbol, p.Address, p.ChainID)
		},
	}
	f := add.Flags()
	f.Int64Var(&p.ChainID, "chain-id", 0, "chain id (default: the configured default chain)")
	f.StringVar(&p.Address, "address", "", "token contract address")
	f.StringVar(&p.Name, "name", "", "token name")
	f.StringVar(&p.Symbol, "symbol", "", "token symbol")
	f.IntVar(&p.Decimals, "decimals", utils.DefaultTokenDecimals, "token decimals")
	_ = add.MarkFlagRequired("address")
	_ = add.MarkFlagRequired("symbol")

	cmd := &cobra.Command{Use: "assets", Short: "Manage tracked assets"}
	cmd.AddCommand(add)
	return cmd
}

func (c *cli) expensesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "expenses", Short: "Manage expenses and receipts"}

	var (
		q     service.ExpenseQuery
		limit int
		skip  int
		asCSV bool
	)
	ls := &cobra.Command{
		Use:   "ls",
		Short: "List expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.runtime()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			q.Page = service.NewPage(limit, skip)
			expenses, err := rt.Services.Expenses.List(ctx, q).Result()
			if err != nil {
				return err
			}
			if asCSV {
				return aggregate.WriteExpensesCSV(c.out, expenses)
			}
			rows := make([][]string, 0, len(expenses))
			for _, e := range expenses {
				rows = append(rows, []string{
					e.ID, utils.FormatDate(e.Date), e.Category, e.Item,
					strconv.FormatFloat(e.Quantity, 'f', -1, 64),
					utils.FormatCurrency(e.Total(), "USD"),
					strconv.Itoa(len(e.Receipts)),
				})
			}
			return c.render(expenses, []string{"ID", "DATE", "CATEGORY", "ITEM", "QTY", "TOTAL", "RECEIPTS"}, rows)
		},
	}
	ls.Flags().StringVar(&q.Category, "category", "", "only this category")
	ls.Flags().IntVar(&limit, "limit", 50, "page size")
	ls.Flags().IntVar(&skip, "offset", 0, "rows to skip")
	ls.Flags().BoolVar(&asCSV, "csv", false, "write CSV instead of a table")

	var (
		p      dto.ExpensePayload
		txHash string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Record an expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := decimal.NewFromString(p.Price); err != nil {
				return fmt.Errorf("invalid price %q: %w", p.Price, err)
			}
			if _, err := time.Parse(time.DateOnly, p.Date); err != nil {
				return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", p.Date)
			}
			if txHash != "" {
				p.TxHash = &txHash
			}
			rt, err := c.admin()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			e, err := rt.Services.Expenses.Create.MutateAsync(ctx, p)
			if err != nil {
				return err
			}
			return c.done(e, "Created expense %s", utils.FirstNonBlank(e.ID, p.Item))
		},
	}
	cf := create.Flags()
	cf.StringVar(&p.Item, "item", "", "what was bought")
	cf.IntVar(&p.Quantity, "quantity", 1, "number of units")
	cf.StringVar(&p.Price, "price", "", "unit price in USD")
	cf.StringVar(&p.Purpose, "purpose", "", "why it was bought")
	cf.StringVar(&p.Category, "category", "", "expense category")
	cf.StringVar(&p.Date, "date", time.Now().Format(time.DateOnly), "purchase date (YYYY-MM-DD)")
	cf.StringVar(&txHash, "tx", "", "payment transaction hash")
	for _, name := range []string{"item", "price", "category"} {
		_ = create.MarkFlagRequired(name)
	}

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.admin()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			if _, err := rt.Services.Expenses.Delete.MutateAsync(ctx, args[0]); err != nil {
				return err
			}
			return c.done(map[string]string{"removed": args[0]}, "Deleted expense %s", args[0])
		},
	}

	upload := &cobra.Command{
		Use:   "upload-receipt <expense-id> <file>",
		Short: "Attach a receipt file to an expense",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.admin()
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("open receipt: %w", err)
			}
			defer f.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()
			r, err := rt.Services.Expenses.UploadReceipt.MutateAsync(ctx, service.UploadReceiptInput{
				ExpenseID: args[0],
				FileName:  filepath.Base(args[1]),
				Content:   f,
			})
			if err != nil {
				return err
			}
			return c.done(r, "Uploaded %s to expense %s", r.Name, args[0])
		},
	}

	rmReceipt := &cobra.Command{
		Use:   "rm-receipt <expense-id> <receipt-id>",
		Short: "Remove a receipt from an expense",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.admin()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			in := service.DeleteReceiptInput{ExpenseID: args[0], ReceiptID: args[1]}
			if _, err := rt.Services.Expenses.DeleteReceipt.MutateAsync(ctx, in); err != nil {
				return err
			}
			return c.done(map[string]string{"removed": args[1]}, "Removed receipt %s", args[1])
		},
	}

	cmd.AddCommand(ls, create, rm, upload, rmReceipt)
	return cmd
}

func (c *cli) budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "budgets", Short: "Manage monthly budget allocations"}

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List budget allocations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.runtime()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			allocations, err := rt.Services.Budgets.Allocations(ctx).Result()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(allocations))
			for _, a := range allocations {
				rows = append(rows, []string{
					a.ID, a.Category, utils.FirstNonBlank(a.Manager, "-"),
					utils.FormatCurrency(a.Amount.InexactFloat64(), "USD"),
				})
			}
			return c.render(allocations, []string{"ID", "CATEGORY", "MANAGER", "AMOUNT"}, rows)
		},
	}

	var (
		id      string
		manager string
	)
	set := &cobra.Command{
		Use:   "set <category> <amount>",
		Short: "Create an allocation, or replace one with --id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := dto.MonthlyBudgetAllocationPayload{Category: args[0], Amount: args[1]}
			if manager != "" {
				p.Manager = &manager
			}
			rt, err := c.admin()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			if id != "" {
				a, err := rt.Services.Budgets.Update.MutateAsync(ctx, service.UpdateAllocationInput{ID: id, Payload: p})
				if err != nil {
					return err
				}
				return c.done(a, "Updated allocation %s", id)
			}
			newID, err := rt.Services.Budgets.Create.MutateAsync(ctx, p)
			if err != nil {
				return err
			}
			return c.done(map[string]string{"id": newID}, "Created allocation %s", newID)
		},
	}
	set.Flags().StringVar(&id, "id", "", "allocation to replace")
	set.Flags().StringVar(&manager, "manager", "", "who manages the budget")

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an allocation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.admin()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			if _, err := rt.Services.Budgets.Delete.MutateAsync(ctx, args[0]); err != nil {
				return err
			}
			return c.done(map[string]string{"removed": args[0]}, "Deleted allocation %s", args[0])
		},
	}

	summary := &cobra.Command{
		Use:   "summary",
		Short: "Compare this month's allocations with actual spending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.runtime()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			s, err := rt.Views.Budgets(ctx)
			if err != nil {
				return err
			}
			return c.renderBudgetSummary(s)
		},
	}

	cmd.AddCommand(ls, set, rm, summary)
	return cmd
}

func percent(p *decimal.Decimal) string {
	if p == nil {
		return utils.NotAvailable
	}
	return p.StringFixed(1) + "%"
}

func (c *cli) renderBudgetSummary(s aggregate.BudgetSummary) error {
	rows := make([][]string, 0, len(s.Rows)+1)
	for _, r := range s.Rows {
		rows = append(rows, []string{
			r.Category,
			utils.FormatCurrency(r.Budgeted.InexactFloat64(), "USD"),
			utils.FormatCurrency(r.Actual.InexactFloat64(), "USD"),
			utils.FormatCurrency(r.Variance.InexactFloat64(), "USD"),
			percent(r.VariancePercent),
			string(r.Tone),
		})
	}
	rows = append(rows, []string{
		"TOTAL",
		utils.FormatCurrency(s.Totals.Budgeted.InexactFloat64(), "USD"),
		utils.FormatCurrency(s.Totals.Actual.InexactFloat64(), "USD"),
		utils.FormatCurrency(s.Totals.Variance.InexactFloat64(), "USD"),
		percent(s.Totals.VariancePercent),
		string(s.Totals.Tone),
	})
	if err := c.render(s, []string{"CATEGORY", "BUDGETED", "ACTUAL", "VARIANCE", "%", "STATUS"}, rows); err != nil {
		return err
	}
	if c.output == outputJSON {
		return nil
	}
	for _, in := range s.Insights {
		fmt.Fprintf(c.out, "[%s] %s\n", in.Level, in.Message)
	}
	return nil
}

func (c *cli) categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "categories", Short: "Manage expense categories"}

	var description string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.admin()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			cat, err := rt.Services.Categories.Create.MutateAsync(ctx, dto.CategoryDTO{Name: args[0], Description: description})
			if err != nil {
				return err
			}
			return c.done(cat, "Created category %s", cat.Name)
		},
	}
	add.Flags().StringVar(&description, "description", "", "what the category covers")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "ls",
			Short: "List categories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				rt, err := c.runtime()
				if err != nil {
					return err
				}
				ctx, cancel := commandContext(cmd)
				defer cancel()
				cats, err := rt.Services.Categories.List(ctx).Result()
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(cats))
				for _, cat := range cats {
					rows = append(rows, []string{cat.Name, utils.FirstNonBlank(cat.Description, "-")})
				}
				return c.render(cats, []string{"NAME", "DESCRIPTION"}, rows)
			},
		},
		add,
		&cobra.Command{
			Use:   "rm <name>",
			Short: "Delete a category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				rt, err := c.admin()
				if err != nil {
					return err
				}
				ctx, cancel := commandContext(cmd)
				defer cancel()
				if _, err := rt.Services.Categories.Delete.MutateAsync(ctx, args[0]); err != nil {
					return err
				}
				return c.done(map[string]string{"removed": args[0]}, "Deleted category %s", args[0])
			},
		},
	)
	return cmd
}

func (c *cli) adminsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "admins", Short: "Manage dashboard administrators"}

	var name string
	add := &cobra.Command{
		Use:   "add <address>",
		Short: "Grant admin rights to an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.admin()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			a, err := rt.Services.Admins.Add.MutateAsync(ctx, dto.AdminCreatePayload{Name: name, Address: args[0]})
			if err != nil {
				return err
			}
			return c.done(a, "Added admin %s", a.Address)
		},
	}
	add.Flags().StringVar(&name, "name", "", "display name")
	_ = add.MarkFlagRequired("name")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "ls",
			Short: "List administrators",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				rt, err := c.admin()
				if err != nil {
					return err
				}
				ctx, cancel := commandContext(cmd)
				defer cancel()
				admins, err := rt.Services.Admins.List(ctx).Result()
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(admins))
				for _, a := range admins {
					rows = append(rows, []string{a.Address, a.Name})
				}
				return c.render(admins, []string{"ADDRESS", "NAME"}, rows)
			},
		},
		add,
		&cobra.Command{
			Use:   "rm <address>",
			Short: "Revoke admin rights",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				rt, err := c.admin()
				if err != nil {
					return err
				}
				ctx, cancel := commandContext(cmd)
				defer cancel()
				if _, err := rt.Services.Admins.Remove.MutateAsync(ctx, args[0]); err != nil {
					return err
				}
				return c.done(map[string]string{"removed": args[0]}, "Removed admin %s", args[0])
			},
		},
	)
	return cmd
}
