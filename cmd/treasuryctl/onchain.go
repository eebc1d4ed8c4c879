package main

import (
	"errors"
	"strconv"

	"treasury_dashboard/internal/app/service"
	"treasury_dashboard/internal/pkg/utils"

	"github.com/spf13/cobra"
)

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (c *cli) verifyCmd() *cobra.Command {
	var (
		chainID   uint64
		transfers int
	)
	cmd := &cobra.Command{
		Use:   "verify [tx-hash...]",
		Short: "Check transaction hashes against the chain's RPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.runtime()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			hashes := args
			if len(hashes) == 0 && transfers > 0 {
				records, err := rt.Services.Transfers.List(ctx, service.NewPage(transfers, 0)).Result()
				if err != nil {
					return err
				}
				for _, r := range records {
					if r.TxHash != "" {
						hashes = append(hashes, r.TxHash)
					}
				}
			}
			if len(hashes) == 0 {
				return errors.New("nothing to verify: pass hashes or --transfers N")
			}

			chain, err := rt.Chains.GetClient(ctx, chainID)
			if err != nil {
				return err
			}
			checks, err := chain.VerifyTransactions(ctx, hashes)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(checks))
			for _, ch := range checks {
				rows = append(rows, []string{
					ch.Hash, yesNo(ch.Found), yesNo(ch.Success),
					strconv.FormatUint(ch.BlockNumber, 10),
					strconv.FormatUint(ch.Confirmations, 10),
					utils.FirstNonBlank(ch.Error, "-"),
				})
			}
			return c.render(checks, []string{"HASH", "FOUND", "SUCCESS", "BLOCK", "CONFIRMATIONS", "ERROR"}, rows)
		},
	}
	cmd.Flags().Uint64Var(&chainID, "chain-id", 0, "chain to query (default: the configured default chain)")
	cmd.Flags().IntVar(&transfers, "transfers", 0, "verify the latest N transfers reported by the backend")
	return cmd
}

func (c *cli) walletBalancesCmd() *cobra.Command {
	var chainID uint64
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Read each treasury wallet's native balance from the chain",
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
			addresses := make([]string, 0, len(wallets))
			for _, w := range wallets {
				addresses = append(addresses, w.Address)
			}
			chain, err := rt.Chains.GetClient(ctx, chainID)
			if err != nil {
				return err
			}
			balances, err := chain.NativeBalances(ctx, addresses)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(balances))
			for _, b := range balances {
				rows = append(rows, []string{
					b.Address,
					utils.FirstNonBlank(b.Formatted, utils.NotAvailable) + " " + b.Symbol,
					utils.FirstNonBlank(b.Error, "-"),
				})
			}
			return c.render(balances, []string{"ADDRESS", "BALANCE", "ERROR"}, rows)
		},
	}
	cmd.Flags().Uint64Var(&chainID, "chain-id", 0, "chain to query (default: the configured default chain)")
	return cmd
}
