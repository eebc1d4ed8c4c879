package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"treasury_dashboard/internal/app/bootstrap"
	"treasury_dashboard/internal/app/store"
	"treasury_dashboard/internal/config"
	"treasury_dashboard/internal/pkg/logger"
	"treasury_dashboard/internal/pkg/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// cli carries the persistent flags and the lazily built runtime.
type cli struct {
	cfgPath string
	keyPath string
	output  string
	verbose bool

	out        io.Writer
	loadConfig func(path string) (*config.Config, error)
	rt         *bootstrap.Runtime
}

func newRootCmdWith(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "treasuryctl",
		Short:         "Administer the treasury transparency dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if c.output != outputTable && c.output != outputJSON {
				return fmt.Errorf("unknown output format %q", c.output)
			}
			return nil
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgPath, "config", utils.GetEnv("TREASURY_CONFIG", ""), "path to the YAML config document")
	flags.StringVar(&c.keyPath, "key", utils.GetEnv("TREASURY_ADMIN_KEY_FILE", ""), "file holding the admin's hex private key")
	flags.StringVarP(&c.output, "output", "o", outputTable, "output format: table or json")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log requests and cache activity")

	root.AddCommand(
		c.loginCmd(), c.logoutCmd(), c.whoamiCmd(),
		c.walletsCmd(), c.assetsCmd(), c.expensesCmd(),
		c.budgetsCmd(), c.categoriesCmd(), c.adminsCmd(),
		c.auditCmd(), c.runwayCmd(), c.verifyCmd(),
	)
	return root
}

// runtime builds the client stack on first use so that --help never touches config.
func (c *cli) runtime() (*bootstrap.Runtime, error) {
	if c.rt != nil {
		return c.rt, nil
	}
	cfg, err := c.loadConfig(c.cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	level := cfg.Logging.Level
	if c.verbose {
		level = "debug"
	} else if level == "" || level == "info" {
		level = "warn"
	}
	zl, err := logger.NewConsole(level)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	logger.InstallSlogLevel(zl, logger.SlogLevel(zl.Level()))

	rt, err := bootstrap.Build(cfg, zl, bootstrap.Options{
		OnToast: func(t store.Toast) {
			zl.Warn(t.Title, zap.String("detail", t.Description))
		},
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("Runtime ready", "apiBaseUrl", cfg.APIBaseURL, "authenticated", rt.Auth.IsAuthenticated())
	c.rt = rt
	return rt, nil
}

// admin returns the runtime after checking a session exists.
func (c *cli) admin() (*bootstrap.Runtime, error) {
	rt, err := c.runtime()
	if err != nil {
		return nil, err
	}
	if _, err := rt.Auth.RequireToken(); err != nil {
		return nil, fmt.Errorf("%w: run `treasuryctl login` first", err)
	}
	return rt, nil
}

func (c *cli) close() {
	if c.rt == nil {
		return
	}
	c.rt.Close()
	_ = c.rt.Logger.Sync()
	c.rt = nil
}

// commandContext cancels on SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
