package main

import (
	"errors"
	"fmt"
	"strings"

	"treasury_dashboard/internal/infrastructure/signer"
	"treasury_dashboard/internal/pkg/utils"

	"github.com/spf13/cobra"
)

func (c *cli) loadSigner() (*signer.KeySigner, error) {
	if c.keyPath != "" {
		return signer.FromFile(c.keyPath)
	}
	if hexKey := utils.GetEnv("TREASURY_ADMIN_KEY", ""); hexKey != "" {
		return signer.FromHex(hexKey)
	}
	return nil, errors.New("no admin key: pass --key or set TREASURY_ADMIN_KEY")
}

func (c *cli) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign the backend's challenge with the admin key and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.loadSigner()
			if err != nil {
				return err
			}
			rt, err := c.runtime()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			if _, err := rt.Services.Auth.SignIn(ctx, s); err != nil {
				return fmt.Errorf("sign in as %s: %w", s.Address(), err)
			}
			return c.done(rt.Auth.State().Admin, "Signed in as %s", s.Address())
		},
	}
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			rt, err := c.runtime()
			if err != nil {
				return err
			}
			if err := rt.Services.Auth.Logout(); err != nil {
				return fmt.Errorf("clear session: %w", err)
			}
			return c.done(map[string]bool{"authenticated": false}, "Signed out")
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in admin",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			rt, err := c.runtime()
			if err != nil {
				return err
			}
			st := rt.Auth.State()
			if !st.IsAuthenticated || st.Admin == nil {
				return c.done(map[string]bool{"authenticated": false}, "Not signed in")
			}
			name := utils.FirstNonBlank(st.Admin.Name, "-")
			roles := utils.FirstNonBlank(strings.Join(st.Admin.Roles, ","), "-")
			return c.render(st.Admin, []string{"ADDRESS", "NAME", "ROLES"},
				[][]string{{st.Admin.Address, name, roles}})
		},
	}
}
