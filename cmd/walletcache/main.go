// Command walletcache provisions and inspects the cached MetaMask profiles
// used by the e2e suite.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"marketplace-e2e/internal/application/port/output"
	"marketplace-e2e/internal/di"
	"marketplace-e2e/internal/domain/entity"
	"marketplace-e2e/internal/infrastructure/env"
)

const defaultProvisionTimeout = 10 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{env: env.NewEnvService()}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app owns the container built for the command being run.
type app struct {
	env       output.ConfigPort
	container *di.Container
}

func (a *app) close() {
	if a.container != nil {
		a.container.Close()
		a.container = nil
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "walletcache",
		Short:         "Manage onboarded MetaMask profiles for the e2e suite",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := di.NewContainer(a.env)
			if err != nil {
				return err
			}
			a.container = c
			return nil
		},
	}

	get := func() *di.Container { return a.container }
	root.AddCommand(
		newProvisionCmd(get),
		newStatusCmd(get),
		newInvalidateCmd(get),
		newListCmd(get),
	)
	return root
}

func newProvisionCmd(container func() *di.Container) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Build the wallet profile for the current configuration unless it is cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			profile, err := container().EnsureWalletCache(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wallet cache ready: %s\n", profile.Dir)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", defaultProvisionTimeout, "give up provisioning after this long")
	return cmd
}

func newStatusCmd(container func() *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the setup hash of the current configuration and whether it is cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := container()
			key := c.Config.Wallet.Hash()
			ok, err := c.Store.Exists(key)
			if err != nil {
				return err
			}
			state := "miss"
			if ok {
				state = "hit"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config: %s\n", c.Config.Wallet)
			fmt.Fprintf(out, "hash:   %s\n", key)
			fmt.Fprintf(out, "path:   %s\n", c.Store.Path(key))
			fmt.Fprintf(out, "cache:  %s\n", state)
			return nil
		},
	}
}

func newInvalidateCmd(container func() *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate [hash...]",
		Short: "Remove cached profiles, by default the one of the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := container()
			keys := args
			if len(keys) == 0 {
				keys = []string{c.Config.Wallet.Hash()}
			}
			for _, key := range keys {
				if err := c.Store.Invalidate(key); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "invalidated %s\n", key)
			}
			return nil
		},
	}
}

func newListCmd(container func() *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := container()
			profiles, err := c.Store.List()
			if err != nil {
				return err
			}
			return printProfiles(cmd.OutOrStdout(), c.Config.Wallet.Hash(), profiles)
		},
	}
}

func printProfiles(w io.Writer, current string, profiles []entity.CachedProfile) error {
	if len(profiles) == 0 {
		_, err := fmt.Fprintln(w, "no cached profiles")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HASH\tCREATED\tPATH\t")
	for _, p := range profiles {
		marker := ""
		if p.Key == current {
			marker = "(current)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Key, p.CreatedAt.Local().Format(time.DateTime), p.Dir, marker)
	}
	return tw.Flush()
}
