package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/widgetflow/internal/cli"
	"github.com/Veraticus/widgetflow/internal/tier"
	"github.com/spf13/cobra"
)

func tierCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tier",
		Short: "Show or change an owner's subscription tier",
	}

	cmd.AddCommand(tierGetCmd())
	cmd.AddCommand(tierSetCmd())

	return cmd
}

func tierGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [owner]",
		Short: "Show the tier applied to an owner",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					slog.Warn("Failed to close resources", "error", err)
				}
			}()

			owner := ownerFor(a.cfg, firstArg(args))
			t, err := a.tiers.GetTier(ctx, owner)
			if err != nil {
				return err
			}
			_, limit := a.cfg.Quota.Limit(t)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cli.StyleBold(owner), formatTier(string(t), limit))
			return err
		},
	}
}

func tierSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <tier> [owner]",
		Short: "Record an owner's tier",
		Long: `Record an owner's tier in the database, or in the Redis tier hash
when --redis is given.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			useRedis, _ := cmd.Flags().GetBool("redis")

			ctx := cmd.Context()
			a, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					slog.Warn("Failed to close resources", "error", err)
				}
			}()

			t, err := parseTier(a.cfg, args[0])
			if err != nil {
				return err
			}
			owner := ownerFor(a.cfg, firstArg(args[1:]))

			if useRedis {
				if !a.cfg.Redis.Enabled() {
					return fmt.Errorf("redis.url is not configured")
				}
				client, err := tier.ConnectRedis(a.cfg.Redis.URL)
				if err != nil {
					return err
				}
				defer func() { _ = client.Close() }()
				if err := tier.NewRedisResolver(client, a.cfg.Redis.Prefix).SetTier(ctx, owner, t); err != nil {
					return err
				}
			} else if err := a.store.SetTier(ctx, owner, t); err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s is now on %s", owner, t)))
			return err
		},
	}

	cmd.Flags().Bool("redis", false, "write to the Redis tier hash instead of the database")

	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func formatTier(name string, limit int) string {
	if limit < 0 {
		return fmt.Sprintf("%s (unlimited widgets)", name)
	}
	return fmt.Sprintf("%s (%d widgets)", name, limit)
}
