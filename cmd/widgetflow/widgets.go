package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/widgetflow/internal/cli"
	"github.com/spf13/cobra"
)

func widgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "widgets",
		Short: "List and dismiss saved widgets",
	}

	cmd.AddCommand(widgetsListCmd())
	cmd.AddCommand(widgetsDeactivateCmd())

	return cmd
}

func widgetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active widgets and quota usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			owner := ownerFor(a.cfg, "")
			widgets, err := a.svc.ListWidgets(ctx, owner)
			if err != nil {
				return err
			}
			decision, err := a.svc.Status(ctx, owner)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n%s\n",
				cli.FormatTitle("Widgets for "+owner),
				cli.RenderWidgets(widgets),
				cli.RenderDecision(decision))
			return err
		},
	}
}

func widgetsDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "deactivate <widget-id>",
		Aliases: []string{"dismiss"},
		Short:   "Deactivate a widget, freeing a quota slot",
		Args:    cobra.ExactArgs(1),
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

			if err := a.svc.Deactivate(ctx, args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deactivated "+args[0]))
			return err
		},
	}
}
