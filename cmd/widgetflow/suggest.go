package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/widgetflow/internal/cli"
	"github.com/Veraticus/widgetflow/internal/suggest"
	"github.com/spf13/cobra"
)

func suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest <message>",
		Short: "Suggest widgets for a chat turn and save them if you accept",
		Long: `Run one conversational turn through the suggestion pipeline. The proposed
widgets are shown first; nothing is saved unless you confirm.`,
		Args: cobra.ExactArgs(1),
		RunE: runSuggest,
	}

	cmd.Flags().String("reply", "", "assistant reply for the turn")
	cmd.Flags().BoolP("yes", "y", false, "save without asking")

	return cmd
}

func runSuggest(cmd *cobra.Command, args []string) error {
	reply, _ := cmd.Flags().GetString("reply")
	yes, _ := cmd.Flags().GetBool("yes")

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

	out := cmd.OutOrStdout()
	owner := ownerFor(a.cfg, "")

	turn := suggest.NewTurn(owner, args[0], reply)
	suggestion := a.svc.Suggest(ctx, turn)
	if _, err := fmt.Fprintln(out, cli.RenderSuggestion(suggestion)); err != nil {
		return err
	}
	if suggestion == nil {
		return nil
	}

	if !yes {
		reader := cli.NewNonBlockingReader(cmd.InOrStdin())
		ok, err := cli.Confirm(ctx, reader, out, "Save these widgets?")
		if err != nil {
			return err
		}
		if !ok {
			_, err := fmt.Fprintln(out, cli.FormatInfo("Dismissed, nothing saved"))
			return err
		}
	}

	result, err := a.svc.Confirm(ctx, owner, suggestion.Widgets)
	if err != nil {
		return err
	}
	if !result.Saved() {
		_, err := fmt.Fprintln(out, cli.RenderQuotaRejection(result.Decision))
		return err
	}

	_, err = fmt.Fprintf(out, "%s\n%s\n",
		cli.FormatSuccess(fmt.Sprintf("Saved %d widget(s)", len(result.Widgets))),
		cli.RenderDecision(result.Decision))
	return err
}
