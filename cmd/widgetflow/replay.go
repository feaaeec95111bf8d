package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/widgetflow/internal/cli"
	"github.com/Veraticus/widgetflow/internal/config"
	"github.com/Veraticus/widgetflow/internal/engine"
	"github.com/Veraticus/widgetflow/internal/model"
	"github.com/spf13/cobra"
)

func replayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <transcript.jsonl>",
		Short: "Replay a recorded conversation and save every suggestion",
		Long: `Read a JSONL transcript, one turn per line:

  {"id": "t1", "owner_id": "u1", "user": "...", "assistant": "..."}

Every suggestion is accepted and saved within the owner's quota. Turns with
an id produce stable widget ids, so an interrupted replay can simply be
run again.`,
		Args: cobra.ExactArgs(1),
		RunE: runReplay,
	}

	cmd.Flags().Bool("no-progress", false, "disable the progress bar")

	return cmd
}

func runReplay(cmd *cobra.Command, args []string) error {
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	f, err := os.Open(config.ExpandPath(args[0]))
	if err != nil {
		return fmt.Errorf("failed to open transcript: %w", err)
	}
	defer func() { _ = f.Close() }()

	a, err := initApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("Failed to close resources", "error", err)
		}
	}()

	turns, err := readTranscript(f, ownerFor(a.cfg, ""))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	handler := cli.NewInterruptHandler(out, "Replay")
	ctx, stop := handler.HandleInterrupts(cmd.Context(), true)
	defer stop()

	var observe engine.ReplayObserver
	if !noProgress {
		bar := cli.NewProgressBar(out, len(turns), "[magenta][bold]Replaying turns...[reset]")
		observe = func(_ engine.Turn, _ *model.Suggestion, _ engine.ConfirmResult) {
			_ = bar.Add(1)
		}
	}

	stats, err := a.svc.Replay(ctx, turns, observe)
	if err != nil {
		if handler.WasInterrupted() {
			return nil
		}
		return err
	}

	_, err = fmt.Fprintln(out, cli.RenderBox("Replay complete", formatReplayStats(stats)))
	return err
}

// readTranscript parses one turn per line. Blank lines are skipped; a turn
// without an owner uses defaultOwner.
func readTranscript(r io.Reader, defaultOwner string) ([]engine.Turn, error) {
	var turns []engine.Turn

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var t engine.Turn
		if err := json.Unmarshal([]byte(text), &t); err != nil {
			return nil, fmt.Errorf("line %d: invalid turn: %w", line, err)
		}
		if t.OwnerID == "" {
			t.OwnerID = defaultOwner
		}
		if t.OwnerID == "" {
			return nil, fmt.Errorf("line %d: turn has no owner_id", line)
		}
		turns = append(turns, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	return turns, nil
}

func formatReplayStats(s engine.ReplayStats) string {
	return strings.Join([]string{
		fmt.Sprintf("Turns:       %d", s.Turns),
		fmt.Sprintf("Suggestions: %d", s.Suggested),
		fmt.Sprintf("Saved:       %d (%d widgets)", s.Saved, s.Widgets),
		fmt.Sprintf("Over quota:  %d", s.Rejected),
	}, "\n")
}
