package main

import (
	"fmt"

	"github.com/Veraticus/widgetflow/internal/classification"
	"github.com/Veraticus/widgetflow/internal/cli"
	"github.com/Veraticus/widgetflow/internal/config"
	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <message>",
		Short: "Classify a message without saving anything",
		Long: `Run the keyword classifier over a user message and optional assistant
reply and show the detected category. Nothing is written to the database.`,
		Args: cobra.ExactArgs(1),
		RunE: runClassify,
	}

	cmd.Flags().String("reply", "", "assistant reply to score together with the message")
	cmd.Flags().Bool("scores", false, "show every category's score")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	reply, _ := cmd.Flags().GetString("reply")
	showScores, _ := cmd.Flags().GetBool("scores")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	classifier, err := initClassifier(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	message := args[0]

	if !classification.PreCheck(message, reply) {
		_, err := fmt.Fprintln(out, cli.FormatInfo("Small talk, nothing to classify"))
		return err
	}

	if _, err := fmt.Fprintln(out, cli.RenderDetection(classifier.Classify(message, reply))); err != nil {
		return err
	}

	if showScores {
		if _, err := fmt.Fprintln(out, cli.RenderScores(classifier.Scores(message+"\n"+reply))); err != nil {
			return err
		}
	}
	return nil
}
