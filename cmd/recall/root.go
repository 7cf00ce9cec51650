package main

import (
	"github.com/spf13/cobra"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "recall",
		Short:         "Local semantic memory search for your terminal",
		Long:          `Store short text memories, search them by meaning, and chat with an LLM grounded in what you saved.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")

	if a != nil {
		rootCmd.AddCommand(
			NewAddCmd(a),
			NewGetCmd(a),
			NewEditCmd(a),
			NewDelCmd(a),
			NewListCmd(a),
			NewSearchCmd(a),
			NewImportCmd(a),
			NewExportCmd(a),
			NewStatsCmd(a),
			NewChatCmd(a),
			NewReindexCmd(a),
			NewConfigCmd(a),
		)
	}

	return rootCmd
}
