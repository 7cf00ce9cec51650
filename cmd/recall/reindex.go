package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewReindexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Re-embed every memory with the active model",
		Long:  `Reindex recomputes the embedding of every stored memory. Run it after switching embedding models so stored vectors match the new model's dimensionality.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := a.openCoreRebuild(cmd.Context())
			if err != nil {
				return err
			}
			defer core.Close()

			n, err := core.Memories.Reindex(cmd.Context())
			if err != nil {
				return fmt.Errorf("reindexed %d memories: %w", n, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Reindexed %d memories\n", n)
			return nil
		},
	}
}
