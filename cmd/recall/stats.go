package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func NewStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			core, err := a.openCore(cmd.Context())
			if err != nil {
				return err
			}
			defer core.Close()

			count, err := core.Memories.Count(cmd.Context())
			if err != nil {
				return err
			}

			var dbSize int64
			if info, err := os.Stat(a.cfg.DBPath); err == nil {
				dbSize = info.Size()
			}

			if asJSON {
				return outputJSON(cmd, map[string]any{
					"memories":      count,
					"indexed":       core.Index.Len(),
					"dimension":     core.Embedder.Dimension(),
					"db_path":       a.cfg.DBPath,
					"db_size_bytes": dbSize,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "memories:  %d\n", count)
			fmt.Fprintf(out, "indexed:   %d\n", core.Index.Len())
			fmt.Fprintf(out, "dimension: %d\n", core.Embedder.Dimension())
			fmt.Fprintf(out, "db:        %s (%d bytes)\n", a.cfg.DBPath, dbSize)
			return nil
		},
	}
}
