package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/4thel00z/recall/internal"
	"github.com/spf13/cobra"
)

func NewImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import memories from a JSON export",
		Long:  `Import reads a JSON array of memories, embeds each one and stores it under a fresh id. Pass '-' to read from stdin.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			var records []exportRecord
			if err := json.NewDecoder(in).Decode(&records); err != nil {
				return fmt.Errorf("parse import file: %w", err)
			}

			items := make([]internal.ImportItem, 0, len(records))
			for _, rec := range records {
				items = append(items, internal.ImportItem{
					Content: rec.Content,
					Tags:    rec.Tags,
				})
			}

			core, err := a.openCore(cmd.Context())
			if err != nil {
				return err
			}
			defer core.Close()

			imported, err := core.Memories.ImportBatch(cmd.Context(), items)
			if err != nil {
				return fmt.Errorf("imported %d of %d: %w", len(imported), len(items), err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d memories\n", len(imported))
			return nil
		},
	}
}
