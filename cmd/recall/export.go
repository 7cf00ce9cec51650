package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

type exportRecord struct {
	ID        int64    `json:"id"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at"`
}

func NewExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all memories as JSON",
		Long:  `Export writes every memory as a JSON array, oldest first. The output feeds straight back into 'recall import'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outPath, _ := cmd.Flags().GetString("output")

			core, err := a.openCore(cmd.Context())
			if err != nil {
				return err
			}
			defer core.Close()

			memories, err := core.Memories.ExportAll(cmd.Context())
			if err != nil {
				return err
			}

			records := make([]exportRecord, 0, len(memories))
			for _, mem := range memories {
				records = append(records, exportRecord{
					ID:        mem.ID,
					Content:   mem.Content,
					Tags:      mem.Tags,
					CreatedAt: mem.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
				})
			}

			out := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}

	cmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")
	return cmd
}
