package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List memories, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			tagsFlag, _ := cmd.Flags().GetString("tags")
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")
			asJSON, _ := cmd.Flags().GetBool("json")

			core, err := a.openCore(cmd.Context())
			if err != nil {
				return err
			}
			defer core.Close()

			memories, err := core.Memories.List(cmd.Context(), parseTagsFlag(tagsFlag), limit, offset)
			if err != nil {
				return err
			}

			if asJSON {
				out := make([]memoryJSON, 0, len(memories))
				for _, mem := range memories {
					out = append(out, toMemoryJSON(mem, nil))
				}
				return outputJSON(cmd, out)
			}

			if len(memories) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No memories found.")
				return nil
			}
			for _, mem := range memories {
				printMemoryLine(cmd, mem)
			}
			return nil
		},
	}

	cmd.Flags().StringP("tags", "t", "", "Only memories carrying at least one of these tags")
	cmd.Flags().IntP("limit", "n", 50, "Maximum number of memories to show")
	cmd.Flags().Int("offset", 0, "Skip this many memories")
	return cmd
}
