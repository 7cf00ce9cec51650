package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func NewAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Add a new memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tagsFlag, _ := cmd.Flags().GetString("tags")
			asJSON, _ := cmd.Flags().GetBool("json")

			core, err := a.openCore(cmd.Context())
			if err != nil {
				return err
			}
			defer core.Close()

			mem, err := core.Memories.Create(cmd.Context(), args[0], parseTagsFlag(tagsFlag))
			if err != nil {
				return err
			}

			if asJSON {
				return outputJSON(cmd, toMemoryJSON(mem, nil))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added memory #%d\n", mem.ID)
			if len(mem.Tags) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "  tags: %s\n", strings.Join(mem.Tags, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringP("tags", "t", "", "Comma-separated tags")
	return cmd
}
