package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func NewEditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a memory's content and/or tags",
		Long:  `Edit a stored memory. Changing the content re-embeds it, so search stays consistent with what is saved.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")

			var newContent *string
			if cmd.Flags().Changed("content") {
				c, _ := cmd.Flags().GetString("content")
				newContent = &c
			}

			var newTags []string
			if cmd.Flags().Changed("tags") {
				raw, _ := cmd.Flags().GetString("tags")
				newTags = parseTagsFlag(raw)
				if newTags == nil {
					newTags = []string{}
				}
			}

			core, err := a.openCore(cmd.Context())
			if err != nil {
				return err
			}
			defer core.Close()

			mem, err := core.Memories.Update(cmd.Context(), id, newContent, newTags)
			if err != nil {
				return err
			}

			if asJSON {
				return outputJSON(cmd, toMemoryJSON(mem, nil))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated memory #%d\n", mem.ID)
			return nil
		},
	}

	cmd.Flags().StringP("content", "c", "", "New content")
	cmd.Flags().StringP("tags", "t", "", "New comma-separated tags (empty clears)")
	return cmd
}
