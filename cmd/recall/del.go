package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func NewDelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"del", "rm"},
		Short:   "Delete a memory by id",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return err
			}

			core, err := a.openCore(cmd.Context())
			if err != nil {
				return err
			}
			defer core.Close()

			if err := core.Memories.Delete(cmd.Context(), id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted memory #%d\n", id)
			return nil
		},
	}
}
