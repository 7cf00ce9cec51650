package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func NewGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a memory by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")

			core, err := a.openCore(cmd.Context())
			if err != nil {
				return err
			}
			defer core.Close()

			mem, err := core.Memories.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			if asJSON {
				return outputJSON(cmd, toMemoryJSON(mem, nil))
			}
			printMemory(cmd, mem)
			return nil
		},
	}
}
