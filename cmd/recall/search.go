package main

import (
	"fmt"

	"github.com/4thel00z/recall/internal"
	"github.com/spf13/cobra"
)

func NewSearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search memories by meaning",
		Long:  `Search ranks stored memories by semantic similarity to the query, not by keyword overlap. Results are ordered best match first.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tagsFlag, _ := cmd.Flags().GetString("tags")
			limit, _ := cmd.Flags().GetInt("limit")
			minScore, _ := cmd.Flags().GetFloat64("min-score")
			asJSON, _ := cmd.Flags().GetBool("json")

			if !cmd.Flags().Changed("limit") && a.cfg.SearchLimit > 0 {
				limit = a.cfg.SearchLimit
			}
			if !cmd.Flags().Changed("min-score") {
				minScore = a.cfg.MinScore
			}

			core, err := a.openCore(cmd.Context())
			if err != nil {
				return err
			}
			defer core.Close()

			results, err := core.Retrieval.Search(cmd.Context(), args[0], limit, parseTagsFlag(tagsFlag))
			if err != nil {
				return err
			}
			if minScore > 0 {
				results = internal.FilterMinScore(results, minScore)
			}

			if asJSON {
				out := make([]memoryJSON, 0, len(results))
				for _, res := range results {
					score := res.Score
					out = append(out, toMemoryJSON(res.Memory, &score))
				}
				return outputJSON(cmd, out)
			}

			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
				return nil
			}
			for _, res := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%.3f  ", res.Score)
				printMemoryLine(cmd, res.Memory)
			}
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringP("tags", "t", "", "Only search memories carrying at least one of these tags")
	cmd.Flags().Float64("min-score", 0, "Drop results scoring below this similarity")
	return cmd
}
