package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/4thel00z/recall/internal"
	"github.com/spf13/cobra"
)

type memoryJSON struct {
	ID        int64    `json:"id"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at,omitempty"`
	Score     *float64 `json:"score,omitempty"`
}

func toMemoryJSON(mem *internal.Memory, score *float64) memoryJSON {
	return memoryJSON{
		ID:        mem.ID,
		Content:   mem.Content,
		Tags:      mem.Tags,
		CreatedAt: mem.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: mem.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Score:     score,
	}
}

func outputJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printMemory(cmd *cobra.Command, mem *internal.Memory) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "#%d  %s\n", mem.ID, mem.CreatedAt.Local().Format("2006-01-02 15:04"))
	if len(mem.Tags) > 0 {
		fmt.Fprintf(out, "tags: %s\n", strings.Join(mem.Tags, ", "))
	}
	fmt.Fprintln(out, mem.Content)
}

func printMemoryLine(cmd *cobra.Command, mem *internal.Memory) {
	content := mem.Content
	if len(content) > 60 {
		content = content[:57] + "..."
	}
	tags := "-"
	if len(mem.Tags) > 0 {
		tags = strings.Join(mem.Tags, ",")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%-6d %-60s %-20s %s\n",
		mem.ID, content, tags, mem.CreatedAt.Local().Format("2006-01-02 15:04"))
}

func parseTagsFlag(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
