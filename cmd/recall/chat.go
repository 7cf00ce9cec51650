package main

import (
	"fmt"
	"os"

	"github.com/4thel00z/recall/internal"
	"github.com/spf13/cobra"
)

const (
	chatMinScore        = 0.2
	chatMaxContextChars = 4000
)

func NewChatCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <question>",
		Short: "Ask a question answered from your memories",
		Long:  `Chat retrieves the memories most relevant to the question and asks the configured language model to answer from them.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := args[0]
			limit, _ := cmd.Flags().GetInt("limit")
			noStream, _ := cmd.Flags().GetBool("no-stream")

			chatCfg := a.cfg.Chat
			if chatCfg.APIKey == "" {
				chatCfg.APIKey = apiKeyFromEnv(chatCfg.Provider)
			}
			if chatCfg.APIKey == "" {
				return fmt.Errorf("no API key configured: set chat.api_key in %s or the provider's environment variable", internal.ConfigPath())
			}

			core, err := a.openCore(cmd.Context())
			if err != nil {
				return err
			}
			defer core.Close()

			block, err := core.Retrieval.AssembleContext(cmd.Context(), question, limit, chatMaxContextChars, chatMinScore)
			if err != nil {
				return err
			}

			prompt := buildChatPrompt(question, block)

			provider, err := internal.NewFantasyProvider(cmd.Context(), chatCfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if noStream {
				answer, err := provider.Complete(cmd.Context(), prompt)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, answer)
				return nil
			}

			ch, err := provider.Stream(cmd.Context(), prompt)
			if err != nil {
				return err
			}
			for chunk := range ch {
				fmt.Fprint(out, chunk)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 5, "Maximum number of memories to retrieve")
	cmd.Flags().Bool("no-stream", false, "Wait for the full answer instead of streaming")
	return cmd
}

func apiKeyFromEnv(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return os.Getenv("ANTHROPIC_API_KEY")
	}
}

// buildChatPrompt composes the assembled memory block and the question into a
// single prompt. An empty block means nothing scored above the floor; the
// model is told so instead of being handed an empty context.
func buildChatPrompt(question, block string) string {
	if block == "" {
		return fmt.Sprintf(`You are a helpful assistant. The user asked a question but no relevant memories were found in their knowledge base.

No relevant memories were found for this question.

Question: %s

Please let the user know that no matching memories were found and suggest they add relevant information using `+"`recall add`"+`.`, question)
	}

	return fmt.Sprintf(`You are a helpful assistant that answers questions based on the user's stored memories. Use the provided memories to give accurate, relevant answers. If the memories don't contain enough information to fully answer the question, say so and provide what information you can.

Here are relevant memories from the user's knowledge base:

%s

---

Based on these memories, please answer the following question:
%s`, block, question)
}
