package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/halcyon0/halcyon/internal/chat"
	"github.com/halcyon0/halcyon/internal/corpus"
	"github.com/halcyon0/halcyon/internal/llm"
)

var askCmd = &cobra.Command{
	Use:   "ask <username> <password> <question...>",
	Short: "Ask the assistant a question",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup()
		if err != nil {
			return err
		}
		defer app.close()

		sess, err := app.users.Verify(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		assistant, err := app.buildAssistant(cmd)
		if err != nil {
			return err
		}

		question := strings.Join(args[2:], " ")
		answer, err := assistant.Answer(cmd.Context(), sess, question)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}

var titleCmd = &cobra.Command{
	Use:   "title <message...>",
	Short: "Suggest a short title for a conversation's first message",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup()
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.cfg.RequireAPIKey(); err != nil {
			return err
		}

		assistant, err := chat.New(chat.Config{
			LLM:     llm.NewOpenAI(app.cfg.OpenAIAPIKey, app.cfg.ModelName),
			History: app.users,
			Logger:  app.logger,
		})
		if err != nil {
			return err
		}

		title, err := assistant.Title(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), title)
		return nil
	},
}

// buildAssistant wires the model, embedder and corpus index into a
// ready Assistant.
func (a *app) buildAssistant(cmd *cobra.Command) (*chat.Assistant, error) {
	if err := a.cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	indexer := corpus.NewIndexer(
		llm.NewOpenAIEmbedder(a.cfg.OpenAIAPIKey, a.cfg.EmbedderModel),
		a.logger,
	)
	indexer.SetChunking(a.cfg.ChunkSize, a.cfg.ChunkOverlap)

	retriever, err := indexer.Retriever(cmd.Context(), a.cfg.CorpusPDF, a.cfg.CorpusCSV, a.cfg.IndexDir)
	if err != nil {
		return nil, fmt.Errorf("preparing corpus index: %w", err)
	}

	return chat.New(chat.Config{
		LLM:          llm.NewOpenAI(a.cfg.OpenAIAPIKey, a.cfg.ModelName),
		Retriever:    retriever,
		History:      a.users,
		Logger:       a.logger,
		HistoryLimit: a.cfg.HistoryLimit,
		TopK:         a.cfg.TopK,
	})
}

func init() {
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(titleCmd)
}
