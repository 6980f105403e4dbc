package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halcyon0/halcyon/internal/corpus"
	"github.com/halcyon0/halcyon/internal/llm"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or load the corpus index",
	Long: `Builds the retrieval index from the configured corpus sources and
persists it under the index directory. When a persisted index already
exists it is loaded instead, so running index twice is cheap.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup()
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.cfg.RequireAPIKey(); err != nil {
			return err
		}
		if err := app.cfg.RequireCorpus(); err != nil {
			return err
		}

		indexer := corpus.NewIndexer(
			llm.NewOpenAIEmbedder(app.cfg.OpenAIAPIKey, app.cfg.EmbedderModel),
			app.logger,
		)
		indexer.SetChunking(app.cfg.ChunkSize, app.cfg.ChunkOverlap)

		index, err := indexer.Retriever(cmd.Context(), app.cfg.CorpusPDF, app.cfg.CorpusCSV, app.cfg.IndexDir)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "index ready: %d documents in %s\n", index.Len(), app.cfg.IndexDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
