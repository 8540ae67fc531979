package main

import (
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kanak8278/IBC-RAG/internal/indexer"
	"github.com/kanak8278/IBC-RAG/internal/logger"
)

var (
	indexForce   bool
	indexWorkers int
	indexFamily  string
	indexOut     string
)

var indexCmd = &cobra.Command{
	Use:   "index <dir>",
	Short: "Index a directory of documents for search",
	Long: `Processes, merges and embeds every document under a directory and stores
the chunks in the SQLite index. Unchanged documents are skipped unless
--force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "re-index all documents ignoring content hashes")
	indexCmd.Flags().IntVarP(&indexWorkers, "workers", "w", 0, "documents processed concurrently (default from config)")
	indexCmd.Flags().StringVar(&indexFamily, "family", "", "force the document family (circular, notification, statute)")
	indexCmd.Flags().StringVarP(&indexOut, "out", "o", "", "also write merged records to this directory")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	s, err := newStack(indexFamily)
	if err != nil {
		return err
	}

	opts := []indexer.Option{indexer.WithObserver(func(res indexer.DocumentResult) {
		if res.Err != nil {
			logger.Warn("%s: %v", res.Path, res.Err)
			return
		}
		logger.Debug("%s %s: %d chunks, %d merged", res.Status, res.Path, res.Chunks, res.Merged)
	})}
	if indexOut != "" {
		w, err := s.writer(indexOut)
		if err != nil {
			return err
		}
		opts = append(opts, indexer.WithWriter(w))
	}

	if err := s.openIndex(opts...); err != nil {
		return err
	}
	defer s.Close()

	stats, err := s.indexer.IndexCorpus(cmd.Context(), root, s.indexConfig(indexWorkers, indexForce))
	if err != nil {
		return err
	}
	printStatistics(cmd, stats)
	return nil
}

func printStatistics(cmd *cobra.Command, stats *indexer.Statistics) {
	cmd.Printf("Indexed %s of %s documents in %v (run %s)\n",
		humanize.Comma(int64(stats.DocumentsIndexed)), humanize.Comma(int64(stats.DocumentsTotal)),
		stats.Duration.Round(time.Millisecond), stats.RunID)
	cmd.Printf("  Skipped:    %d\n", stats.DocumentsSkipped)
	cmd.Printf("  Failed:     %d\n", stats.DocumentsFailed)
	cmd.Printf("  Chunks:     %d (%d after merge)\n", stats.ChunksCreated, stats.MergedChunks)
	cmd.Printf("  Embeddings: %d\n", stats.EmbeddingsGenerated)
	if stats.Amendments+stats.RegularNotices > 0 {
		cmd.Printf("  Notifications: %d amendments, %d regular\n", stats.Amendments, stats.RegularNotices)
	}
	for _, msg := range stats.ErrorMessages {
		cmd.Printf("  ! %s\n", msg)
	}
}
