package main

import (
	"errors"
	"path/filepath"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kanak8278/IBC-RAG/internal/storage"
	"github.com/kanak8278/IBC-RAG/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status <dir>",
	Short: "Show indexing status for a corpus",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	s, err := newStack("")
	if err != nil {
		return err
	}
	if err := s.openIndex(); err != nil {
		return err
	}
	defer s.Close()

	corpus, err := s.store.GetCorpus(cmd.Context(), root)
	if errors.Is(err, storage.ErrNotFound) {
		cmd.Printf("%s is not indexed.\n", root)
		return nil
	}
	if err != nil {
		return err
	}

	status, err := s.store.GetStatus(cmd.Context(), corpus.ID)
	if err != nil {
		return err
	}

	cmd.Printf("Corpus: %s\n", corpus.RootPath)
	if corpus.LastIndexedAt.IsZero() {
		cmd.Println("Last indexed: never")
	} else {
		cmd.Printf("Last indexed: %s\n", humanize.Time(corpus.LastIndexedAt))
	}
	cmd.Printf("Documents:  %s (%d amendments, %d failed)\n",
		humanize.Comma(int64(status.DocumentsCount)), status.AmendmentsCount, status.FailedCount)

	families := make([]types.DocumentFamily, 0, len(status.FamilyCounts))
	for f := range status.FamilyCounts {
		families = append(families, f)
	}
	slices.Sort(families)
	for _, f := range families {
		cmd.Printf("  %-13s %d\n", f, status.FamilyCounts[f])
	}

	cmd.Printf("Chunks:     %s\n", humanize.Comma(int64(status.ChunksCount)))
	cmd.Printf("Embeddings: %s\n", humanize.Comma(int64(status.EmbeddingsCount)))
	cmd.Printf("Index size: %s\n", humanize.Bytes(uint64(max(status.IndexSizeBytes, 0))))

	if run := status.LastRun; run != nil {
		cmd.Printf("Last run:   %s %s, %d/%d indexed, %d skipped, %d failed\n",
			run.ID, run.Status, run.Successful, run.Total, run.Skipped, run.Failed)
	}
	return nil
}
