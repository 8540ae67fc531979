package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kanak8278/IBC-RAG/internal/export"
	"github.com/kanak8278/IBC-RAG/internal/indexer"
	"github.com/kanak8278/IBC-RAG/internal/logger"
)

var (
	processMerge  bool
	processFamily string
	processOut    string
)

var processCmd = &cobra.Command{
	Use:   "process <file|dir>",
	Short: "Segment documents into JSON chunk records",
	Long: `Segments a document, or every document under a directory, and writes
one {metadata, chunks} record per document to <out>/<year>/<stem>.json.

With --merge the token-budgeted record is written as well, to
<out>/<year>/processed_<stem>.json.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

var mergeCmd = &cobra.Command{
	Use:   "merge <record.json>...",
	Short: "Merge processed records to the token budget",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMerge,
}

func init() {
	processCmd.Flags().BoolVar(&processMerge, "merge", false, "also write merged records")
	processCmd.Flags().StringVar(&processFamily, "family", "", "force the document family (circular, notification, statute)")
	processCmd.Flags().StringVarP(&processOut, "out", "o", "", "output directory (default from config)")
	mergeCmd.Flags().StringVarP(&processOut, "out", "o", "", "output directory (default from config)")
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(mergeCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	s, err := newStack(processFamily)
	if err != nil {
		return err
	}
	w, err := s.writer(processOut)
	if err != nil {
		return err
	}

	files, err := inputFiles(args[0], s.cfg.Indexer.Extensions)
	if err != nil {
		return err
	}

	var processed, failed, chunks, merged int
	for _, path := range files {
		doc, err := s.processor.ProcessFile(cmd.Context(), path)
		if err != nil {
			logger.Error("%s: %v", path, err)
			failed++
			continue
		}
		out, err := w.WriteProcessed(doc)
		if err != nil {
			return err
		}
		logger.Debug("wrote %s", out)
		processed++
		chunks += len(doc.Chunks)

		if processMerge {
			m := s.merger.Merge(doc.Chunks, doc.Metadata)
			if _, err := w.WriteMerged(&m); err != nil {
				return err
			}
			merged += len(m.MergedChunks)
		}
	}

	cmd.Printf("Processed %d of %d documents into %s\n", processed, len(files), w.Dir())
	cmd.Printf("  Chunks: %d\n", chunks)
	if processMerge {
		cmd.Printf("  Merged chunks: %d\n", merged)
	}
	if failed > 0 {
		return fmt.Errorf("%d documents failed", failed)
	}
	return nil
}

func runMerge(cmd *cobra.Command, args []string) error {
	s, err := newStack("")
	if err != nil {
		return err
	}
	w, err := s.writer(processOut)
	if err != nil {
		return err
	}

	for _, path := range args {
		doc, err := export.ReadProcessed(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		m := s.merger.Merge(doc.Chunks, doc.Metadata)
		out, err := w.WriteMerged(&m)
		if err != nil {
			return err
		}
		cmd.Printf("%s: %d -> %d chunks (%s)\n", filepath.Base(path),
			m.ProcessingInfo.OriginalChunkCount, m.ProcessingInfo.MergedChunkCount, out)
	}
	return nil
}

// inputFiles expands a directory argument into its documents
func inputFiles(path string, extensions []string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	return indexer.DiscoverFiles(path, extensions)
}
