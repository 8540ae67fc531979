package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kanak8278/IBC-RAG/internal/searcher"
	"github.com/kanak8278/IBC-RAG/internal/storage"
	"github.com/kanak8278/IBC-RAG/pkg/types"
)

var (
	searchLimit        int
	searchMode         string
	searchFamilies     []string
	searchChunkTypes   []string
	searchNumber       string
	searchPathPattern  string
	searchMinRelevance float64
	searchJSON         bool
)

var searchCmd = &cobra.Command{
	Use:   "search <dir> <query>",
	Short: "Search an indexed corpus",
	Long: `Searches the chunks of an indexed corpus. The default hybrid mode fuses
semantic (vector) and keyword (BM25) rankings with reciprocal rank fusion.`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", searcher.DefaultLimit, "maximum number of results")
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", string(searcher.SearchModeHybrid), "search mode: hybrid, vector or keyword")
	searchCmd.Flags().StringSliceVar(&searchFamilies, "family", nil, "only these document families")
	searchCmd.Flags().StringSliceVar(&searchChunkTypes, "type", nil, "only these chunk types")
	searchCmd.Flags().StringVar(&searchNumber, "number", "", "exact document number")
	searchCmd.Flags().StringVar(&searchPathPattern, "path", "", "glob for document paths relative to the corpus")
	searchCmd.Flags().Float64Var(&searchMinRelevance, "min-relevance", 0, "minimum relevance score (0-1)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	mode, err := searcher.ParseMode(searchMode)
	if err != nil {
		return err
	}
	filters, err := searchFilters()
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
		return fmt.Errorf("%s is not indexed, run ibcrag index first", root)
	}
	if err != nil {
		return err
	}

	resp, err := s.searcher.Search(cmd.Context(), searcher.SearchRequest{
		Query:    args[1],
		Limit:    searchLimit,
		Mode:     mode,
		Filters:  filters,
		CorpusID: corpus.ID,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(resp.Results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	printResults(cmd, resp)
	return nil
}

func searchFilters() (*storage.SearchFilters, error) {
	filters := &storage.SearchFilters{
		DocumentNumber: searchNumber,
		PathPattern:    searchPathPattern,
		MinRelevance:   searchMinRelevance,
	}
	for _, name := range searchFamilies {
		f, err := types.ParseFamily(name)
		if err != nil {
			return nil, err
		}
		filters.Families = append(filters.Families, f)
	}
	for _, name := range searchChunkTypes {
		ct := types.ChunkType(name)
		if !ct.Valid() {
			return nil, fmt.Errorf("unknown chunk type %q", name)
		}
		filters.ChunkTypes = append(filters.ChunkTypes, ct)
	}
	return filters, nil
}

func printResults(cmd *cobra.Command, resp *searcher.SearchResponse) {
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Printf("%d results (%s, %v)\n\n", resp.TotalResults, resp.SearchMode, resp.Duration.Round(time.Millisecond))
	for _, r := range resp.Results {
		cmd.Printf("  [%d] %s %s (%.2f)\n", r.Rank, r.Document.Path, r.ChunkKey, r.RelevanceScore)
		if r.Document.DocumentNumber != "" {
			cmd.Printf("      %s %s\n", r.Document.DocumentNumber, r.Document.Date)
		}
		cmd.Printf("      %s\n\n", snippet(r.Content, 160))
	}
}

func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
