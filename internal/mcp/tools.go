package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/kanak8278/IBC-RAG/internal/export"
	"github.com/kanak8278/IBC-RAG/internal/indexer"
	"github.com/kanak8278/IBC-RAG/internal/processor"
	"github.com/kanak8278/IBC-RAG/internal/searcher"
	"github.com/kanak8278/IBC-RAG/internal/storage"
	"github.com/kanak8278/IBC-RAG/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeNotIndexed         = -32003 // Corpus not indexed
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
	ErrorCodeInvalidDocument    = -32005 // Document could not be segmented
)

// maxReportedErrors caps the per-document errors returned by index_corpus
const maxReportedErrors = 5

// handleProcessDocument handles the process_document tool invocation
func (s *Server) handleProcessDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	path, err := requirePath(args, validateFile)
	if err != nil {
		return nil, err
	}

	merge, err := getBoolDefault(args, "merge", false)
	if err != nil {
		return nil, err
	}

	proc := s.deps.Processor
	if v := cast.ToString(args["family"]); v != "" {
		family, err := types.ParseFamily(v)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid family", map[string]any{
				"param":   "family",
				"value":   v,
				"allowed": familyEnum,
			})
		}
		opts := s.deps.ProcessorOptions
		opts.Family = family
		proc = processor.NewService(opts)
	}

	doc, err := proc.ProcessFile(ctx, path)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidDocument, "failed to process document", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
	}

	var record any = doc
	if merge {
		merged := s.deps.Merger.Merge(doc.Chunks, doc.Metadata)
		record = &merged
	}

	data, err := export.Encode(record)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to encode record", map[string]any{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleIndexCorpus handles the index_corpus tool invocation
func (s *Server) handleIndexCorpus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	path, err := requirePath(args, validateDirectory)
	if err != nil {
		return nil, err
	}

	force, err := getBoolDefault(args, "force_reindex", false)
	if err != nil {
		return nil, err
	}
	workers, err := getIntDefault(args, "workers", s.deps.Workers)
	if err != nil {
		return nil, err
	}

	stats, err := s.deps.Indexer.IndexCorpus(ctx, path, &indexer.Config{
		Workers:    workers,
		Extensions: s.deps.Extensions,
		Force:      force,
	})
	if errors.Is(err, indexer.ErrIndexInProgress) {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", map[string]any{
			"path": path,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]any{
			"error": err.Error(),
		})
	}
	s.deps.Searcher.InvalidateCache()

	response := map[string]any{
		"indexed":              true,
		"run_id":               stats.RunID,
		"documents_total":      stats.DocumentsTotal,
		"documents_indexed":    stats.DocumentsIndexed,
		"documents_skipped":    stats.DocumentsSkipped,
		"documents_failed":     stats.DocumentsFailed,
		"chunks_created":       stats.ChunksCreated,
		"merged_chunks":        stats.MergedChunks,
		"embeddings_generated": stats.EmbeddingsGenerated,
		"amendments":           stats.Amendments,
		"regular_notices":      stats.RegularNotices,
		"duration_ms":          stats.Duration.Milliseconds(),
	}

	if n := len(stats.ErrorMessages); n > 0 {
		response["errors"] = stats.ErrorMessages[:min(n, maxReportedErrors)]
		response["error_count"] = n
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchDocuments handles the search_documents tool invocation
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	path, err := requirePath(args, validateDirectory)
	if err != nil {
		return nil, err
	}

	query := cast.ToString(args["query"])
	if query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]any{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit, err := getIntDefault(args, "limit", searcher.DefaultLimit)
	if err != nil {
		return nil, err
	}
	if limit < 1 || limit > searcher.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]any{
			"param": "limit",
			"value": limit,
		})
	}

	mode, err := searcher.ParseMode(cast.ToString(args["search_mode"]))
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid search_mode", map[string]any{
			"param":   "search_mode",
			"value":   args["search_mode"],
			"allowed": []string{"hybrid", "vector", "keyword"},
		})
	}

	filters, err := parseFilters(args["filters"])
	if err != nil {
		return nil, err
	}

	corpus, err := s.deps.Storage.GetCorpus(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotIndexed, "corpus not indexed", map[string]any{
			"path": path,
			"hint": "use the index_corpus tool first",
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load corpus", map[string]any{
			"error": err.Error(),
		})
	}

	resp, err := s.deps.Searcher.Search(ctx, searcher.SearchRequest{
		Query:    query,
		Limit:    limit,
		Mode:     mode,
		Filters:  filters,
		CorpusID: corpus.ID,
		UseCache: true,
	})
	if err != nil {
		code := ErrorCodeInternalError
		if errors.Is(err, searcher.ErrNoEmbedder) {
			code = ErrorCodeInvalidParams
		}
		return nil, newMCPError(code, "search failed", map[string]any{
			"error": err.Error(),
		})
	}

	results := make([]map[string]any, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = map[string]any{
			"rank":            r.Rank,
			"chunk_key":       r.ChunkKey,
			"chunk_type":      r.ChunkType,
			"paragraphs":      r.Paragraphs,
			"relevance_score": r.RelevanceScore,
			"content":         r.Content,
			"document": map[string]any{
				"path":            r.Document.Path,
				"family":          r.Document.Family,
				"document_number": r.Document.DocumentNumber,
				"date":            r.Document.Date,
				"subject":         r.Document.Subject,
			},
		}
	}

	response := map[string]any{
		"query":          query,
		"search_mode":    resp.SearchMode,
		"total_results":  resp.TotalResults,
		"vector_results": resp.VectorResults,
		"text_results":   resp.TextResults,
		"cache_hit":      resp.CacheHit,
		"duration_ms":    resp.Duration.Milliseconds(),
		"results":        results,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	path, err := requirePath(args, validateDirectory)
	if err != nil {
		return nil, err
	}

	corpus, err := s.deps.Storage.GetCorpus(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		response := map[string]any{
			"indexed": false,
			"path":    path,
			"message": "Corpus not indexed. Use index_corpus tool to index this directory.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get corpus status", map[string]any{
			"error": err.Error(),
		})
	}

	status, err := s.deps.Storage.GetStatus(ctx, corpus.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]any{
			"error": err.Error(),
		})
	}

	families := make(map[string]int, len(status.FamilyCounts))
	for f, n := range status.FamilyCounts {
		families[string(f)] = n
	}

	response := map[string]any{
		"indexed": true,
		"corpus": map[string]any{
			"path":            corpus.RootPath,
			"index_version":   corpus.IndexVersion,
			"last_indexed_at": formatTime(corpus.LastIndexedAt),
			"last_indexed":    humanizeTime(corpus.LastIndexedAt),
		},
		"statistics": map[string]any{
			"documents_count":  status.DocumentsCount,
			"family_counts":    families,
			"amendments_count": status.AmendmentsCount,
			"failed_count":     status.FailedCount,
			"chunks_count":     status.ChunksCount,
			"embeddings_count": status.EmbeddingsCount,
			"index_size":       humanize.Bytes(uint64(max(status.IndexSizeBytes, 0))),
		},
		"health": map[string]any{
			"database_accessible":  status.Health.DatabaseAccessible,
			"embeddings_available": status.Health.EmbeddingsAvailable,
			"fts_indexes_built":    status.Health.FTSIndexesBuilt,
		},
	}

	if run := status.LastRun; run != nil {
		response["last_run"] = map[string]any{
			"id":          run.ID,
			"status":      run.Status,
			"total":       run.Total,
			"successful":  run.Successful,
			"failed":      run.Failed,
			"skipped":     run.Skipped,
			"chunks":      run.Chunks,
			"started_at":  formatTime(run.StartedAt),
			"duration_ms": run.Duration().Milliseconds(),
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data any) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    any
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func arguments(request mcp.CallToolRequest) (map[string]any, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	return args, nil
}

// requirePath extracts the path parameter and checks it with validate
func requirePath(args map[string]any, validate func(string) error) (string, error) {
	path := cast.ToString(args["path"])
	if path == "" {
		return "", newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]any{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validate(path); err != nil {
		return "", newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]any{
			"param":  "path",
			"reason": err.Error(),
		})
	}
	return filepath.Clean(path), nil
}

// parseFilters converts the filters object of search_documents
func parseFilters(v any) (*storage.SearchFilters, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, invalidParam("filters", v, err)
	}

	filters := &storage.SearchFilters{
		DocumentNumber: cast.ToString(raw["document_number"]),
		PathPattern:    cast.ToString(raw["path_pattern"]),
	}

	if v, ok := raw["families"]; ok {
		names, err := cast.ToStringSliceE(v)
		if err != nil {
			return nil, invalidParam("filters.families", v, err)
		}
		for _, name := range names {
			family, err := types.ParseFamily(name)
			if err != nil {
				return nil, invalidParam("filters.families", name, err)
			}
			filters.Families = append(filters.Families, family)
		}
	}

	if v, ok := raw["chunk_types"]; ok {
		names, err := cast.ToStringSliceE(v)
		if err != nil {
			return nil, invalidParam("filters.chunk_types", v, err)
		}
		for _, name := range names {
			ct := types.ChunkType(name)
			if !ct.Valid() {
				return nil, invalidParam("filters.chunk_types", name, fmt.Errorf("unknown chunk type"))
			}
			filters.ChunkTypes = append(filters.ChunkTypes, ct)
		}
	}

	if v, ok := raw["min_relevance"]; ok {
		minRelevance, err := cast.ToFloat64E(v)
		if err != nil || minRelevance < 0 || minRelevance > 1 {
			return nil, invalidParam("filters.min_relevance", v, errors.New("must be between 0 and 1"))
		}
		filters.MinRelevance = minRelevance
	}

	return filters, nil
}

func invalidParam(param string, value any, cause error) error {
	return newMCPError(ErrorCodeInvalidParams, "invalid "+param, map[string]any{
		"param":  param,
		"value":  value,
		"reason": cause.Error(),
	})
}

// validateDirectory checks that path is an absolute, readable directory
func validateDirectory(path string) error {
	info, err := statAbsolute(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()
	return nil
}

// validateFile checks that path is an absolute, regular file
func validateFile(path string) error {
	info, err := statAbsolute(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return ErrNotFile
	}
	return nil
}

func statAbsolute(path string) (os.FileInfo, error) {
	if !filepath.IsAbs(path) {
		return nil, ErrPathNotAbsolute
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, ErrPathNotFound
	}
	if err != nil {
		return nil, ErrPathNotReadable
	}
	return info, nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]any) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func humanizeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]any, key string, defaultValue bool) (bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return defaultValue, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, invalidParam(key, v, err)
	}
	return b, nil
}

// getIntDefault extracts an integer parameter with a default value.
// JSON numbers arrive as float64.
func getIntDefault(args map[string]any, key string, defaultValue int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return defaultValue, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, invalidParam(key, v, err)
	}
	return n, nil
}

// Validation errors
var (
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
	ErrNotFile         = errors.New("path is not a file")
)
