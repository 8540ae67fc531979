package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kanak8278/IBC-RAG/pkg/types"
)

var familyEnum = []string{
	string(types.FamilyCircular),
	string(types.FamilyNotification),
	string(types.FamilyStatute),
}

var chunkTypeEnum = []string{
	string(types.ChunkPreamble),
	string(types.ChunkRule),
	string(types.ChunkSubRule),
	string(types.ChunkDirective),
	string(types.ChunkContext),
	string(types.ChunkClosing),
	string(types.ChunkPowerCitation),
	string(types.ChunkChapter),
	string(types.ChunkDefinition),
	string(types.ChunkRegulation),
}

// processDocumentTool returns the tool definition for process_document
func processDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "process_document",
		Description: "Segment one legal document (IBBI circular, MCA gazette notification or statute) into typed, cross-referenced chunks",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Absolute path to a text rendering of the document",
				},
				"family": map[string]any{
					"type":        "string",
					"description": "Document family. Detected from the text when omitted",
					"enum":        familyEnum,
				},
				"merge": map[string]any{
					"type":        "boolean",
					"description": "If true, return the token-budgeted merged chunks instead of the raw segmentation",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// indexCorpusTool returns the tool definition for index_corpus
func indexCorpusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_corpus",
		Description: "Process, merge, embed and store every document under a directory so it can be searched",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Absolute path to the corpus directory",
				},
				"force_reindex": map[string]any{
					"type":        "boolean",
					"description": "If true, re-index all documents ignoring content hashes",
					"default":     false,
				},
				"workers": map[string]any{
					"type":        "integer",
					"description": "Number of documents processed concurrently",
					"minimum":     1,
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchDocumentsTool returns the tool definition for search_documents
func searchDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_documents",
		Description: "Search an indexed corpus of legal documents with natural language or keyword queries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Absolute path to an indexed corpus directory",
				},
				"query": map[string]any{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"filters": map[string]any{
					"type":        "object",
					"description": "Optional filters to narrow search",
					"properties": map[string]any{
						"families": map[string]any{
							"type":        "array",
							"description": "Filter by document family",
							"items": map[string]any{
								"type": "string",
								"enum": familyEnum,
							},
						},
						"chunk_types": map[string]any{
							"type":        "array",
							"description": "Filter by chunk type",
							"items": map[string]any{
								"type": "string",
								"enum": chunkTypeEnum,
							},
						},
						"document_number": map[string]any{
							"type":        "string",
							"description": "Exact document number, e.g. 'IBBI/CIRP/61/2023' or '123'",
						},
						"path_pattern": map[string]any{
							"type":        "string",
							"description": "Glob pattern for document paths relative to the corpus (e.g., 'gazette/*')",
						},
						"min_relevance": map[string]any{
							"type":        "number",
							"description": "Minimum relevance score threshold (0.0-1.0)",
							"minimum":     0.0,
							"maximum":     1.0,
						},
					},
				},
				"search_mode": map[string]any{
					"type":        "string",
					"description": "Search strategy: hybrid (vector + keyword), vector (semantic only), or keyword (BM25 only)",
					"enum":        []string{"hybrid", "vector", "keyword"},
					"default":     "hybrid",
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query indexing status and statistics for a corpus",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Absolute path to the corpus directory",
				},
			},
			Required: []string{"path"},
		},
	}
}
