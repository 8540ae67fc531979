// Package mcp implements the Model Context Protocol (MCP) server for IBC-RAG.
//
// The server exposes four tools to MCP clients:
//   - process_document: Segment one document into chunks, optionally merged
//   - index_corpus: Process, embed and store a directory of documents
//   - search_documents: Search an indexed corpus
//   - get_status: Check indexing status and statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// # Basic Usage
//
// The server is started by the serve command:
//
//	ibcrag serve
//
// The caller builds the storage, processor, merger, indexer and searcher
// and hands them to NewServer through Deps:
//
//	srv := mcp.NewServer(mcp.Deps{
//	    Storage:   store,
//	    Processor: proc,
//	    Merger:    engine,
//	    Indexer:   idx,
//	    Searcher:  search,
//	})
//	if err := srv.Serve(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Tool: process_document
//
//	Request:
//	{
//	  "name": "process_document",
//	  "arguments": {
//	    "path": "/data/ibbi/circulars/ip-013.txt",
//	    "family": "circular",
//	    "merge": true
//	  }
//	}
//
// The response is the processed or merged record, encoded the same way as
// the files written by the export package.
//
// # Tool: search_documents
//
//	Request:
//	{
//	  "name": "search_documents",
//	  "arguments": {
//	    "path": "/data/ibbi",
//	    "query": "moratorium period",
//	    "limit": 10,
//	    "search_mode": "hybrid",
//	    "filters": {
//	      "families": ["circular"],
//	      "chunk_types": ["DIRECTIVE"],
//	      "min_relevance": 0.2
//	    }
//	  }
//	}
//
// # Error Codes
//
// Handlers return *MCPError values carrying a JSON-RPC code:
//
//	-32602  Invalid parameters
//	-32603  Internal error
//	-32002  Indexing already in progress
//	-32003  Corpus not indexed
//	-32004  Empty query
//	-32005  Document could not be segmented
package mcp
