package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/kanak8278/IBC-RAG/internal/mcp"
	"github.com/kanak8278/IBC-RAG/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	log.Printf("ibcrag MCP server v%s starting...", version)
	log.Printf("Build Mode: %s, Driver: %s", storage.BuildMode, storage.DriverName)

	s, err := newStack("")
	if err != nil {
		return err
	}
	if err := s.openIndex(); err != nil {
		return err
	}
	defer s.Close()
	log.Printf("Database: %s, Embeddings: %s", s.cfg.Database.Path, s.embedder.Provider())

	server := mcp.NewServer(mcp.Deps{
		Storage:          s.store,
		Processor:        s.processor,
		Merger:           s.merger,
		Indexer:          s.indexer,
		Searcher:         s.searcher,
		ProcessorOptions: s.procOpts,
		Workers:          s.cfg.Indexer.Workers,
		Extensions:       s.cfg.Indexer.Extensions,
	})

	ctx := cmd.Context()
	errChan := make(chan error, 1)
	go func() {
		log.Println("MCP server ready, listening on stdio...")
		errChan <- server.Serve(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down gracefully...")
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	log.Println("Server stopped")
	return nil
}
