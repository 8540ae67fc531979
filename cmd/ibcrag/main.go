package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kanak8278/IBC-RAG/internal/logger"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ibcrag",
	Short: "Segment, index and search Indian insolvency law documents",
	Long: `ibcrag turns IBBI circulars, MCA gazette notifications and statutes into
structure-aligned, cross-referenced chunks sized for retrieval.

It can write the chunks as JSON records, index them into SQLite with
embeddings, search the index, and serve all of this over MCP.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.ibcrag/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	// stdout is reserved for command output and the MCP protocol
	log.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
