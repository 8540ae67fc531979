package main

import (
	"log"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kanak8278/IBC-RAG/internal/indexer"
)

var (
	watchDebounce  time.Duration
	watchNoInitial bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Keep a corpus index in sync with its directory",
	Long: `Indexes a directory, then re-indexes documents as they are created,
changed or removed until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", indexer.DefaultDebounce, "quiet period before changes are applied")
	watchCmd.Flags().BoolVar(&watchNoInitial, "no-initial", false, "skip the initial full index")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	ctx := cmd.Context()
	if !watchNoInitial {
		stats, err := s.indexer.IndexCorpus(ctx, root, s.indexConfig(0, false))
		if err != nil {
			return err
		}
		printStatistics(cmd, stats)
	}

	w, err := s.indexer.NewWatcher(root, s.cfg.Indexer.Extensions,
		indexer.WithDebounce(watchDebounce),
		indexer.WithEventHandler(func(ev indexer.WatchEvent) {
			switch {
			case ev.Err != nil:
				log.Printf("%s: %v", ev.Path, ev.Err)
			case ev.Removed:
				log.Printf("removed %s", ev.Path)
			default:
				log.Printf("%s %s (%d chunks)", ev.Result.Status, ev.Path, ev.Result.Merged)
			}
		}))
	if err != nil {
		return err
	}

	log.Printf("Watching %s for changes...", root)
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	log.Println("Watcher stopped")
	return nil
}
