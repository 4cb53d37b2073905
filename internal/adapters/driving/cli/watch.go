package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/agrichat/agrichat/internal/core/domain"
	"github.com/agrichat/agrichat/internal/logger"
)

// settleDelay gives writers time to finish before a dropped file is
// ingested. Editors and network copies produce several write events per
// file; only the last one matters.
const settleDelay = 2 * time.Second

var watchOwner string

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and ingest dropped files",
	Long: `Watches a directory and automatically ingests every supported file
created or modified in it. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchOwner, "owner", "admin", "owner recorded on ingested documents")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := ensureDocumentService(cmd.Context()); err != nil {
		return err
	}

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch target %s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	supported := make(map[string]bool)
	for _, ext := range loaderRegistry.Extensions() {
		supported[ext] = true
	}

	cmd.Printf("Watching %s (Ctrl-C to stop)\n", dir)

	// Coalesce bursts of events per path; ingest after the file settles.
	pending := make(map[string]*time.Timer)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			ext := strings.ToLower(filepath.Ext(event.Name))
			if !supported[ext] {
				continue
			}

			path := event.Name
			if timer, exists := pending[path]; exists {
				timer.Stop()
			}
			pending[path] = time.AfterFunc(settleDelay, func() {
				ingestWatched(ctx, cmd, path)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

func ingestWatched(ctx context.Context, cmd *cobra.Command, path string) {
	if ctx.Err() != nil {
		return
	}

	doc, err := documentService.Register(ctx, watchOwner, path, nil)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateContent) {
			logger.Info("Skipping %s: already ingested", path)
			return
		}
		cmd.PrintErrf("register %s: %v\n", path, err)
		return
	}

	count, err := documentService.Process(ctx, doc.ID)
	if err != nil {
		cmd.PrintErrf("process %s: %v\n", path, err)
		return
	}
	cmd.Printf("Ingested %s: %d chunks\n", path, count)
}
