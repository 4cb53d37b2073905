// Package cli provides the cobra-based command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agrichat/agrichat/internal/adapters/driven/ai"
	"github.com/agrichat/agrichat/internal/adapters/driven/config/file"
	"github.com/agrichat/agrichat/internal/adapters/driven/storage/memory"
	"github.com/agrichat/agrichat/internal/adapters/driven/storage/sqlite"
	"github.com/agrichat/agrichat/internal/adapters/driven/vector/pgvector"
	"github.com/agrichat/agrichat/internal/chunker"
	"github.com/agrichat/agrichat/internal/core/ports/driven"
	"github.com/agrichat/agrichat/internal/core/ports/driving"
	"github.com/agrichat/agrichat/internal/core/services"
	"github.com/agrichat/agrichat/internal/loaders"
	"github.com/agrichat/agrichat/internal/loaders/csv"
	"github.com/agrichat/agrichat/internal/loaders/markdown"
	"github.com/agrichat/agrichat/internal/loaders/pdf"
	"github.com/agrichat/agrichat/internal/loaders/plaintext"
	"github.com/agrichat/agrichat/internal/logger"
	"github.com/agrichat/agrichat/internal/search"
)

// Persistent flags.
var (
	verbose    bool
	configPath string
)

// Services wired by ensureServices, shared by the commands.
var (
	cfg              file.Config
	store            *sqlite.Store
	llmService       driven.LLMService
	embeddingService driven.EmbeddingService
	vectorIndex      driven.VectorIndex
	chatService      driving.ChatService
	documentService  driving.DocumentService
	loaderRegistry   *loaders.Registry
	wired            bool
)

var rootCmd = &cobra.Command{
	Use:   "agrichat",
	Short: "Customer support assistant for farmers' association services",
	Long: `agrichat answers member questions about loans, subsidies, insurance
and related services. Answers are grounded in the indexed document
corpus through hybrid (lexical + vector) retrieval.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: config.toml)")
}

// Execute runs the CLI and releases resources on exit.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// ensureServices wires the full service graph once. Commands that need
// the backend call this at the top of their RunE.
func ensureServices(ctx context.Context) error {
	if wired {
		return nil
	}
	logger.SetVerbose(verbose)

	var err error
	cfg, err = file.Load(configPath)
	if err != nil {
		return err
	}

	store, err = sqlite.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}

	llmService, err = ai.CreateLLMService(cfg.LLMSettings())
	if err != nil {
		return err
	}

	// The embedding provider is optional: without it queries still run
	// with lexical-only degraded retrieval.
	if cfg.EmbeddingSettings().IsConfigured() {
		embeddingService, err = ai.CreateEmbeddingService(cfg.EmbeddingSettings())
		if err != nil {
			return err
		}
		vectorIndex, err = buildVectorIndex(ctx)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("Embedding provider not configured; vector retrieval disabled")
	}

	hybrid, err := search.NewEngine(cfg.Search.LexicalWeight, cfg.Search.VectorWeight)
	if err != nil {
		return err
	}

	rag, err := services.NewRAGEngine(llmService, services.GenerationConfig{
		Temperature: cfg.Generation.Temperature,
		MaxTokens:   cfg.Generation.MaxTokens,
		Streaming:   cfg.Generation.Streaming,
	})
	if err != nil {
		return err
	}

	classifier := services.NewIntentClassifier(llmService)

	historyLimit := cfg.Search.HistoryLimit
	if historyLimit < 1 {
		historyLimit = services.DefaultChatConfig().HistoryLimit
	}
	chatService, err = services.NewChatService(classifier, rag, vectorIndex, hybrid,
		store.ChatRepository(), services.ChatConfig{
			DefaultK:     cfg.Search.DefaultK,
			MaxK:         cfg.Search.MaxK,
			HistoryLimit: historyLimit,
		})
	if err != nil {
		return err
	}

	loaderRegistry = loaders.NewRegistry(
		plaintext.New(),
		markdown.New(),
		pdf.New(),
		csv.New(),
	)

	if vectorIndex != nil {
		splitter, err := chunker.New(
			chunker.WithChunkSize(cfg.Ingest.ChunkSize),
			chunker.WithOverlap(cfg.Ingest.ChunkOverlap),
		)
		if err != nil {
			return err
		}
		documentService, err = services.NewDocumentService(
			store.DocumentStore(), vectorIndex, loaderRegistry, splitter, cfg.MaxFileSize())
		if err != nil {
			return err
		}
	}

	wired = true
	return nil
}

// ensureDocumentService guards commands that need the ingestion pipeline.
func ensureDocumentService(ctx context.Context) error {
	if err := ensureServices(ctx); err != nil {
		return err
	}
	if documentService == nil {
		return errors.New("ingestion requires an embedding provider; set embedding.api_key in config")
	}
	return nil
}

// buildVectorIndex selects pgvector when a DSN is configured, otherwise
// the in-process index.
func buildVectorIndex(ctx context.Context) (driven.VectorIndex, error) {
	if cfg.Storage.PostgresDSN != "" {
		idx, err := pgvector.NewIndex(ctx, pgvector.Config{
			DSN:   cfg.Storage.PostgresDSN,
			Table: cfg.Storage.Table,
		}, embeddingService)
		if err != nil {
			return nil, err
		}
		return idx, nil
	}
	logger.Info("No postgres_dsn configured, using in-memory vector index")
	return memory.NewVectorIndex(embeddingService)
}

// closeServices releases everything ensureServices opened.
func closeServices() {
	if vectorIndex != nil {
		vectorIndex.Close()
	}
	if embeddingService != nil {
		embeddingService.Close()
	}
	if llmService != nil {
		llmService.Close()
	}
	if store != nil {
		store.Close()
	}
}
