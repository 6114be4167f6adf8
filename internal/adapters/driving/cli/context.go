package cli

import (
	"fmt"
	"io"

	"github.com/parchment-labs/quarry/internal/adapters/driven/ai"
	"github.com/parchment-labs/quarry/internal/adapters/driven/config/file"
	"github.com/parchment-labs/quarry/internal/adapters/driven/storage/postgrest"
	"github.com/parchment-labs/quarry/internal/adapters/driven/storage/sqlite"
	"github.com/parchment-labs/quarry/internal/cache"
	"github.com/parchment-labs/quarry/internal/chunker"
	"github.com/parchment-labs/quarry/internal/connectors/filesystem"
	"github.com/parchment-labs/quarry/internal/core/domain"
	"github.com/parchment-labs/quarry/internal/core/ports/driven"
	"github.com/parchment-labs/quarry/internal/core/ports/driving"
	"github.com/parchment-labs/quarry/internal/core/services"
	"github.com/parchment-labs/quarry/internal/logger"
	"github.com/parchment-labs/quarry/internal/normalisers"
)

// Services shared by the commands, wired once per invocation in
// initContext.
var (
	settings domain.Settings

	storeCloser io.Closer
	llmService  driven.LLMService

	indexerService  *services.IndexerService
	searchService   driving.Searcher
	responderSvc    driving.Responder
	analyzerService driving.Analyzer
	ingestService   driving.Ingestor
	documentService driving.DocumentService

	servicesReady bool
)

// initContext loads settings and builds the service graph: stores
// (remote when Supabase is configured, local SQLite otherwise), the
// embedding chain, the optional LLM, and the core services on top.
func initContext() error {
	if servicesReady {
		return nil
	}

	settingsStore, err := file.NewSettingsStore(configPath)
	if err != nil {
		return fmt.Errorf("opening settings: %w", err)
	}
	settings, err = settingsStore.Load()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	var (
		docStore   driven.DocumentStore
		chunkStore driven.ChunkStore
	)
	if settings.Supabase.IsConfigured() {
		store, err := postgrest.NewStore(postgrest.Config{
			URL: settings.Supabase.URL,
			Key: settings.Supabase.Key,
		})
		if err != nil {
			return fmt.Errorf("opening remote store: %w", err)
		}
		storeCloser = store
		docStore = store.DocumentStore()
		chunkStore = store.ChunkStore()
		logger.Debug("using remote datastore at %s", settings.Supabase.URL)
	} else {
		store, err := sqlite.NewStore(settings.Database.Path)
		if err != nil {
			return fmt.Errorf("opening local store: %w", err)
		}
		storeCloser = store
		docStore = store.DocumentStore()
		chunkStore = store.ChunkStore()
		logger.Debug("using local datastore at %s", store.Path())
	}

	embedChain, err := ai.BuildEmbeddingChain(settings.Embedding)
	if err != nil {
		return fmt.Errorf("building embedding chain: %w", err)
	}
	llmService = ai.CreateAndValidateLLMService(settings.LLM)

	indexerService = services.NewIndexerService(chunkStore, embedChain, chunker.New())
	searchService = services.NewRetrievalService(chunkStore, docStore, embedChain, indexerService)
	responderSvc = services.NewResponderService(llmService, cache.New())
	analyzerService = services.NewAnalyzerService(llmService)
	documentService = services.NewDocService(docStore, chunkStore)
	ingestService = services.NewIngestService(docStore, chunkStore, indexerService,
		normalisers.Default(), func(path string) (driven.Connector, error) {
			return filesystem.New(path), nil
		})

	servicesReady = true
	return nil
}

// closeContext drains background embedding and releases the store.
// Without the drain, a short-lived `quarry index` would exit before
// vectors are written.
func closeContext() error {
	if indexerService != nil {
		indexerService.WaitBackground()
	}
	if llmService != nil {
		llmService.Close()
	}
	if storeCloser != nil {
		err := storeCloser.Close()
		storeCloser = nil
		servicesReady = false
		return err
	}
	servicesReady = false
	return nil
}
