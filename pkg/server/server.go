// Package server provides the public entry point for initializing the
// drive agent runtime: the HTTP surface, the agent orchestrator, and the
// periodic ingestion scheduler.
//
// Usage:
//
//	srv, err := server.New(ctx)
//	http.ListenAndServe(srv.Config.HTTPAddr, srv.Handler)
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/driveagent/driveagent/internal/api"
	"github.com/driveagent/driveagent/internal/api/handlers"
	"github.com/driveagent/driveagent/internal/config"
	"github.com/driveagent/driveagent/internal/drive"
	"github.com/driveagent/driveagent/internal/email"
	"github.com/driveagent/driveagent/internal/extractor"
	"github.com/driveagent/driveagent/internal/ingest"
	"github.com/driveagent/driveagent/internal/modelsvc"
	"github.com/driveagent/driveagent/internal/orchestrator"
	"github.com/driveagent/driveagent/internal/synccache"
	"github.com/driveagent/driveagent/internal/telemetry"
	"github.com/driveagent/driveagent/internal/tools"
	"github.com/driveagent/driveagent/internal/vectorstore"
	"github.com/driveagent/driveagent/pkg/contracts"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// defaultEmbeddingSize is the dimensionality of OpenAI's
// text-embedding-3-small, the default embed model — used to size the
// Qdrant collection when that driver is selected.
const defaultEmbeddingSize = 1536

// Server holds the initialized agent runtime.
type Server struct {
	Handler http.Handler
	Config  *config.Config

	Model          contracts.Model
	VectorStore    contracts.VectorStore
	VectorRegistry *vectorstore.Registry
	DriveClient    contracts.DriveClient
	Extractor      contracts.TextExtractor
	Email          contracts.EmailSender
	SyncCache      contracts.SyncCache
	Pipeline       *ingest.Pipeline
	Registry       contracts.ToolRegistry
	Orchestrator   contracts.AgentOrchestrator

	cron *cron.Cron

	// ShutdownFunc flushes telemetry on graceful shutdown.
	ShutdownFunc func(context.Context) error
}

// New initializes all components and returns a ready Server.
func New(ctx context.Context) (*Server, error) {
	cfg := config.Load()
	return NewWithConfig(ctx, cfg)
}

// NewWithConfig initializes the runtime with an explicit configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	shutdown, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	model := modelsvc.New(cfg.OpenAI.APIKey, cfg.OpenAI.ChatModel, cfg.OpenAI.EmbedModel)
	log.Info().Str("chatModel", cfg.OpenAI.ChatModel).Str("embedModel", cfg.OpenAI.EmbedModel).Msg("model service initialized")

	store, err := buildVectorStore(ctx, cfg, model)
	if err != nil {
		return nil, fmt.Errorf("init vector store: %w", err)
	}
	log.Info().Str("driver", store.Kind()).Msg("vector store initialized")

	vectorRegistry := vectorstore.NewRegistry()
	vectorRegistry.Register(store.Kind(), store)

	driveClient, err := drive.New(ctx, cfg.Drive.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("init drive client: %w", err)
	}

	textExtractor := extractor.New()
	emailSender := email.New(cfg.Email.APIKey, cfg.Email.FromAddress)
	cache := synccache.New(cfg.Sync.CachePath)

	pipeline := ingest.New(driveClient, store, textExtractor, cache, ingest.Config{
		RootName:   cfg.Drive.RootName,
		MaxFolders: cfg.Sync.MaxFolders,
	})

	registry := tools.New(store, emailSender, model, tools.Config{DistanceCutoff: cfg.Search.DistanceCutoff})
	orch := orchestrator.New(model, registry)

	h := handlers.New(orch)
	router := api.NewRouter(cfg, h, vectorRegistry)

	c := cron.New()
	if cfg.Drive.FolderID != "" {
		if _, err := c.AddFunc(cfg.Sync.CronSchedule, func() {
			runOnce(context.Background(), pipeline, cfg.Drive.FolderID)
		}); err != nil {
			return nil, fmt.Errorf("schedule sync cron: %w", err)
		}
		c.Start()
		log.Info().Str("schedule", cfg.Sync.CronSchedule).Str("folderId", cfg.Drive.FolderID).Msg("ingestion cron scheduled")
	} else {
		log.Warn().Msg("GOOGLE_DRIVE_FOLDER_ID not set, periodic ingestion disabled")
	}

	return &Server{
		Handler:        router,
		Config:         cfg,
		Model:          model,
		VectorStore:    store,
		VectorRegistry: vectorRegistry,
		DriveClient:    driveClient,
		Extractor:      textExtractor,
		Email:          emailSender,
		SyncCache:      cache,
		Pipeline:       pipeline,
		Registry:       registry,
		Orchestrator:   orch,
		cron:           c,
		ShutdownFunc:   shutdown,
	}, nil
}

func buildVectorStore(ctx context.Context, cfg *config.Config, model contracts.Model) (contracts.VectorStore, error) {
	switch cfg.Vector.Driver {
	case "qdrant":
		host, port := splitHostPort(cfg.Vector.URL, 6334)
		return vectorstore.NewQdrantStore(ctx, vectorstore.QdrantConfig{
			Host:       host,
			Port:       port,
			Collection: cfg.Vector.Collection,
			RootName:   cfg.Drive.RootName,
		}, model, defaultEmbeddingSize)
	default:
		return vectorstore.NewEmbeddedStore(model, vectorstore.WithRootName(cfg.Drive.RootName)), nil
	}
}

// splitHostPort parses a "host:port" string, falling back to fallbackPort
// when port is absent or unparsable.
func splitHostPort(hostPort string, fallbackPort int) (string, int) {
	host, portStr, err := net.SplitHostPort(hostPort)
	if err != nil {
		return hostPort, fallbackPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, fallbackPort
	}
	return host, port
}

// runOnce executes a single ingestion pass, logging its outcome. Errors are
// not fatal to the process — the next scheduled tick tries again.
func runOnce(ctx context.Context, pipeline *ingest.Pipeline, folderID string) {
	stats, err := pipeline.Run(ctx, folderID)
	if err != nil {
		log.Error().Err(err).Msg("ingestion run failed")
		return
	}
	log.Info().
		Int("filesSeen", stats.FilesSeen).
		Int("added", stats.Added).
		Int("updated", stats.Updated).
		Int("deleted", stats.Deleted).
		Int("failed", stats.Failed).
		Msg("ingestion run complete")
}

// Shutdown stops the cron scheduler and flushes telemetry.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ShutdownFunc != nil {
		return s.ShutdownFunc(ctx)
	}
	return nil
}
