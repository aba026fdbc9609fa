package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/skillcompass/skillcompass-go/internal/buildinfo"
	"github.com/skillcompass/skillcompass-go/internal/config"
	"github.com/skillcompass/skillcompass-go/internal/embeddings"
	"github.com/skillcompass/skillcompass-go/internal/graphstore"
	"github.com/skillcompass/skillcompass-go/internal/httpapi"
	"github.com/skillcompass/skillcompass-go/internal/metrics"
	"github.com/skillcompass/skillcompass-go/internal/recommend"
	"github.com/skillcompass/skillcompass-go/internal/server"
	"github.com/skillcompass/skillcompass-go/internal/vectorindex"
)

var (
	httpAddr     = flag.String("http-addr", "", "HTTP API listen address (overrides config)")
	mcpTransport = flag.String("mcp-transport", "", "MCP transport: stdio, sse or none (overrides config)")
	sseAddr      = flag.String("sse-addr", "", "Address to listen on when using the SSE MCP transport")
	sseEndpoint  = flag.String("sse-endpoint", "/sse", "SSE endpoint path when using the SSE MCP transport")
)

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Str("service", "skillcompass").Logger()
}

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *httpAddr != "" {
		cfg.Server.HTTPAddr = *httpAddr
	}
	if *mcpTransport != "" {
		cfg.Server.MCPTransport = strings.ToLower(*mcpTransport)
	}
	if *sseAddr != "" {
		cfg.Server.SSEAddr = *sseAddr
	}

	logger := newLogger(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info().Msg("received shutdown signal, closing server")
		cancel()
	}()

	// Initialize metrics (noop if disabled)
	metrics.InitFromEnv()

	store, err := graphstore.NewStore(&graphstore.Config{
		URL:            cfg.Store.URL,
		AuthToken:      cfg.Store.AuthToken,
		MaxOpenConns:   cfg.Store.MaxOpenConns,
		MaxIdleConns:   cfg.Store.MaxIdleConns,
		ConnMaxIdleSec: cfg.Store.ConnMaxIdleSec,
		ConnMaxLifeSec: cfg.Store.ConnMaxLifeSec,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open taxonomy store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing taxonomy store")
		}
	}()

	ix, err := vectorindex.Load(cfg.Index.VectorPath, cfg.Index.MappingPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load vector index")
	}
	logger.Info().
		Int("vectors", ix.Len()).
		Int("dimensions", ix.Dimensions()).
		Msg("vector index loaded")

	provider := embeddings.NewFromEnv()
	if provider == nil {
		logger.Fatal().Msg("no embedding provider configured (set EMBEDDINGS_PROVIDER)")
	}
	if cfg.Cache.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		defer rdb.Close()
		provider = embeddings.WithCache(provider, rdb, cfg.Cache.TTL)
		logger.Info().Str("addr", cfg.Cache.RedisAddr).Msg("embedding cache enabled")
	}

	engine := recommend.NewEngine(&recommend.Resources{
		Store:    store,
		Index:    ix,
		Provider: provider,
	})
	if err := engine.Ready(); err != nil {
		logger.Fatal().Err(err).Msg("serving resources are inconsistent")
	}

	logger.Info().
		Str("version", buildinfo.Version).
		Str("http_addr", cfg.Server.HTTPAddr).
		Str("mcp_transport", cfg.Server.MCPTransport).
		Msg("starting skillcompass")

	api := httpapi.NewServer(engine, store, logger, httpapi.Options{
		Addr:         cfg.Server.HTTPAddr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})
	go func() {
		if err := api.ListenAndServe(ctx); err != nil {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	switch cfg.Server.MCPTransport {
	case "stdio":
		mcpServer := server.NewMCPServer(engine, store)
		go func() {
			if err := mcpServer.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("mcp server error")
			}
		}()
	case "sse":
		mcpServer := server.NewMCPServer(engine, store)
		go func() {
			if err := mcpServer.RunSSE(ctx, cfg.Server.SSEAddr, *sseEndpoint); err != nil {
				logger.Error().Err(err).Msg("sse mcp server error")
			}
		}()
	case "none", "":
	default:
		logger.Fatal().Str("transport", cfg.Server.MCPTransport).Msg("unknown mcp transport (expected: stdio, sse or none)")
	}

	<-ctx.Done()
	logger.Info().Msg("server stopped")
}
