// Package skillcompass provides a library-first API for occupation
// recommendation without the MCP or HTTP transports.
package skillcompass

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skillcompass/skillcompass-go/internal/embeddings"
	"github.com/skillcompass/skillcompass-go/internal/graphstore"
	"github.com/skillcompass/skillcompass-go/internal/recommend"
	"github.com/skillcompass/skillcompass-go/internal/taxonomy"
	"github.com/skillcompass/skillcompass-go/internal/vectorindex"
)

// Config wires a Client. Most fields map directly to the internal layers.
type Config struct {
	// StoreURL is the libSQL database holding the taxonomy.
	StoreURL  string
	AuthToken string

	// VectorPath and MappingPath locate the prebuilt index artifact pair.
	VectorPath  string
	MappingPath string

	// Provider supplies skill embeddings. When nil the provider is built
	// from environment variables (EMBEDDINGS_PROVIDER et al).
	Provider embeddings.Provider

	// RedisAddr enables the embedding cache when non-empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
}

// Client bundles the serving resources behind a stable API.
type Client struct {
	store  *graphstore.Store
	engine *recommend.Engine
	rdb    *redis.Client
}

// New opens the store, loads the index artifact and wires the engine.
func New(cfg *Config) (*Client, error) {
	storeCfg := graphstore.NewConfig()
	if cfg.StoreURL != "" {
		storeCfg.URL = cfg.StoreURL
	}
	if cfg.AuthToken != "" {
		storeCfg.AuthToken = cfg.AuthToken
	}
	store, err := graphstore.NewStore(storeCfg)
	if err != nil {
		return nil, err
	}

	ix, err := vectorindex.Load(cfg.VectorPath, cfg.MappingPath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load vector index: %w", err)
	}

	provider := cfg.Provider
	if provider == nil {
		provider = embeddings.NewFromEnv()
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		provider = embeddings.WithCache(provider, rdb, cfg.CacheTTL)
	}

	engine := recommend.NewEngine(&recommend.Resources{
		Store:    store,
		Index:    ix,
		Provider: provider,
	})
	return &Client{store: store, engine: engine, rdb: rdb}, nil
}

// Close releases resources.
func (c *Client) Close() error {
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	return c.store.Close()
}

// Ready reports whether the client can serve recommendations.
func (c *Client) Ready() error { return c.engine.Ready() }

// Recommend runs the full recommendation pipeline.
func (c *Client) Recommend(ctx context.Context, req taxonomy.RecommendationRequest) ([]taxonomy.RecommendationResult, error) {
	return c.engine.Recommend(ctx, req)
}

// SkillGap compares the given skills against one occupation's requirements.
func (c *Client) SkillGap(ctx context.Context, occupationURI string, skillURIs []string) (*taxonomy.OccupationSkillGap, error) {
	return c.engine.SkillGapFor(ctx, occupationURI, skillURIs)
}

// SearchSkills finds skills by label or description substring.
func (c *Client) SearchSkills(ctx context.Context, query string, limit int) ([]taxonomy.Skill, error) {
	return c.store.SearchSkills(ctx, query, limit)
}

// SearchOccupations finds occupations by label or description substring.
func (c *Client) SearchOccupations(ctx context.Context, query string, limit int) ([]taxonomy.Occupation, error) {
	return c.store.SearchOccupations(ctx, query, limit)
}

// Occupation loads one occupation with its required skills and groups.
func (c *Client) Occupation(ctx context.Context, uri string) (*taxonomy.Occupation, error) {
	return c.store.GetOccupation(ctx, uri)
}

// OccupationGroups lists the classification hierarchy for filter building.
func (c *Client) OccupationGroups(ctx context.Context) ([]taxonomy.OccupationGroup, error) {
	return c.store.ListOccupationGroups(ctx)
}

// ConceptSchemes lists the member schemes for filter building.
func (c *Client) ConceptSchemes(ctx context.Context) ([]taxonomy.ConceptScheme, error) {
	return c.store.ListConceptSchemes(ctx)
}

// Notes pages through occupation notes, optionally restricted to one
// occupation URI.
func (c *Client) Notes(ctx context.Context, occupationURI string, limit, skip int) (*taxonomy.NotePage, error) {
	return c.store.SearchNotes(ctx, occupationURI, limit, skip)
}

// SaveNote creates or updates a note attached to an occupation.
func (c *Client) SaveNote(ctx context.Context, occupationURI, noteID, text string) (*taxonomy.Note, error) {
	return c.store.UpsertNote(ctx, occupationURI, noteID, text)
}

// DeleteNote removes a note from an occupation.
func (c *Client) DeleteNote(ctx context.Context, occupationURI, noteID string) error {
	return c.store.DeleteNote(ctx, occupationURI, noteID)
}

// Stats reports node and relation counts of the loaded taxonomy.
func (c *Client) Stats(ctx context.Context) ([]taxonomy.NodeCount, []taxonomy.RelCount, error) {
	nodes, err := c.store.NodeCounts(ctx)
	if err != nil {
		return nil, nil, err
	}
	edges, err := c.store.RelCounts(ctx)
	if err != nil {
		return nil, nil, err
	}
	return nodes, edges, nil
}
