package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/skillcompass/skillcompass-go/internal/buildinfo"
	"github.com/skillcompass/skillcompass-go/internal/graphstore"
	"github.com/skillcompass/skillcompass-go/internal/metrics"
	"github.com/skillcompass/skillcompass-go/internal/recommend"
	"github.com/skillcompass/skillcompass-go/internal/taxonomy"
)

const (
	defaultToolLimit = 20
	maxToolLimit     = 100
)

// MCPServer exposes the recommendation engine over the MCP protocol.
type MCPServer struct {
	server *mcp.Server
	engine *recommend.Engine
	store  *graphstore.Store
}

// NewMCPServer creates a new MCP server over the given engine and store.
func NewMCPServer(engine *recommend.Engine, store *graphstore.Store) *MCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "skillcompass",
		Version: buildinfo.Version,
	}, nil)

	mcpServer := &MCPServer{
		server: server,
		engine: engine,
		store:  store,
	}

	// initialize metrics from env (no-op if disabled)
	metrics.InitFromEnv()
	mcpServer.setupToolHandlers()
	return mcpServer
}

// setupToolHandlers registers all MCP tools
func (s *MCPServer) setupToolHandlers() {
	recommendInputSchema, err := jsonschema.For[taxonomy.RecommendArgs]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for RecommendArgs: %v", err))
	}
	recommendOutputSchema, err := jsonschema.For[taxonomy.RecommendResult]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for RecommendResult: %v", err))
	}
	skillGapInputSchema, err := jsonschema.For[taxonomy.SkillGapArgs]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for SkillGapArgs: %v", err))
	}
	skillGapOutputSchema, err := jsonschema.For[taxonomy.OccupationSkillGap]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for OccupationSkillGap: %v", err))
	}
	searchSkillsInputSchema, err := jsonschema.For[taxonomy.SearchSkillsArgs]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for SearchSkillsArgs: %v", err))
	}
	searchSkillsOutputSchema, err := jsonschema.For[taxonomy.SkillList]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for SkillList: %v", err))
	}
	searchOccupationsInputSchema, err := jsonschema.For[taxonomy.SearchOccupationsArgs]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for SearchOccupationsArgs: %v", err))
	}
	searchOccupationsOutputSchema, err := jsonschema.For[taxonomy.OccupationList]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for OccupationList: %v", err))
	}
	searchNotesInputSchema, err := jsonschema.For[taxonomy.SearchNotesArgs]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for SearchNotesArgs: %v", err))
	}
	searchNotesOutputSchema, err := jsonschema.For[taxonomy.NotePage]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for NotePage: %v", err))
	}
	upsertNoteInputSchema, err := jsonschema.For[taxonomy.UpsertNoteArgs]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for UpsertNoteArgs: %v", err))
	}
	upsertNoteOutputSchema, err := jsonschema.For[taxonomy.Note]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for Note: %v", err))
	}
	deleteNoteInputSchema, err := jsonschema.For[taxonomy.DeleteNoteArgs]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for DeleteNoteArgs: %v", err))
	}
	deleteNoteOutputSchema, err := jsonschema.For[taxonomy.DeleteNoteResult]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for DeleteNoteResult: %v", err))
	}
	statsInputSchema, err := jsonschema.For[taxonomy.StatsArgs]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for StatsArgs: %v", err))
	}
	statsOutputSchema, err := jsonschema.For[taxonomy.StatsResult]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for StatsResult: %v", err))
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "recommend_occupations",
		Title:        "Recommend Occupations",
		Description:  "Recommend occupations matching a set of skill URIs, with optional occupation group and concept scheme filters.",
		InputSchema:  recommendInputSchema,
		OutputSchema: recommendOutputSchema,
	}, s.handleRecommend)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "skill_gap",
		Title:        "Skill Gap",
		Description:  "Compare the user's skills against one occupation's requirements, split by essential and optional.",
		InputSchema:  skillGapInputSchema,
		OutputSchema: skillGapOutputSchema,
	}, s.handleSkillGap)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "search_skills",
		Title:        "Search Skills",
		Description:  "Search skills by label or description substring.",
		InputSchema:  searchSkillsInputSchema,
		OutputSchema: searchSkillsOutputSchema,
	}, s.handleSearchSkills)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "search_occupations",
		Title:        "Search Occupations",
		Description:  "Search occupations by label or description substring, with optional group filters.",
		InputSchema:  searchOccupationsInputSchema,
		OutputSchema: searchOccupationsOutputSchema,
	}, s.handleSearchOccupations)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "search_notes",
		Title:        "Search Notes",
		Description:  "Page through editorial occupation notes, optionally restricted to one occupation.",
		InputSchema:  searchNotesInputSchema,
		OutputSchema: searchNotesOutputSchema,
	}, s.handleSearchNotes)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "upsert_note",
		Title:        "Upsert Note",
		Description:  "Create or update an editorial note attached to an occupation.",
		InputSchema:  upsertNoteInputSchema,
		OutputSchema: upsertNoteOutputSchema,
	}, s.handleUpsertNote)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "delete_note",
		Title:        "Delete Note",
		Description:  "Remove a note from an occupation; the note itself is deleted once unreferenced.",
		InputSchema:  deleteNoteInputSchema,
		OutputSchema: deleteNoteOutputSchema,
	}, s.handleDeleteNote)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "taxonomy_stats",
		Title:        "Taxonomy Stats",
		Description:  "Report node and relation counts of the loaded taxonomy.",
		InputSchema:  statsInputSchema,
		OutputSchema: statsOutputSchema,
	}, s.handleStats)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultToolLimit
	}
	if limit > maxToolLimit {
		return maxToolLimit
	}
	return limit
}

// handleRecommend handles the recommend_occupations tool call
func (s *MCPServer) handleRecommend(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[taxonomy.RecommendArgs],
) (*mcp.CallToolResultFor[taxonomy.RecommendResult], error) {
	done := metrics.TimeTool("recommend_occupations")
	var success bool
	defer func() { done(success) }()

	req := taxonomy.RecommendationRequest{
		SkillURIs:  params.Arguments.Skills,
		GroupURIs:  params.Arguments.OccupationGroups,
		SchemeURIs: params.Arguments.Schemes,
		Limit:      clampLimit(params.Arguments.Limit),
	}
	results, err := s.engine.Recommend(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("recommendation failed: %w", err)
	}
	success = true

	return &mcp.CallToolResultFor[taxonomy.RecommendResult]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Found %d occupations for %d skills", len(results), len(req.SkillURIs)),
			},
		},
		StructuredContent: taxonomy.RecommendResult{
			Count:   len(results),
			Skills:  req.SkillURIs,
			Results: results,
		},
	}, nil
}

// handleSkillGap handles the skill_gap tool call
func (s *MCPServer) handleSkillGap(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[taxonomy.SkillGapArgs],
) (*mcp.CallToolResultFor[taxonomy.OccupationSkillGap], error) {
	done := metrics.TimeTool("skill_gap")
	var success bool
	defer func() { done(success) }()

	if params.Arguments.OccupationURI == "" {
		return nil, fmt.Errorf("occupationUri cannot be empty")
	}

	view, err := s.engine.SkillGapFor(ctx, params.Arguments.OccupationURI, params.Arguments.Skills)
	if err != nil {
		return nil, fmt.Errorf("skill gap failed: %w", err)
	}
	if params.Arguments.EssentialOnly {
		view.OptionalSkills = []taxonomy.GapSkill{}
	}
	success = true

	return &mcp.CallToolResultFor[taxonomy.OccupationSkillGap]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: fmt.Sprintf("Skill gap for %s: %.1f%% match", view.OccupationLabel, view.MatchPercentage),
			},
		},
		StructuredContent: *view,
	}, nil
}

// handleSearchSkills handles the search_skills tool call
func (s *MCPServer) handleSearchSkills(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[taxonomy.SearchSkillsArgs],
) (*mcp.CallToolResultFor[taxonomy.SkillList], error) {
	done := metrics.TimeTool("search_skills")
	var success bool
	defer func() { done(success) }()

	limit := clampLimit(params.Arguments.Limit)
	skills, err := s.store.SearchSkills(ctx, params.Arguments.Query, limit)
	if err != nil {
		return nil, fmt.Errorf("skill search failed: %w", err)
	}
	if st := params.Arguments.SkillType; st != "" {
		filtered := skills[:0]
		for _, sk := range skills {
			if sk.SkillType == st {
				filtered = append(filtered, sk)
			}
		}
		skills = filtered
	}
	success = true

	return &mcp.CallToolResultFor[taxonomy.SkillList]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Found %d skills", len(skills))},
		},
		StructuredContent: taxonomy.SkillList{Count: len(skills), Skills: skills},
	}, nil
}

// handleSearchOccupations handles the search_occupations tool call
func (s *MCPServer) handleSearchOccupations(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[taxonomy.SearchOccupationsArgs],
) (*mcp.CallToolResultFor[taxonomy.OccupationList], error) {
	done := metrics.TimeTool("search_occupations")
	var success bool
	defer func() { done(success) }()

	limit := clampLimit(params.Arguments.Limit)
	occupations, err := s.store.SearchOccupations(ctx, params.Arguments.Query, limit)
	if err != nil {
		return nil, fmt.Errorf("occupation search failed: %w", err)
	}

	// Group filters re-use the candidate path so all three hierarchy
	// matching strategies apply.
	if len(params.Arguments.Groups) > 0 && len(occupations) > 0 {
		uris := make([]string, len(occupations))
		for i, occ := range occupations {
			uris[i] = occ.URI
		}
		kept, err := s.store.FetchCandidates(ctx, uris, graphstore.FilterSet{GroupURIs: params.Arguments.Groups})
		if err != nil {
			return nil, fmt.Errorf("occupation filter failed: %w", err)
		}
		filtered := occupations[:0]
		for _, occ := range occupations {
			if _, ok := kept[occ.URI]; ok {
				filtered = append(filtered, occ)
			}
		}
		occupations = filtered
	}
	success = true

	return &mcp.CallToolResultFor[taxonomy.OccupationList]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Found %d occupations", len(occupations))},
		},
		StructuredContent: taxonomy.OccupationList{Count: len(occupations), Occupations: occupations},
	}, nil
}

// handleSearchNotes handles the search_notes tool call
func (s *MCPServer) handleSearchNotes(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[taxonomy.SearchNotesArgs],
) (*mcp.CallToolResultFor[taxonomy.NotePage], error) {
	done := metrics.TimeTool("search_notes")
	var success bool
	defer func() { done(success) }()

	skip := params.Arguments.Skip
	if skip < 0 {
		skip = 0
	}
	page, err := s.store.SearchNotes(ctx, params.Arguments.OccupationURI, clampLimit(params.Arguments.Limit), skip)
	if err != nil {
		return nil, fmt.Errorf("note search failed: %w", err)
	}
	success = true

	return &mcp.CallToolResultFor[taxonomy.NotePage]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Found %d notes (returning %d)", page.Total, len(page.Notes))},
		},
		StructuredContent: *page,
	}, nil
}

// handleUpsertNote handles the upsert_note tool call
func (s *MCPServer) handleUpsertNote(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[taxonomy.UpsertNoteArgs],
) (*mcp.CallToolResultFor[taxonomy.Note], error) {
	done := metrics.TimeTool("upsert_note")
	var success bool
	defer func() { done(success) }()

	note, err := s.store.UpsertNote(ctx, params.Arguments.OccupationURI, params.Arguments.NoteID, params.Arguments.Text)
	if err != nil {
		return nil, fmt.Errorf("note upsert failed: %w", err)
	}
	success = true

	return &mcp.CallToolResultFor[taxonomy.Note]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Saved note %s on %s", note.NoteID, note.OccupationLabel)},
		},
		StructuredContent: *note,
	}, nil
}

// handleDeleteNote handles the delete_note tool call
func (s *MCPServer) handleDeleteNote(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[taxonomy.DeleteNoteArgs],
) (*mcp.CallToolResultFor[taxonomy.DeleteNoteResult], error) {
	done := metrics.TimeTool("delete_note")
	var success bool
	defer func() { done(success) }()

	if err := s.store.DeleteNote(ctx, params.Arguments.OccupationURI, params.Arguments.NoteID); err != nil {
		return nil, fmt.Errorf("note delete failed: %w", err)
	}
	success = true

	return &mcp.CallToolResultFor[taxonomy.DeleteNoteResult]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Deleted note %s from %s", params.Arguments.NoteID, params.Arguments.OccupationURI)},
		},
		StructuredContent: taxonomy.DeleteNoteResult{
			OccupationURI: params.Arguments.OccupationURI,
			NoteID:        params.Arguments.NoteID,
			Deleted:       true,
		},
	}, nil
}

// handleStats handles the taxonomy_stats tool call
func (s *MCPServer) handleStats(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[taxonomy.StatsArgs],
) (*mcp.CallToolResultFor[taxonomy.StatsResult], error) {
	done := metrics.TimeTool("taxonomy_stats")
	var success bool
	defer func() { done(success) }()

	nodes, err := s.store.NodeCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("node counts failed: %w", err)
	}
	edges, err := s.store.RelCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("relation counts failed: %w", err)
	}
	// observe current pool gauges while we're here
	inUse, idle := s.store.PoolStats()
	metrics.Default().ObservePoolStats(inUse, idle)
	success = true

	return &mcp.CallToolResultFor[taxonomy.StatsResult]{
		Content:           []mcp.Content{&mcp.TextContent{Text: "ok"}},
		StructuredContent: taxonomy.StatsResult{Nodes: nodes, Edges: edges},
	}, nil
}

// Run starts the MCP server with stdio transport
func (s *MCPServer) Run(ctx context.Context) error {
	s.reportPoolStats(ctx)
	transport := mcp.NewStdioTransport()
	return s.server.Run(ctx, transport)
}

// RunSSE starts the MCP server over SSE at the given address and endpoint
func (s *MCPServer) RunSSE(ctx context.Context, addr string, endpoint string) error {
	s.reportPoolStats(ctx)
	handler := mcp.NewSSEHandler(func(r *http.Request) *mcp.Server { return s.server })
	mux := http.NewServeMux()
	mux.Handle(endpoint, handler)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 0)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("SSE MCP server listening on %s%s", addr, endpoint)
	return srv.ListenAndServe()
}

// reportPoolStats publishes pool gauges every few seconds until ctx ends.
func (s *MCPServer) reportPoolStats(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				inUse, idle := s.store.PoolStats()
				metrics.Default().ObservePoolStats(inUse, idle)
			}
		}
	}()
}
