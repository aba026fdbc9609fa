package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillcompass/skillcompass-go/internal/graphstore"
	"github.com/skillcompass/skillcompass-go/internal/recommend"
	"github.com/skillcompass/skillcompass-go/internal/taxonomy"
	"github.com/skillcompass/skillcompass-go/internal/vectorindex"
)

var apiDBCounter int64

type fixedProvider struct{ dims int }

func (p fixedProvider) Name() string    { return "fixed" }
func (p fixedProvider) Model() string   { return "fixed-model" }
func (p fixedProvider) Dimensions() int { return p.dims }

func (p fixedProvider) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i := range inputs {
		v := make([]float32, p.dims)
		v[0] = 1
		out[i] = v
	}
	return out, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	n := atomic.AddInt64(&apiDBCounter, 1)
	cfg := graphstore.NewConfig()
	cfg.URL = fmt.Sprintf("file:apitest%d?mode=memory&cache=shared", n)
	store, err := graphstore.NewStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.PutOccupations(ctx, []taxonomy.Occupation{
		{URI: "occ:dev", Label: "software developer", ISCOCode: "2512"},
		{URI: "occ:chef", Label: "chef"},
	}))
	require.NoError(t, store.PutSkills(ctx, []taxonomy.Skill{
		{URI: "skill:python", Label: "python"},
		{URI: "skill:sql", Label: "SQL"},
	}))
	require.NoError(t, store.PutRequires(ctx, []graphstore.RequiresEdge{
		{OccupationURI: "occ:dev", SkillURI: "skill:python", RelationType: taxonomy.RelationEssential},
		{OccupationURI: "occ:dev", SkillURI: "skill:sql", RelationType: taxonomy.RelationOptional},
	}))
	require.NoError(t, store.PutOccupationGroups(ctx, []taxonomy.OccupationGroup{
		{URI: "group:C21", Code: "C21", Label: "ICT professionals"},
	}))
	require.NoError(t, store.PutConceptSchemes(ctx, []taxonomy.ConceptScheme{
		{URI: "scheme:member", Label: "member occupations"},
	}))

	dir := t.TempDir()
	vectorPath := filepath.Join(dir, "index.scvx")
	mappingPath := filepath.Join(dir, "mapping.csv")
	require.NoError(t, vectorindex.WriteArtifact(vectorPath, mappingPath, []vectorindex.Entry{
		{URI: "occ:dev", Label: "software developer", Vector: []float32{1, 0, 0, 0}},
		{URI: "occ:chef", Label: "chef", Vector: []float32{0, 1, 0, 0}},
	}))
	ix, err := vectorindex.Load(vectorPath, mappingPath)
	require.NoError(t, err)

	engine := recommend.NewEngine(&recommend.Resources{
		Store:    store,
		Index:    ix,
		Provider: fixedProvider{dims: 4},
	})
	return NewServer(engine, store, zerolog.Nop(), Options{Addr: ":0"})
}

func doRequest(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestReadyEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyEndpointNotReady(t *testing.T) {
	srv := newTestServer(t)
	srv.engine = recommend.NewEngine(&recommend.Resources{})

	rec := doRequest(t, srv, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecommendEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/recommendations",
		`{"skills":["skill:python"],"limit":5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body taxonomy.RecommendResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.Count)
	assert.Equal(t, []string{"skill:python"}, body.Skills)
	assert.Equal(t, "occ:dev", body.Results[0].Occupation.URI)
	assert.InDelta(t, 50.0, body.Results[0].MatchPercentage, 1e-9)
}

func TestRecommendEndpointRejectsEmptySkills(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/recommendations", `{"skills":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommendEndpointRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/recommendations", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchOccupationsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/occupations?q=developer", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body taxonomy.OccupationList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "occ:dev", body.Occupations[0].URI)
}

func TestSearchOccupationsRequiresQuery(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/occupations", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSkillGapEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet,
		"/api/v1/occupations/skill-gap?occupation=occ:dev&skill=skill:python", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view taxonomy.OccupationSkillGap
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "occ:dev", view.OccupationURI)
	require.Len(t, view.EssentialSkills, 1)
	assert.True(t, view.EssentialSkills[0].Matched)
	assert.InDelta(t, 50.0, view.MatchPercentage, 1e-9)
}

func TestSkillGapEndpointUnknownOccupation(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet,
		"/api/v1/occupations/skill-gap?occupation=occ:nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchSkillsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/skills?q=python&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body taxonomy.SkillList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "skill:python", body.Skills[0].URI)
}

// failingStore errors on every lookup, standing in for an unreachable
// taxonomy backend.
type failingStore struct{}

func (failingStore) ResolveSkillLabels(context.Context, []string) ([]string, error) {
	return nil, fmt.Errorf("connection refused")
}

func (failingStore) FetchCandidates(context.Context, []string, graphstore.FilterSet) (map[string]*taxonomy.Occupation, error) {
	return nil, fmt.Errorf("connection refused")
}

func (failingStore) GetOccupation(context.Context, string) (*taxonomy.Occupation, error) {
	return nil, fmt.Errorf("connection refused")
}

func TestRecommendEndpointStoreUnavailable(t *testing.T) {
	srv := newTestServer(t)

	dir := t.TempDir()
	vectorPath := filepath.Join(dir, "index.scvx")
	mappingPath := filepath.Join(dir, "mapping.csv")
	require.NoError(t, vectorindex.WriteArtifact(vectorPath, mappingPath, []vectorindex.Entry{
		{URI: "occ:dev", Label: "software developer", Vector: []float32{1, 0, 0, 0}},
	}))
	ix, err := vectorindex.Load(vectorPath, mappingPath)
	require.NoError(t, err)
	srv.engine = recommend.NewEngine(&recommend.Resources{
		Store:    failingStore{},
		Index:    ix,
		Provider: fixedProvider{dims: 4},
	})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/recommendations",
		`{"skills":["skill:python"],"limit":5}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "taxonomy store unavailable")
}

func TestNotesLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/api/v1/notes?occupation=occ:dev&id=n1",
		`{"text":"expect kubernetes in most postings"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var note taxonomy.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &note))
	assert.Equal(t, "occ:dev", note.OccupationURI)
	assert.Equal(t, "n1", note.NoteID)
	assert.NotEmpty(t, note.CreatedAt)

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/notes?occupation=occ:dev", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page taxonomy.NotePage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "expect kubernetes in most postings", page.Notes[0].Text)

	rec = doRequest(t, srv, http.MethodDelete, "/api/v1/notes?occupation=occ:dev&id=n1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/notes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 0, page.Total)

	rec = doRequest(t, srv, http.MethodDelete, "/api/v1/notes?occupation=occ:dev&id=n1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpsertNoteValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/api/v1/notes", `{"text":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPut, "/api/v1/notes?occupation=occ:dev&id=n1", `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPut, "/api/v1/notes?occupation=occ:nope&id=n1", `{"text":"orphan"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/catalog/occupation-groups", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ICT professionals")

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/catalog/schemes", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "member occupations")
}

func TestDiagnosticsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/diagnostics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body taxonomy.StatsResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Nodes)
	assert.NotEmpty(t, body.Edges)
}
