package graphstore

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillcompass/skillcompass-go/internal/taxonomy"
)

var testDBCounter int64

// setupTestStore opens a fresh in-memory store per test. The counter keeps
// shared-cache databases from leaking state between tests.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	n := atomic.AddInt64(&testDBCounter, 1)
	config := &Config{
		URL: fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n),
	}
	store, err := NewStore(config)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// seedTaxonomy loads a small hierarchy:
//
//	scheme:member-occupations
//	  occ:dev (group C213, requires skill:python essential, skill:sql optional)
//	  occ:analyst (group C21, requires skill:sql essential)
//	occ:chef (group I51, requires skill:cooking essential) stays outside the scheme
//	group C213 -> broader C21 -> broader C2
func seedTaxonomy(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.PutOccupations(ctx, []taxonomy.Occupation{
		{URI: "occ:dev", Label: "software developer", Description: "builds software", ISCOCode: "2512"},
		{URI: "occ:analyst", Label: "data analyst", ISCOCode: "2511"},
		{URI: "occ:chef", Label: "chef", ISCOCode: "3434"},
	}))
	require.NoError(t, store.PutSkills(ctx, []taxonomy.Skill{
		{URI: "skill:python", Label: "python", SkillType: "skill/competence"},
		{URI: "skill:sql", Label: "SQL", SkillType: "skill/competence"},
		{URI: "skill:cooking", Label: "cooking", SkillType: "skill/competence"},
	}))
	require.NoError(t, store.PutOccupationGroups(ctx, []taxonomy.OccupationGroup{
		{URI: "group:C2", Code: "C2", Label: "Professionals"},
		{URI: "group:C21", Code: "C21", Label: "ICT professionals"},
		{URI: "group:C213", Code: "C213", Label: "Software developers"},
		{URI: "group:I51", Code: "I51", Label: "Cooks"},
	}))
	require.NoError(t, store.PutConceptSchemes(ctx, []taxonomy.ConceptScheme{
		{URI: "scheme:member", Label: "member occupations"},
	}))

	require.NoError(t, store.PutRequires(ctx, []RequiresEdge{
		{OccupationURI: "occ:dev", SkillURI: "skill:python", RelationType: taxonomy.RelationEssential},
		{OccupationURI: "occ:dev", SkillURI: "skill:sql", RelationType: taxonomy.RelationOptional},
		{OccupationURI: "occ:analyst", SkillURI: "skill:sql", RelationType: taxonomy.RelationEssential},
		{OccupationURI: "occ:chef", SkillURI: "skill:cooking", RelationType: taxonomy.RelationEssential},
	}))
	require.NoError(t, store.PutOccupationGroupMembers(ctx, []MembershipEdge{
		{MemberURI: "occ:dev", ContainerURI: "group:C213"},
		{MemberURI: "occ:analyst", ContainerURI: "group:C21"},
		{MemberURI: "occ:chef", ContainerURI: "group:I51"},
	}))
	require.NoError(t, store.PutBroaderEdges(ctx, []BroaderEdge{
		{NarrowerURI: "group:C213", BroaderURI: "group:C21"},
		{NarrowerURI: "group:C21", BroaderURI: "group:C2"},
	}))
	require.NoError(t, store.PutSchemeMembers(ctx, []MembershipEdge{
		{MemberURI: "occ:dev", ContainerURI: "scheme:member"},
		{MemberURI: "occ:analyst", ContainerURI: "scheme:member"},
	}))
}

func TestResolveSkillLabels(t *testing.T) {
	store := setupTestStore(t)
	seedTaxonomy(t, store)
	ctx := context.Background()

	labels, err := store.ResolveSkillLabels(ctx, []string{"skill:python", "skill:unknown", "skill:sql"})
	require.NoError(t, err)
	assert.Equal(t, []string{"python", "skill:unknown", "SQL"}, labels)
}

func TestResolveSkillLabelsEmpty(t *testing.T) {
	store := setupTestStore(t)

	labels, err := store.ResolveSkillLabels(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestFetchCandidatesUnfiltered(t *testing.T) {
	store := setupTestStore(t)
	seedTaxonomy(t, store)
	ctx := context.Background()

	byURI, err := store.FetchCandidates(ctx, []string{"occ:dev", "occ:chef", "occ:missing"}, FilterSet{})
	require.NoError(t, err)
	require.Len(t, byURI, 2)

	dev := byURI["occ:dev"]
	require.NotNil(t, dev)
	assert.Equal(t, "software developer", dev.Label)
	assert.Equal(t, "2512", dev.ISCOCode)
	require.Len(t, dev.RequiredSkills, 2)
	assert.Equal(t, "python", dev.RequiredSkills[0].Label)
	assert.Equal(t, taxonomy.RelationEssential, dev.RequiredSkills[0].RelationType)
	assert.Equal(t, "SQL", dev.RequiredSkills[1].Label)
	assert.Equal(t, taxonomy.RelationOptional, dev.RequiredSkills[1].RelationType)
	assert.Equal(t, []string{"Software developers"}, dev.GroupLabels)
	assert.Equal(t, []string{"member occupations"}, dev.SchemeLabels)
}

func TestFetchCandidatesDirectGroupFilter(t *testing.T) {
	store := setupTestStore(t)
	seedTaxonomy(t, store)
	ctx := context.Background()

	byURI, err := store.FetchCandidates(ctx, []string{"occ:dev", "occ:analyst", "occ:chef"},
		FilterSet{GroupURIs: []string{"group:C213"}})
	require.NoError(t, err)
	require.Len(t, byURI, 1)
	assert.Contains(t, byURI, "occ:dev")
}

func TestFetchCandidatesTransitiveGroupFilter(t *testing.T) {
	store := setupTestStore(t)
	seedTaxonomy(t, store)
	ctx := context.Background()

	// occ:dev is in C213, two broader hops below C2
	byURI, err := store.FetchCandidates(ctx, []string{"occ:dev", "occ:analyst", "occ:chef"},
		FilterSet{GroupURIs: []string{"group:C2"}})
	require.NoError(t, err)
	require.Len(t, byURI, 2)
	assert.Contains(t, byURI, "occ:dev")
	assert.Contains(t, byURI, "occ:analyst")
}

func TestFetchCandidatesCodePrefixFilter(t *testing.T) {
	store := setupTestStore(t)
	seedTaxonomy(t, store)
	ctx := context.Background()

	// Sever the broader edge so only code matching can connect C213 to C21.
	_, err := store.db.ExecContext(ctx, `DELETE FROM group_broader`)
	require.NoError(t, err)

	byURI, err := store.FetchCandidates(ctx, []string{"occ:dev", "occ:analyst", "occ:chef"},
		FilterSet{GroupURIs: []string{"group:C21"}})
	require.NoError(t, err)
	require.Len(t, byURI, 2)
	assert.Contains(t, byURI, "occ:dev")
	assert.Contains(t, byURI, "occ:analyst")
}

func TestFetchCandidatesSchemeFilter(t *testing.T) {
	store := setupTestStore(t)
	seedTaxonomy(t, store)
	ctx := context.Background()

	byURI, err := store.FetchCandidates(ctx, []string{"occ:dev", "occ:analyst", "occ:chef"},
		FilterSet{SchemeURIs: []string{"scheme:member"}})
	require.NoError(t, err)
	require.Len(t, byURI, 2)
	assert.NotContains(t, byURI, "occ:chef")
}

func TestFetchCandidatesCombinedFilters(t *testing.T) {
	store := setupTestStore(t)
	seedTaxonomy(t, store)
	ctx := context.Background()

	// Group and scheme filters are conjunctive.
	byURI, err := store.FetchCandidates(ctx, []string{"occ:dev", "occ:analyst", "occ:chef"},
		FilterSet{GroupURIs: []string{"group:C213"}, SchemeURIs: []string{"scheme:member"}})
	require.NoError(t, err)
	require.Len(t, byURI, 1)
	assert.Contains(t, byURI, "occ:dev")
}

func TestFetchCandidatesEmptyInput(t *testing.T) {
	store := setupTestStore(t)

	byURI, err := store.FetchCandidates(context.Background(), nil, FilterSet{})
	require.NoError(t, err)
	assert.Empty(t, byURI)
}

func TestGetOccupation(t *testing.T) {
	store := setupTestStore(t)
	seedTaxonomy(t, store)
	ctx := context.Background()

	occ, err := store.GetOccupation(ctx, "occ:analyst")
	require.NoError(t, err)
	assert.Equal(t, "data analyst", occ.Label)
	require.Len(t, occ.RequiredSkills, 1)
	assert.Equal(t, "SQL", occ.RequiredSkills[0].Label)

	_, err = store.GetOccupation(ctx, "occ:nope")
	assert.ErrorIs(t, err, ErrOccupationNotFound)
}

func TestSearchOccupations(t *testing.T) {
	store := setupTestStore(t)
	seedTaxonomy(t, store)
	ctx := context.Background()

	results, err := store.SearchOccupations(ctx, "developer", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "occ:dev", results[0].URI)

	results, err = store.SearchOccupations(ctx, "DEVELOPER", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1, "search should be case-insensitive")

	results, err = store.SearchOccupations(ctx, "zzz-not-there", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchSkills(t *testing.T) {
	store := setupTestStore(t)
	seedTaxonomy(t, store)
	ctx := context.Background()

	results, err := store.SearchSkills(ctx, "sql", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "skill:sql", results[0].URI)
}

func TestGetSkill(t *testing.T) {
	store := setupTestStore(t)
	seedTaxonomy(t, store)
	ctx := context.Background()

	sk, err := store.GetSkill(ctx, "skill:python")
	require.NoError(t, err)
	require.NotNil(t, sk)
	assert.Equal(t, "python", sk.Label)

	sk, err = store.GetSkill(ctx, "skill:nope")
	require.NoError(t, err)
	assert.Nil(t, sk)
}

func TestCatalogListings(t *testing.T) {
	store := setupTestStore(t)
	seedTaxonomy(t, store)
	ctx := context.Background()

	groups, err := store.ListOccupationGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 4)
	assert.Equal(t, "C2", groups[0].Code, "groups should come back in code order")

	schemes, err := store.ListConceptSchemes(ctx)
	require.NoError(t, err)
	require.Len(t, schemes, 1)
	assert.Equal(t, "scheme:member", schemes[0].URI)
}

func TestDiagnosticsCounts(t *testing.T) {
	store := setupTestStore(t)
	seedTaxonomy(t, store)
	ctx := context.Background()

	nodes, err := store.NodeCounts(ctx)
	require.NoError(t, err)
	byLabel := make(map[string]int64)
	for _, n := range nodes {
		byLabel[n.Label] = n.Count
	}
	assert.Equal(t, int64(3), byLabel["Occupation"])
	assert.Equal(t, int64(3), byLabel["Skill"])
	assert.Equal(t, int64(4), byLabel["OccupationGroup"])
	assert.Equal(t, int64(1), byLabel["ConceptScheme"])

	rels, err := store.RelCounts(ctx)
	require.NoError(t, err)
	byType := make(map[string]int64)
	for _, r := range rels {
		byType[r.Type] = r.Count
	}
	assert.Equal(t, int64(3), byType[taxonomy.RelationEssential])
	assert.Equal(t, int64(1), byType[taxonomy.RelationOptional])
	assert.Equal(t, int64(3), byType["in_occupation_group"])
	assert.Equal(t, int64(2), byType["broader"])
}

func TestIngestIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	seedTaxonomy(t, store)
	// Running the full seed again must not duplicate rows.
	seedTaxonomy(t, store)
	ctx := context.Background()

	nodes, err := store.NodeCounts(ctx)
	require.NoError(t, err)
	for _, n := range nodes {
		if n.Label == "Occupation" {
			assert.Equal(t, int64(3), n.Count)
		}
	}

	occ, err := store.GetOccupation(ctx, "occ:dev")
	require.NoError(t, err)
	assert.Len(t, occ.RequiredSkills, 2)
}

func TestIngestRejectsInvalidRows(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.PutOccupations(ctx, []taxonomy.Occupation{{URI: "", Label: "x"}})
	assert.Error(t, err)

	err = store.PutRequires(ctx, []RequiresEdge{{OccupationURI: "occ:a", SkillURI: ""}})
	assert.Error(t, err)

	err = store.PutBroaderEdges(ctx, []BroaderEdge{{NarrowerURI: "g:a", BroaderURI: "g:a"}})
	assert.Error(t, err)
}
