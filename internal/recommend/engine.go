// Package recommend implements the occupation recommendation pipeline:
// skill profile encoding, nearest-neighbor retrieval, taxonomy enrichment
// with hierarchical filtering, and skill-gap annotated ranking.
package recommend

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/skillcompass/skillcompass-go/internal/embeddings"
	"github.com/skillcompass/skillcompass-go/internal/graphstore"
	"github.com/skillcompass/skillcompass-go/internal/metrics"
	"github.com/skillcompass/skillcompass-go/internal/skillgap"
	"github.com/skillcompass/skillcompass-go/internal/taxonomy"
	"github.com/skillcompass/skillcompass-go/internal/vectorindex"
)

// overFetchFactor widens the nearest-neighbor search when hierarchical
// filters are active, so that filtering the candidates down still leaves
// enough to fill the requested limit.
const overFetchFactor = 3

// DefaultLimit applies when a request leaves Limit unset.
const DefaultLimit = 10

// Engine runs recommendation queries against loaded serving resources.
type Engine struct {
	res      *Resources
	validate *validator.Validate
}

// NewEngine wires an engine over the given resources.
func NewEngine(res *Resources) *Engine {
	return &Engine{
		res:      res,
		validate: validator.New(),
	}
}

// Ready exposes the resource readiness check for health probes.
func (e *Engine) Ready() error {
	return e.res.Ready()
}

// Recommend executes the full pipeline and returns at most req.Limit
// results ordered by descending similarity.
func (e *Engine) Recommend(ctx context.Context, req taxonomy.RecommendationRequest) ([]taxonomy.RecommendationResult, error) {
	finish := metrics.TimeRecommend()
	outcome := "error"
	defer func() { finish(outcome) }()

	if req.Limit == 0 {
		req.Limit = DefaultLimit
	}
	if err := e.validate.Struct(req); err != nil {
		outcome = "invalid"
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := e.res.Ready(); err != nil {
		outcome = "not_ready"
		return nil, err
	}

	query, err := e.encodeProfile(ctx, req.SkillURIs)
	if err != nil {
		return nil, err
	}

	k := req.Limit
	if req.HasFilters() {
		k = req.Limit * overFetchFactor
	}
	hits, err := e.res.Index.Search(query, k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	if len(hits) == 0 {
		outcome = "empty"
		return []taxonomy.RecommendationResult{}, nil
	}

	// Map row ids to URIs, dropping ids the mapping cannot resolve. A bad
	// id means the index artifact and mapping drifted apart for that row;
	// one corrupt row should not fail the whole query.
	distByURI := make(map[string]float32, len(hits))
	uris := make([]string, 0, len(hits))
	for _, hit := range hits {
		uri, ok := e.res.Index.URI(hit.ID)
		if !ok {
			log.Printf("Warning: vector index returned unmapped row id %d, skipping", hit.ID)
			continue
		}
		// Hits arrive in ascending distance order, so on a duplicate URI
		// the first occurrence already carries the best distance.
		if _, seen := distByURI[uri]; !seen {
			uris = append(uris, uri)
			distByURI[uri] = hit.Distance
		}
	}

	filter := graphstore.FilterSet{GroupURIs: req.GroupURIs, SchemeURIs: req.SchemeURIs}
	candidates, err := e.res.Store.FetchCandidates(ctx, uris, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	results := make([]taxonomy.RecommendationResult, 0, len(candidates))
	for _, uri := range uris {
		occ, ok := candidates[uri]
		if !ok {
			continue
		}
		gap := skillgap.Resolve(req.SkillURIs, occ.RequiredSkills)
		results = append(results, taxonomy.RecommendationResult{
			Occupation:      *occ,
			SimilarityScore: vectorindex.CosineSimilarity(distByURI[uri]),
			Matched:         gap.Matched,
			Missing:         gap.Missing,
			MatchPercentage: gap.MatchPercentage,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SimilarityScore > results[j].SimilarityScore
	})
	if len(results) > req.Limit {
		results = results[:req.Limit]
	}

	outcome = "ok"
	return results, nil
}

// encodeProfile resolves skill URIs to labels, embeds each label separately
// and combines them into one normalized profile vector. Per-skill encoding
// keeps individual skills cacheable and weights each skill equally in the
// mean regardless of label length.
func (e *Engine) encodeProfile(ctx context.Context, skillURIs []string) ([]float32, error) {
	labels, err := e.res.Store.ResolveSkillLabels(ctx, skillURIs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	vecs, err := e.res.Provider.Embed(ctx, labels)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(vecs) != len(labels) {
		return nil, fmt.Errorf("%w: got %d vectors for %d skills", ErrEmbeddingFailed, len(vecs), len(labels))
	}
	for i, v := range vecs {
		vecs[i] = embeddings.L2Normalize(v)
	}

	query, err := embeddings.NormalizedMean(vecs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	return query, nil
}

// SkillGapFor builds the skill-gap view for one target occupation.
func (e *Engine) SkillGapFor(ctx context.Context, occupationURI string, skillURIs []string) (*taxonomy.OccupationSkillGap, error) {
	occ, err := e.res.Store.GetOccupation(ctx, occupationURI)
	if err != nil {
		return nil, err
	}
	view := skillgap.ForOccupation(occ, skillURIs)
	return &view, nil
}
