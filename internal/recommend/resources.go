package recommend

import (
	"context"
	"fmt"

	"github.com/skillcompass/skillcompass-go/internal/embeddings"
	"github.com/skillcompass/skillcompass-go/internal/graphstore"
	"github.com/skillcompass/skillcompass-go/internal/taxonomy"
	"github.com/skillcompass/skillcompass-go/internal/vectorindex"
)

// Store is the slice of the taxonomy store the engine depends on: mapping
// skill URIs to embedding text and loading filtered, enriched candidates.
type Store interface {
	ResolveSkillLabels(ctx context.Context, uris []string) ([]string, error)
	FetchCandidates(ctx context.Context, uris []string, filter graphstore.FilterSet) (map[string]*taxonomy.Occupation, error)
	GetOccupation(ctx context.Context, uri string) (*taxonomy.Occupation, error)
}

// Resources bundles the three serving dependencies. They are loaded once at
// startup; Ready checks their mutual consistency and is cheap to call per
// request.
type Resources struct {
	Store    Store
	Index    *vectorindex.Index
	Provider embeddings.Provider
}

// Ready reports whether all resources are present and dimensionally
// consistent. A provider whose vectors don't match the index means the
// index was built with a different model and must not be served.
func (r *Resources) Ready() error {
	if r == nil || r.Store == nil {
		return fmt.Errorf("%w: taxonomy store not loaded", ErrNotReady)
	}
	if r.Index == nil || r.Index.Len() == 0 {
		return fmt.Errorf("%w: vector index not loaded", ErrNotReady)
	}
	if r.Provider == nil {
		return fmt.Errorf("%w: embedding provider not configured", ErrNotReady)
	}
	if dims := r.Provider.Dimensions(); dims != 0 && dims != r.Index.Dimensions() {
		return fmt.Errorf("%w: provider %s produces %d dimensions, index has %d",
			ErrNotReady, r.Provider.Name(), dims, r.Index.Dimensions())
	}
	return nil
}
