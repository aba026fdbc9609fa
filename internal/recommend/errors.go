package recommend

import "errors"

// Sentinel errors callers branch on to choose a transport status code.
var (
	// ErrNotReady means the serving resources (taxonomy store, vector
	// index, embedding provider) are not all loaded and consistent.
	ErrNotReady = errors.New("recommendation engine not ready")

	// ErrInvalidRequest means the request failed structural validation
	// before any backend was touched.
	ErrInvalidRequest = errors.New("invalid recommendation request")

	// ErrEmbeddingFailed wraps provider failures while encoding the
	// user's skill profile.
	ErrEmbeddingFailed = errors.New("failed to embed skill profile")

	// ErrStoreUnavailable wraps taxonomy store failures during candidate
	// enrichment.
	ErrStoreUnavailable = errors.New("taxonomy store unavailable")
)
