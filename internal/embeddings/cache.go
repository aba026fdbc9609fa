package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skillcompass/skillcompass-go/internal/metrics"
)

// cachingProvider wraps a Provider with a Redis-backed per-text cache.
// Skill labels repeat heavily across requests, and averaging independently
// encoded vectors (rather than encoding one concatenated string) is what
// makes this cache possible.
type cachingProvider struct {
	base Provider
	rdb  *redis.Client
	ttl  time.Duration
}

// WithCache wraps base so that each input's embedding is cached in Redis,
// keyed by provider, model and input hash. A nil client or nil base returns
// base unchanged.
func WithCache(base Provider, rdb *redis.Client, ttl time.Duration) Provider {
	if base == nil || rdb == nil {
		return base
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &cachingProvider{base: base, rdb: rdb, ttl: ttl}
}

func (p *cachingProvider) Name() string    { return p.base.Name() }
func (p *cachingProvider) Model() string   { return p.base.Model() }
func (p *cachingProvider) Dimensions() int { return p.base.Dimensions() }

func (p *cachingProvider) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("emb:%s:%s:%s", p.base.Name(), p.base.Model(), hex.EncodeToString(sum[:]))
}

func (p *cachingProvider) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}

	keys := make([]string, len(inputs))
	for i, in := range inputs {
		keys[i] = p.key(in)
	}

	out := make([][]float32, len(inputs))
	missIdx := make([]int, 0, len(inputs))
	missTexts := make([]string, 0, len(inputs))

	vals, err := p.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		// Cache unavailability is not a request failure; fall through to
		// the provider for everything.
		vals = make([]interface{}, len(keys))
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok || s == "" {
			metrics.Default().IncEmbedCache(false)
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, inputs[i])
			continue
		}
		vec, derr := decodeVector([]byte(s), p.base.Dimensions())
		if derr != nil {
			metrics.Default().IncEmbedCache(false)
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, inputs[i])
			continue
		}
		metrics.Default().IncEmbedCache(true)
		out[i] = vec
	}

	if len(missTexts) > 0 {
		vecs, ferr := p.base.Embed(ctx, missTexts)
		if ferr != nil {
			return nil, ferr
		}
		if len(vecs) != len(missTexts) {
			return nil, fmt.Errorf("provider returned %d embeddings for %d inputs", len(vecs), len(missTexts))
		}
		pipe := p.rdb.Pipeline()
		for j, idx := range missIdx {
			out[idx] = vecs[j]
			pipe.Set(ctx, keys[idx], encodeVector(vecs[j]), p.ttl)
		}
		// Write-back failures only cost future hits.
		_, _ = pipe.Exec(ctx)
	}

	return out, nil
}

// encodeVector packs a float32 vector as little-endian bytes, the same
// layout the index artifact uses on disk.
func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(x))
	}
	return buf
}

func decodeVector(b []byte, dims int) ([]float32, error) {
	if len(b) != dims*4 {
		return nil, fmt.Errorf("invalid cached embedding size: expected %d bytes for %d dimensions, got %d", dims*4, dims, len(b))
	}
	out := make([]float32, dims)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4 : (i+1)*4]))
	}
	return out, nil
}
