package postprocessors

import (
	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driven"
	"github.com/custodia-labs/glance/internal/postprocessors/chunker"
)

// DefaultChunker is the chunker used when none is configured.
const DefaultChunker = "token"

// RegisterDefaults registers all built-in chunkers with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(DefaultChunker, buildTokenChunker)
}

// FromSettings builds the chunker named in the ingest settings.
func FromSettings(s domain.IngestSettings) (driven.Chunker, error) {
	r := NewRegistry()
	RegisterDefaults(r)

	name := s.Chunker
	if name == "" {
		name = DefaultChunker
	}
	return r.Build(name, map[string]any{
		"chunk_tokens": s.ChunkTokens,
		"overlap":      s.ChunkOverlap,
	})
}

// buildTokenChunker creates a token chunker from generic config.
// Supported config keys:
//   - chunk_tokens (int): Tokens per chunk (default: 1024)
//   - overlap (int): Overlapping tokens between chunks (default: 0)
func buildTokenChunker(cfg map[string]any) (driven.Chunker, error) {
	var opts []chunker.Option

	if cfg != nil {
		if size := getIntFromConfig(cfg, "chunk_tokens"); size > 0 {
			opts = append(opts, chunker.WithChunkSize(size))
		}
		if overlap := getIntFromConfig(cfg, "overlap"); overlap >= 0 {
			opts = append(opts, chunker.WithOverlap(overlap))
		}
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
