package retrieve

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/cognicore/logiclm/pkg/logiclm/internalerr"
	"github.com/cognicore/logiclm/pkg/logiclm/store"
)

// Embedder turns texts into vectors, one per text, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Vector ranks stored lines by cosine similarity of their embeddings to the
// query's embedding.
type Vector struct {
	Embedder Embedder
	Store    store.Store
	Source   string
	Logger   *zap.Logger
}

func (v *Vector) logger() *zap.Logger {
	if v.Logger == nil {
		return zap.NewNop()
	}
	return v.Logger
}

// Index replaces the stored lines of v.Source with lines and their embeddings.
// Everything is embedded before the store is touched, and the swap is atomic,
// so a failed Index leaves the previous index intact.
func (v *Vector) Index(ctx context.Context, lines []string) error {
	if v.Embedder == nil || v.Store == nil {
		return fmt.Errorf("%w: vector retrieval needs an embedder and a store", internalerr.ErrInvalidConfig)
	}
	if len(lines) == 0 {
		return nil
	}
	vectors, err := v.Embedder.Embed(ctx, lines)
	if err != nil {
		return fmt.Errorf("embed kb: %w", err)
	}
	if len(vectors) != len(lines) {
		return fmt.Errorf("embed kb: got %d vectors for %d lines", len(vectors), len(lines))
	}

	docs := make([]store.Document, len(lines))
	for i, line := range lines {
		if len(vectors[i]) == 0 {
			return fmt.Errorf("embed kb: empty vector for line %d", i+1)
		}
		docs[i] = store.Document{Source: v.Source, Text: line, Vector: vectors[i]}
	}
	if err := v.Store.ReplaceSource(ctx, v.Source, docs); err != nil {
		return fmt.Errorf("store %s: %w", v.Source, err)
	}
	v.logger().Info("kb indexed", zap.String("source", v.Source), zap.Int("lines", len(lines)))
	return nil
}

// Retrieve implements Retriever.
func (v *Vector) Retrieve(ctx context.Context, query string, k int) ([]Document, error) {
	if v.Embedder == nil || v.Store == nil {
		return nil, fmt.Errorf("%w: vector retrieval needs an embedder and a store", internalerr.ErrInvalidConfig)
	}
	stored, err := v.Store.Documents(ctx, v.Source)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", v.Source, err)
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("%w: no indexed lines for %s", internalerr.ErrNotFound, v.Source)
	}

	vectors, err := v.Embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vectors))
	}

	docs := make([]Document, len(stored))
	for i, d := range stored {
		docs[i] = Document{
			ID:     strconv.FormatInt(d.ID, 10),
			Source: d.Source,
			Text:   d.Text,
			Score:  cosineSimilarity(vectors[0], d.Vector),
		}
	}
	docs = topK(docs, k)
	v.logger().Debug("retrieved", zap.String("query", query), zap.Int("hits", len(docs)))
	return docs, nil
}
