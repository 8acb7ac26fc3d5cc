// Package retrieve finds the knowledge-base lines most relevant to a
// question. Lexical scores tf-idf cosine similarity and needs nothing but
// the lines; Vector compares embeddings kept in a store.
package retrieve

import (
	"context"
	"math"
	"sort"
)

// DefaultK is the number of lines returned when k <= 0.
const DefaultK = 5

// Document is one retrieved line.
type Document struct {
	ID     string
	Source string
	Text   string
	Score  float64
}

// Retriever returns up to k documents ordered by descending score.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Document, error)
}

// Texts returns the document texts in order.
func Texts(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Text
	}
	return out
}

// topK sorts by score and keeps the first k. Equal scores keep input order.
func topK(docs []Document, k int) []Document {
	if k <= 0 {
		k = DefaultK
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Score > docs[j].Score })
	if len(docs) > k {
		docs = docs[:k]
	}
	return docs
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}
