package retrieve

import (
	"context"
	"math"
	"strconv"
)

// Lexical ranks lines by tf-idf weighted cosine similarity to the query.
// It is built once over a fixed set of lines and is safe for concurrent use.
type Lexical struct {
	source string
	tok    *Tokenizer
	lines  []string
	docs   []map[string]float64
	norms  []float64
	idf    map[string]float64
}

// NewLexical indexes lines. A nil tokenizer uses no stopwords.
func NewLexical(source string, lines []string, tok *Tokenizer) *Lexical {
	if tok == nil {
		tok = NewTokenizer(nil)
	}
	l := &Lexical{
		source: source,
		tok:    tok,
		lines:  append([]string(nil), lines...),
		idf:    make(map[string]float64),
	}

	counts := make([]map[string]int, len(lines))
	df := make(map[string]int)
	for i, line := range lines {
		counts[i] = termCounts(tok.Tokenize(line))
		for term := range counts[i] {
			df[term]++
		}
	}

	n := float64(len(lines))
	for term, d := range df {
		l.idf[term] = math.Log((n+1)/(float64(d)+1)) + 1
	}

	l.docs = make([]map[string]float64, len(lines))
	l.norms = make([]float64, len(lines))
	for i, c := range counts {
		l.docs[i], l.norms[i] = l.weigh(c)
	}
	return l
}

// Retrieve implements Retriever. When fewer than k lines share a term with
// the query, the remaining slots are filled in line order with score zero.
func (l *Lexical) Retrieve(ctx context.Context, query string, k int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q, qnorm := l.weigh(termCounts(l.tok.Tokenize(query)))

	docs := make([]Document, len(l.lines))
	for i, line := range l.lines {
		var score float64
		if qnorm > 0 && l.norms[i] > 0 {
			var dot float64
			for term, w := range q {
				dot += w * l.docs[i][term]
			}
			score = dot / (qnorm * l.norms[i])
		}
		docs[i] = Document{
			ID:     strconv.Itoa(i + 1),
			Source: l.source,
			Text:   line,
			Score:  score,
		}
	}
	return topK(docs, k), nil
}

// weigh turns term counts into tf-idf weights. Terms unknown to the index
// carry no weight.
func (l *Lexical) weigh(counts map[string]int) (map[string]float64, float64) {
	weights := make(map[string]float64, len(counts))
	var norm float64
	for term, c := range counts {
		idf, ok := l.idf[term]
		if !ok {
			continue
		}
		w := float64(c) * idf
		weights[term] = w
		norm += w * w
	}
	return weights, math.Sqrt(norm)
}

func termCounts(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	return counts
}
