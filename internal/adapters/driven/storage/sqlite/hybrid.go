package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"unicode"

	sqlite "modernc.org/sqlite"

	"github.com/sheldonrobinson/AI4All/internal/core/domain"
)

// Fused score weights. The vector leg dominates; the lexical leg breaks
// ties and rewards exact wording.
const (
	embdWeight = 0.8
	ftsWeight  = 0.2
)

// candidateMultiplier sizes the vector index prefilter relative to the
// requested limit.
const (
	candidateMultiplier = 8
	candidateFloor      = 128
)

var registerCosineOnce sync.Once

func init() {
	// Registration is process-wide and visible to connections opened
	// afterwards.
	registerCosineOnce.Do(func() {
		_ = sqlite.RegisterDeterministicScalarFunction("cosine_distance", 2, cosineDistanceImpl)
	})
}

func cosineDistanceImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("cosine_distance: expected 2 arguments, got %d", len(args))
	}
	a, err := blobToFloat32Slice(args[0])
	if err != nil {
		return nil, err
	}
	b, err := blobToFloat32Slice(args[1])
	if err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, nil
	}
	if len(a) != len(b) {
		return nil, fmt.Errorf("cosine_distance: dimension mismatch %d vs %d", len(a), len(b))
	}

	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		// A zero-magnitude vector has no direction; treat it as
		// orthogonal to everything.
		return 1.0, nil
	}
	return 1.0 - dot/(math.Sqrt(na2)*math.Sqrt(nb2)), nil
}

func blobToFloat32Slice(arg driver.Value) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		if len(v)%4 != 0 {
			return nil, fmt.Errorf("cosine_distance: invalid blob length %d", len(v))
		}
		return bytesToFloat32Slice(v), nil
	default:
		return nil, fmt.Errorf("cosine_distance: unsupported argument type %T; want BLOB", arg)
	}
}

// HybridQuery ranks fragments against the query text and its embedding.
// The lexical leg scores full-text matches with BM25, the vector leg
// scores cosine similarity, and both are normalised against their own
// maximum before fusing 80/20. Fragments without a lexical match keep a
// NULL fused score and sort after every fused row, ordered by their
// vector leg alone. When a vector index is attached it prefilters the
// candidate set; otherwise every fragment is scored.
func (s *Store) HybridQuery(ctx context.Context, text string, embedding []float32, limit int) ([]domain.RankedFragment, error) {
	if limit <= 0 {
		limit = domain.DefaultLimit
	}
	if dim := s.dimension(); dim != 0 && len(embedding) != dim {
		return nil, domain.NewStoreError(domain.CodeBind, "hybrid query",
			fmt.Errorf("%w: vector has %d, store has %d",
				domain.ErrDimensionMismatch, len(embedding), dim))
	}

	query, args, err := s.buildHybridQuery(ctx, text, embedding, limit)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewStoreError(domain.CodePrepare, "hybrid query", err)
	}
	defer rows.Close()

	var ranked []domain.RankedFragment //nolint:prealloc // size unknown from query
	for rows.Next() {
		var content string
		var fused sql.NullFloat64
		var normEmbd float64
		if err := rows.Scan(&content, &fused, &normEmbd); err != nil {
			return nil, domain.NewStoreError(domain.CodeRow, "hybrid query", err)
		}

		score := fused.Float64
		if !fused.Valid {
			score = embdWeight * normEmbd
		}
		ranked = append(ranked, domain.RankedFragment{Text: content, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError(domain.CodeRow, "hybrid query", err)
	}

	return ranked, nil
}

// buildHybridQuery assembles the fused ranking statement. The candidate
// prefilter and the lexical leg are only emitted when they have
// something to contribute, so the statement never evaluates a MATCH
// against an empty expression.
func (s *Store) buildHybridQuery(ctx context.Context, text string, embedding []float32, limit int) (string, []any, error) {
	args := []any{sql.Named("query_vec", float32SliceToBytes(embedding))}

	filter := ""
	candidates, err := s.candidateJSON(ctx, embedding, limit)
	if err != nil {
		return "", nil, err
	}
	if candidates != "" {
		filter = "WHERE e.frag_id IN (SELECT value FROM json_each(:candidates))"
		args = append(args, sql.Named("candidates", candidates))
	}

	ftsCTE := "SELECT NULL AS embedding_id, NULL AS score WHERE 0"
	if expr := matchExpression(text); expr != "" {
		ftsCTE = "SELECT rowid AS embedding_id, -bm25(fragment_fts) AS score " +
			"FROM fragment_fts WHERE fragment_fts MATCH :match_expr"
		args = append(args, sql.Named("match_expr", expr))
	}

	query := fmt.Sprintf(`
WITH embd AS (
	SELECT e.embedding_id, e.content,
	       1.0 - cosine_distance(e.embedding, :query_vec) AS score
	FROM embeddings e
	%s
),
fts AS (
	%s
),
normalized_scores AS (
	SELECT embd.embedding_id, embd.content,
	       fts.score / (SELECT MAX(score) FROM fts) AS norm_fts_score,
	       (embd.score + 1) / ((SELECT MAX(score) FROM embd) + 1) AS norm_embd_score
	FROM embd
	LEFT JOIN fts ON embd.embedding_id = fts.embedding_id
)
SELECT content,
       %g * norm_embd_score + %g * norm_fts_score AS score_cc,
       norm_embd_score
FROM normalized_scores
ORDER BY score_cc DESC NULLS LAST, norm_embd_score DESC
LIMIT :limit
`, filter, ftsCTE, embdWeight, ftsWeight)

	args = append(args, sql.Named("limit", limit))
	return query, args, nil
}

// candidateJSON asks the vector index for a candidate set and encodes
// it as a JSON array for the SQL side. Empty means no prefilter.
func (s *Store) candidateJSON(ctx context.Context, embedding []float32, limit int) (string, error) {
	if s.vindex == nil {
		return "", nil
	}

	k := limit * candidateMultiplier
	if k < candidateFloor {
		k = candidateFloor
	}
	hits, err := s.vindex.Search(ctx, embedding, k)
	if err != nil {
		return "", fmt.Errorf("vector search: %w", err)
	}
	if len(hits) == 0 {
		return "", nil
	}

	ids := make([]string, len(hits))
	for i, hit := range hits {
		ids[i] = hit.FragID
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encoding candidates: %w", err)
	}
	return string(encoded), nil
}

// matchExpression turns free text into a full-text match expression.
// Each alphanumeric term is quoted and the terms are OR-ed, so
// punctuation in the query cannot break the expression. Empty input
// yields an empty expression.
func matchExpression(text string) string {
	terms := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(terms) == 0 {
		return ""
	}

	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = `"` + term + `"`
	}
	return strings.Join(quoted, " OR ")
}
