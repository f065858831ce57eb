package vector

import (
	"context"
	"fmt"
	"strings"

	"examvault/internal/models"

	"github.com/jackc/pgx/v5"
)

type Searcher struct {
	q Queryer
}

type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func NewSearcher(q Queryer) *Searcher {
	return &Searcher{q: q}
}

// SearchQuestions returns the questions nearest to the query vector by
// cosine distance, joined with their paper and course for display.
func (s *Searcher) SearchQuestions(ctx context.Context, queryVec []float32, topK int) ([]models.QuestionResult, error) {
	if topK <= 0 {
		topK = 8
	}
	rows, err := s.q.Query(ctx, `
SELECT q.question_id,
       q.paper_id,
       p.title,
       c.code,
       q.question,
       q.answer,
       COALESCE(q.tag, ''),
       1 - (q.embedding <=> $1::vector) AS score
FROM questions q
JOIN papers p ON p.paper_id = q.paper_id
JOIN courses c ON c.course_id = p.course_id
WHERE q.embedding IS NOT NULL
ORDER BY q.embedding <=> $1::vector
LIMIT $2`, ToLiteral(queryVec), topK)
	if err != nil {
		return nil, fmt.Errorf("query question search: %w", err)
	}
	defer rows.Close()

	results := make([]models.QuestionResult, 0, topK)
	for rows.Next() {
		var r models.QuestionResult
		if err := rows.Scan(&r.QuestionID, &r.PaperID, &r.PaperTitle, &r.CourseCode, &r.Question, &r.Answer, &r.Tag, &r.Score); err != nil {
			return nil, fmt.Errorf("scan question result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate question results: %w", err)
	}
	return results, nil
}

func ToLiteral(v []float32) string {
	parts := make([]string, 0, len(v))
	for _, x := range v {
		parts = append(parts, fmt.Sprintf("%f", x))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
