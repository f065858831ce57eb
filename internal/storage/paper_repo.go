package storage

import (
	"context"
	"errors"
	"fmt"

	"examvault/internal/models"
	"examvault/internal/vector"

	"github.com/jackc/pgx/v5"
)

type PaperRepo struct {
	db *DB
}

func NewPaperRepo(db *DB) *PaperRepo {
	return &PaperRepo{db: db}
}

// FindByExamKey is the duplicate check: exact equality on the uniqueness
// tuple (course, session, sessionYear, examType). Pure lookup, no side
// effects.
func (r *PaperRepo) FindByExamKey(ctx context.Context, courseID, session string, sessionYear int, examType string) (models.Paper, bool, error) {
	var p models.Paper
	err := r.db.Pool.QueryRow(ctx, `
SELECT paper_id, title, file_url, file_key, course_id, session, session_year, exam_type, created_at
FROM papers
WHERE course_id=$1 AND session=$2 AND session_year=$3 AND exam_type=$4`,
		courseID, session, sessionYear, examType).
		Scan(&p.PaperID, &p.Title, &p.FileURL, &p.FileKey, &p.CourseID, &p.Session, &p.SessionYear, &p.ExamType, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Paper{}, false, nil
	}
	if err != nil {
		return models.Paper{}, false, fmt.Errorf("find paper by exam key: %w", err)
	}
	return p, true, nil
}

// CreatePaper inserts the paper and its questions in one transaction, in
// question order. The unique index on the exam key makes a concurrent
// duplicate insert fail rather than slip through.
func (r *PaperRepo) CreatePaper(ctx context.Context, p models.Paper) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx create paper: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `
INSERT INTO papers (paper_id, title, file_url, file_key, course_id, session, session_year, exam_type)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.PaperID, p.Title, p.FileURL, p.FileKey, p.CourseID, p.Session, p.SessionYear, p.ExamType,
	); err != nil {
		return fmt.Errorf("insert paper: %w", err)
	}

	for _, q := range p.Questions {
		var emb *string
		if len(q.Embedding) > 0 {
			lit := vector.ToLiteral(q.Embedding)
			emb = &lit
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO questions (question_id, paper_id, position, question, answer, tag, embedding)
VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), CASE WHEN $7::text IS NULL THEN NULL ELSE $7::vector END)`,
			q.QuestionID, p.PaperID, q.Position, q.Question, q.Answer, q.Tag, emb,
		); err != nil {
			return fmt.Errorf("insert question %d: %w", q.Position, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit paper tx: %w", err)
	}
	return nil
}

func (r *PaperRepo) GetPaperByID(ctx context.Context, paperID string) (models.Paper, error) {
	var p models.Paper
	var c models.Course
	err := r.db.Pool.QueryRow(ctx, `
SELECT p.paper_id, p.title, p.file_url, p.file_key, p.course_id, p.session, p.session_year, p.exam_type, p.created_at,
       c.course_id, c.code, c.name
FROM papers p
JOIN courses c ON c.course_id = p.course_id
WHERE p.paper_id=$1`, paperID).
		Scan(&p.PaperID, &p.Title, &p.FileURL, &p.FileKey, &p.CourseID, &p.Session, &p.SessionYear, &p.ExamType, &p.CreatedAt,
			&c.CourseID, &c.Code, &c.Name)
	if err != nil {
		return models.Paper{}, fmt.Errorf("get paper by id: %w", err)
	}
	p.Course = &c

	rows, err := r.db.Pool.Query(ctx, `
SELECT question_id, paper_id, position, question, answer, COALESCE(tag, '')
FROM questions
WHERE paper_id=$1
ORDER BY position ASC`, paperID)
	if err != nil {
		return models.Paper{}, fmt.Errorf("list paper questions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.QuestionID, &q.PaperID, &q.Position, &q.Question, &q.Answer, &q.Tag); err != nil {
			return models.Paper{}, fmt.Errorf("scan paper question: %w", err)
		}
		p.Questions = append(p.Questions, q)
	}
	return p, rows.Err()
}

func (r *PaperRepo) ListPapers(ctx context.Context) ([]models.Paper, error) {
	return r.listPapers(ctx, `
SELECT p.paper_id, p.title, p.file_url, p.file_key, p.course_id, p.session, p.session_year, p.exam_type, p.created_at,
       c.course_id, c.code, c.name
FROM papers p
JOIN courses c ON c.course_id = p.course_id
ORDER BY p.created_at DESC`)
}

func (r *PaperRepo) ListPapersByCourses(ctx context.Context, courseIDs []string) ([]models.Paper, error) {
	if len(courseIDs) == 0 {
		return []models.Paper{}, nil
	}
	return r.listPapers(ctx, `
SELECT p.paper_id, p.title, p.file_url, p.file_key, p.course_id, p.session, p.session_year, p.exam_type, p.created_at,
       c.course_id, c.code, c.name
FROM papers p
JOIN courses c ON c.course_id = p.course_id
WHERE p.course_id = ANY($1)
ORDER BY p.created_at DESC`, courseIDs)
}

func (r *PaperRepo) ListRecentPapers(ctx context.Context, limit int) ([]models.Paper, error) {
	if limit <= 0 {
		limit = 10
	}
	return r.listPapers(ctx, `
SELECT p.paper_id, p.title, p.file_url, p.file_key, p.course_id, p.session, p.session_year, p.exam_type, p.created_at,
       c.course_id, c.code, c.name
FROM papers p
JOIN courses c ON c.course_id = p.course_id
ORDER BY p.created_at DESC
LIMIT $1`, limit)
}

func (r *PaperRepo) listPapers(ctx context.Context, sql string, args ...any) ([]models.Paper, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	defer rows.Close()
	out := make([]models.Paper, 0)
	for rows.Next() {
		var p models.Paper
		var c models.Course
		if err := rows.Scan(&p.PaperID, &p.Title, &p.FileURL, &p.FileKey, &p.CourseID, &p.Session, &p.SessionYear, &p.ExamType, &p.CreatedAt,
			&c.CourseID, &c.Code, &c.Name); err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		p.Course = &c
		out = append(out, p)
	}
	return out, rows.Err()
}
