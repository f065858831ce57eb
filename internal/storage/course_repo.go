package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"examvault/internal/models"

	"github.com/jackc/pgx/v5"
)

type CourseRepo struct {
	db *DB
}

func NewCourseRepo(db *DB) *CourseRepo {
	return &CourseRepo{db: db}
}

func (r *CourseRepo) ByCode(ctx context.Context, code string) (models.Course, bool, error) {
	var c models.Course
	err := r.db.Pool.QueryRow(ctx, `
SELECT course_id, code, name FROM courses WHERE code=$1`, code).
		Scan(&c.CourseID, &c.Code, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Course{}, false, nil
	}
	if err != nil {
		return models.Course{}, false, fmt.Errorf("course by code: %w", err)
	}
	return c, true, nil
}

// ByNamePrefix matches case-insensitively on the start of the course name.
// When several courses share the prefix the lexicographically smallest code
// wins, which keeps resolution deterministic across storage backends.
func (r *CourseRepo) ByNamePrefix(ctx context.Context, prefix string) (models.Course, bool, error) {
	var c models.Course
	err := r.db.Pool.QueryRow(ctx, `
SELECT course_id, code, name FROM courses
WHERE name ILIKE $1 ESCAPE '\'
ORDER BY code ASC
LIMIT 1`, escapeLike(prefix)+"%").
		Scan(&c.CourseID, &c.Code, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Course{}, false, nil
	}
	if err != nil {
		return models.Course{}, false, fmt.Errorf("course by name prefix: %w", err)
	}
	return c, true, nil
}

func (r *CourseRepo) ListCourses(ctx context.Context) ([]models.Course, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT course_id, code, name FROM courses ORDER BY code ASC`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()
	out := make([]models.Course, 0)
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.CourseID, &c.Code, &c.Name); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
