package storage

import (
	"context"
	"errors"
	"fmt"

	"examvault/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) CreateUser(ctx context.Context, u models.User) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO users (user_id, name, email, password_hash, credit)
VALUES ($1, $2, $3, $4, $5)`,
		u.UserID, u.Name, u.Email, u.PasswordHash, u.Credit,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, userID string) (models.User, bool, error) {
	var u models.User
	err := r.db.Pool.QueryRow(ctx, `
SELECT user_id, name, email, password_hash, credit, created_at
FROM users WHERE user_id=$1`, userID).
		Scan(&u.UserID, &u.Name, &u.Email, &u.PasswordHash, &u.Credit, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, fmt.Errorf("get user by id: %w", err)
	}
	return u, true, nil
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, bool, error) {
	var u models.User
	err := r.db.Pool.QueryRow(ctx, `
SELECT user_id, name, email, password_hash, credit, created_at
FROM users WHERE email=$1`, email).
		Scan(&u.UserID, &u.Name, &u.Email, &u.PasswordHash, &u.Credit, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, fmt.Errorf("get user by email: %w", err)
	}
	return u, true, nil
}

// RecordOutcome applies one credit delta and appends one notification in a
// single transaction. The increment happens in SQL, never as an in-memory
// read-modify-write, so concurrent pipelines for the same user cannot lose
// updates.
func (r *UserRepo) RecordOutcome(ctx context.Context, userID string, delta int, message string, paperID *string) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin outcome tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if delta != 0 {
		if _, err := tx.Exec(ctx, `UPDATE users SET credit = credit + $2 WHERE user_id=$1`, userID, delta); err != nil {
			return fmt.Errorf("apply credit delta: %w", err)
		}
	}
	if _, err := tx.Exec(ctx, `
INSERT INTO notifications (notification_id, user_id, message, paper_id)
VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), userID, message, paperID,
	); err != nil {
		return fmt.Errorf("append notification: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit outcome tx: %w", err)
	}
	return nil
}

func (r *UserRepo) AddCredit(ctx context.Context, userID string, delta int) (int, error) {
	var credit int
	err := r.db.Pool.QueryRow(ctx, `
UPDATE users SET credit = credit + $2 WHERE user_id=$1 RETURNING credit`, userID, delta).Scan(&credit)
	if err != nil {
		return 0, fmt.Errorf("add credit: %w", err)
	}
	return credit, nil
}

func (r *UserRepo) ListNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT notification_id, user_id, message, paper_id, created_at
FROM notifications
WHERE user_id=$1
ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.NotificationID, &n.UserID, &n.Message, &n.PaperID, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *UserRepo) ClearNotifications(ctx context.Context, userID string) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM notifications WHERE user_id=$1`, userID); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	return nil
}

func (r *UserRepo) EnrollCourse(ctx context.Context, userID, courseID string) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO enrollments (user_id, course_id)
VALUES ($1, $2)
ON CONFLICT (user_id, course_id) DO NOTHING`, userID, courseID)
	if err != nil {
		return fmt.Errorf("enroll course: %w", err)
	}
	return nil
}

// TouchBrowsedCourse bumps the per-course hit count used by the dashboard
// feed to rank a user's most-viewed courses.
func (r *UserRepo) TouchBrowsedCourse(ctx context.Context, userID, courseID string) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO browsed_courses (user_id, course_id, hit_count)
VALUES ($1, $2, 1)
ON CONFLICT (user_id, course_id) DO UPDATE SET hit_count = browsed_courses.hit_count + 1`, userID, courseID)
	if err != nil {
		return fmt.Errorf("touch browsed course: %w", err)
	}
	return nil
}

func (r *UserRepo) ListEnrolledCourseIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT course_id FROM enrollments WHERE user_id=$1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *UserRepo) TopBrowsedCourseIDs(ctx context.Context, userID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 3
	}
	rows, err := r.db.Pool.Query(ctx, `
SELECT course_id FROM browsed_courses
WHERE user_id=$1
ORDER BY hit_count DESC, course_id ASC
LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list browsed courses: %w", err)
	}
	defer rows.Close()
	out := make([]string, 0, limit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan browsed course: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
