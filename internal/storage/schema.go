package storage

import (
	"context"
	"fmt"
)

// EnsureSchema brings up the tables the repos depend on. Everything is
// IF NOT EXISTS so repeated startups are harmless.
func (db *DB) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS users (
  user_id UUID PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  credit INT NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS courses (
  course_id UUID PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS papers (
  paper_id UUID PRIMARY KEY,
  title TEXT NOT NULL,
  file_url TEXT NOT NULL,
  file_key TEXT NOT NULL,
  course_id UUID NOT NULL REFERENCES courses(course_id),
  session TEXT NOT NULL,
  session_year INT NOT NULL,
  exam_type TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_papers_exam_key
  ON papers(course_id, session, session_year, exam_type);

CREATE TABLE IF NOT EXISTS questions (
  question_id UUID PRIMARY KEY,
  paper_id UUID NOT NULL REFERENCES papers(paper_id) ON DELETE CASCADE,
  position INT NOT NULL,
  question TEXT NOT NULL,
  answer TEXT NOT NULL DEFAULT '',
  tag TEXT,
  embedding vector
);

CREATE INDEX IF NOT EXISTS idx_questions_paper ON questions(paper_id, position);

CREATE TABLE IF NOT EXISTS notifications (
  notification_id UUID PRIMARY KEY,
  user_id UUID NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
  message TEXT NOT NULL,
  paper_id UUID REFERENCES papers(paper_id) ON DELETE SET NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS enrollments (
  user_id UUID NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
  course_id UUID NOT NULL REFERENCES courses(course_id) ON DELETE CASCADE,
  PRIMARY KEY (user_id, course_id)
);

CREATE TABLE IF NOT EXISTS browsed_courses (
  user_id UUID NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
  course_id UUID NOT NULL REFERENCES courses(course_id) ON DELETE CASCADE,
  hit_count INT NOT NULL DEFAULT 0,
  PRIMARY KEY (user_id, course_id)
);
`
	if _, err := db.Pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
