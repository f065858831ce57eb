package models

import "time"

type User struct {
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Credit       int       `json:"credit"`
	CreatedAt    time.Time `json:"created_at"`
}

// Course is immutable reference data. The ingestion pipeline looks courses
// up but never creates them.
type Course struct {
	CourseID string `json:"course_id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
}

type Paper struct {
	PaperID     string     `json:"paper_id"`
	Title       string     `json:"title"`
	FileURL     string     `json:"file_url"`
	FileKey     string     `json:"file_key"`
	CourseID    string     `json:"course_id"`
	Course      *Course    `json:"course,omitempty"`
	Session     string     `json:"session"`
	SessionYear int        `json:"session_year"`
	ExamType    string     `json:"exam_type"`
	Questions   []Question `json:"questions,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Question struct {
	QuestionID string    `json:"question_id"`
	PaperID    string    `json:"paper_id"`
	Position   int       `json:"position"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Tag        string    `json:"tag,omitempty"`
	Embedding  []float32 `json:"-"`
}

type Notification struct {
	NotificationID string    `json:"notification_id"`
	UserID         string    `json:"user_id"`
	Message        string    `json:"message"`
	PaperID        *string   `json:"paper_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type QuestionResult struct {
	QuestionID string  `json:"question_id"`
	PaperID    string  `json:"paper_id"`
	PaperTitle string  `json:"paper_title"`
	CourseCode string  `json:"course_code"`
	Question   string  `json:"question"`
	Answer     string  `json:"answer"`
	Tag        string  `json:"tag,omitempty"`
	Score      float64 `json:"score"`
}
