package activities

import (
	"examvault/internal/extract"
	"examvault/internal/models"
	"examvault/internal/providers"
)

type StoreImageInput struct {
	UploadID    string `json:"upload_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Image       []byte `json:"image"`
}

type StoreImageOutput struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

type ExtractPaperInput struct {
	UploadID string `json:"upload_id"`
	Image    []byte `json:"image"`
	MimeType string `json:"mime_type"`
}

type ExtractPaperOutput struct {
	RawText  string                 `json:"raw_text"`
	Provider providers.ProviderInfo `json:"provider"`
}

type ParseExtractionInput struct {
	UploadID string `json:"upload_id"`
	RawText  string `json:"raw_text"`
}

type ParseExtractionOutput struct {
	Paper extract.Paper `json:"paper"`
}

type ResolveCourseInput struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type ResolveCourseOutput struct {
	Course models.Course `json:"course"`
}

type CheckDuplicateInput struct {
	CourseID    string `json:"course_id"`
	Session     string `json:"session"`
	SessionYear int    `json:"session_year"`
	ExamType    string `json:"exam_type"`
}

type CheckDuplicateOutput struct {
	Duplicate       bool   `json:"duplicate"`
	ExistingPaperID string `json:"existing_paper_id,omitempty"`
}

type EmbedQuestionsInput struct {
	Questions []string `json:"questions"`
}

type EmbedQuestionsOutput struct {
	Vectors [][]float32 `json:"vectors"`
}

type PersistPaperInput struct {
	Title       string             `json:"title"`
	FileURL     string             `json:"file_url"`
	FileKey     string             `json:"file_key"`
	CourseID    string             `json:"course_id"`
	Session     string             `json:"session"`
	SessionYear int                `json:"session_year"`
	ExamType    string             `json:"exam_type"`
	Questions   []extract.Question `json:"questions"`
	Vectors     [][]float32        `json:"vectors,omitempty"`
}

type PersistPaperOutput struct {
	PaperID         string `json:"paper_id"`
	Duplicate       bool   `json:"duplicate,omitempty"`
	ExistingPaperID string `json:"existing_paper_id,omitempty"`
}

type RecordOutcomeInput struct {
	UserID     string  `json:"user_id"`
	Outcome    string  `json:"outcome"`
	Title      string  `json:"title"`
	CourseCode string  `json:"course_code,omitempty"`
	CourseName string  `json:"course_name,omitempty"`
	ExamType   string  `json:"exam_type,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	PaperID    *string `json:"paper_id,omitempty"`
}

type WriteIngestLogInput struct {
	UploadID string         `json:"upload_id"`
	Log      map[string]any `json:"log"`
}
