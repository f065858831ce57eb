package workflows

type PaperIngestInput struct {
	UploadID              string `json:"upload_id"`
	UserID                string `json:"user_id"`
	Title                 string `json:"title"`
	Filename              string `json:"filename"`
	ContentType           string `json:"content_type"`
	Image                 []byte `json:"image"`
	ExtractTimeoutSeconds int    `json:"extract_timeout_seconds"`
}

type IngestStatus struct {
	UploadID    string            `json:"upload_id"`
	Title       string            `json:"title"`
	CurrentStep string            `json:"current_step"`
	Status      string            `json:"status"`
	Outcome     string            `json:"outcome,omitempty"`
	FailReason  string            `json:"fail_reason,omitempty"`
	PaperID     string            `json:"paper_id,omitempty"`
	CourseCode  string            `json:"course_code,omitempty"`
	Steps       map[string]string `json:"steps"`
}
