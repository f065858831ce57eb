package util

import "errors"

var (
	ErrCourseNotFound    = errors.New("no course matches the extracted code or name")
	ErrDuplicatePaper    = errors.New("paper already exists for this course and exam")
	ErrMalformedResponse = errors.New("extraction response is not valid JSON")
	ErrUnsupportedFile   = errors.New("unsupported file type")
)
