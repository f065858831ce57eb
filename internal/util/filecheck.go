package util

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/ledongthuc/pdf"
)

// CheckUpload validates a submitted scan before it is accepted for
// processing. Returns the normalized content type. Images pass on a sniff;
// PDFs must actually open and contain at least one page.
func CheckUpload(data []byte, declared string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrUnsupportedFile)
	}
	ct := strings.ToLower(strings.TrimSpace(declared))
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case "image/png", "image/jpeg", "image/webp":
		return ct, nil
	case "application/pdf":
		r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return "", fmt.Errorf("%w: unreadable pdf: %v", ErrUnsupportedFile, err)
		}
		if r.NumPage() < 1 {
			return "", fmt.Errorf("%w: pdf has no pages", ErrUnsupportedFile)
		}
		return ct, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, ct)
}
