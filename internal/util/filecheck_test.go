package util

import (
	"errors"
	"testing"
)

func TestCheckUploadSniffsPNG(t *testing.T) {
	png := append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, make([]byte, 64)...)
	ct, err := CheckUpload(png, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct != "image/png" {
		t.Fatalf("expected image/png, got %s", ct)
	}
}

func TestCheckUploadTrustsDeclaredImageType(t *testing.T) {
	ct, err := CheckUpload([]byte{0xff, 0xd8, 0xff, 0x01}, "image/jpeg; charset=binary")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %s", ct)
	}
}

func TestCheckUploadRejectsEmptyAndUnknown(t *testing.T) {
	if _, err := CheckUpload(nil, ""); !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("expected ErrUnsupportedFile for empty input, got %v", err)
	}
	if _, err := CheckUpload([]byte("plain text, not a scan"), "text/plain"); !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("expected ErrUnsupportedFile for text, got %v", err)
	}
}

func TestCheckUploadRejectsBrokenPDF(t *testing.T) {
	junk := append([]byte("%PDF-1.4 "), make([]byte, 32)...)
	if _, err := CheckUpload(junk, "application/pdf"); !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("expected ErrUnsupportedFile for truncated pdf, got %v", err)
	}
}
