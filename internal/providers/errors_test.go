package providers

import (
	"errors"
	"testing"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		msg  string
		want ErrorType
	}{
		{"gemini error 429: rate limit exceeded", ErrorRate},
		{"openai embedding error 400: insufficient_quota", ErrorQuota},
		{"gemini error 503: service unavailable", ErrorTransient},
		{"request failed: context deadline exceeded (timeout)", ErrorTransient},
		{"gemini error 400: invalid argument", ErrorPermanent},
	}
	for _, c := range cases {
		if got := ClassifyError(errors.New(c.msg)); got != c.want {
			t.Fatalf("ClassifyError(%q) = %s, want %s", c.msg, got, c.want)
		}
	}
	if got := ClassifyError(nil); got != "" {
		t.Fatalf("expected empty type for nil error, got %s", got)
	}
}
