package extract

import (
	"errors"
	"testing"

	"examvault/internal/util"

	"github.com/stretchr/testify/require"
)

func TestParseValidPayload(t *testing.T) {
	raw := `{
  "course": {"code": "CS101", "name": "Introduction to Computer Science"},
  "session": "Fall",
  "sessionYear": 2023,
  "examType": "Final",
  "questions": [
    {"question": "Define a deadlock.", "answer": "Circular wait among processes.", "tag": "os"},
    {"question": "What is O(n log n)?", "answer": "Typical comparison sort bound.", "tag": "algorithms"}
  ]
}`
	p, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "CS101", string(p.Course.Code))
	require.Equal(t, "Fall", string(p.Session))
	require.Equal(t, 2023, int(p.SessionYear))
	require.Equal(t, "Final", p.ExamType)
	require.Len(t, p.Questions, 2)
	require.False(t, p.IsUnidentified())
}

func TestParseToleratesNumericFields(t *testing.T) {
	raw := `{"course":{"code":101,"name":"Calculus"},"session":-1,"sessionYear":"2022","examType":"Midterm","questions":[]}`
	p, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "101", string(p.Course.Code))
	require.Equal(t, "-1", string(p.Session))
	require.Equal(t, 2022, int(p.SessionYear))
	require.True(t, p.IsUnidentified())
}

func TestParseRepairsBadEscapes(t *testing.T) {
	// A lone \q is not a JSON escape; the sanitizer doubles it before parse.
	raw := "{\"course\":{\"code\":\"CS101\",\"name\":\"Intro\"},\"session\":\"Fall\",\n\"sessionYear\":2023,\"examType\":\"Final\",\"questions\":[{\"question\":\"path \\q here\",\"answer\":\"a\",\"tag\":\"\"}]}"
	p, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, p.Questions, 1)
	require.Contains(t, p.Questions[0].Question, `\q`)
}

func TestParseSentinelCourseCode(t *testing.T) {
	raw := `{"course":{"code":"-1","name":""},"session":"-1","sessionYear":0,"examType":"","questions":[]}`
	p, err := Parse(raw)
	require.NoError(t, err)
	require.True(t, p.IsUnidentified())
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse("the model apologizes and returns prose instead of json")
	require.Error(t, err)
	require.True(t, errors.Is(err, util.ErrMalformedResponse))
}
