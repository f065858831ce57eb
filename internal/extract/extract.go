package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"examvault/internal/util"
)

// Sentinel the model returns for course code and/or session when it cannot
// confidently identify an exam paper.
const Unidentified = "-1"

type Course struct {
	Code flexString `json:"code"`
	Name string     `json:"name"`
}

type Question struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Tag      string `json:"tag"`
}

// Paper is the structured result of one extraction call, after sanitizing
// and parsing the raw model response.
type Paper struct {
	Course      Course     `json:"course"`
	Session     flexString `json:"session"`
	SessionYear flexInt    `json:"sessionYear"`
	ExamType    string     `json:"examType"`
	Questions   []Question `json:"questions"`
}

// IsUnidentified reports whether the model signalled that the scan is not a
// recognizable exam paper. Checked before any course lookup.
func (p Paper) IsUnidentified() bool {
	return string(p.Course.Code) == Unidentified || string(p.Session) == Unidentified
}

// Parse repairs and strictly parses a raw extraction response. A failure
// here is a pipeline rejection, not a fatal error.
func Parse(raw string) (Paper, error) {
	safe := util.SanitizeModelJSON(raw)
	var p Paper
	dec := json.NewDecoder(strings.NewReader(safe))
	if err := dec.Decode(&p); err != nil {
		return Paper{}, fmt.Errorf("%w: %v", util.ErrMalformedResponse, err)
	}
	return p, nil
}

// flexString tolerates the model emitting a JSON number (or bare -1) where
// a string is expected.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	var n json.Number
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n = json.Number(strings.TrimSpace(s))
	} else if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	v, err := n.Int64()
	if err != nil {
		return fmt.Errorf("session year %q is not an integer", n.String())
	}
	*f = flexInt(v)
	return nil
}
