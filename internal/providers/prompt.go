package providers

// ExtractionInstructions is the fixed template sent with every scan. The
// model must answer with JSON only; "-1" is the agreed sentinel for a scan
// it cannot identify as an exam paper.
const ExtractionInstructions = `You are given a scanned exam paper. Extract its content and answer with a single JSON object, no prose, using exactly this shape:

{
  "course": {"code": "<course code printed on the paper>", "name": "<course name printed on the paper>"},
  "session": "<exam period, e.g. Fall, Spring, Summer>",
  "sessionYear": <four digit year as a number>,
  "examType": "<e.g. Midterm, Final, Quiz>",
  "questions": [
    {"question": "<full question text>", "answer": "<model answer or empty string>", "tag": "<short topic tag>"}
  ]
}

Rules:
- Preserve question order as printed.
- If the image is not an exam paper, or you cannot read a course code or session, set "code" and "session" to "-1".
- Escape all special characters so the JSON parses strictly.
- Do not wrap the JSON in markdown fences.`
