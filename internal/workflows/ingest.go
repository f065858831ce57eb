package workflows

import (
	"strings"
	"time"

	"examvault/internal/activities"
	"examvault/internal/ledger"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const QueryGetIngestStatus = "GetIngestStatus"

// PaperIngestWorkflow runs one uploaded scan through the full pipeline:
// store, extract, parse, resolve course, duplicate check, embed, persist.
// Every run ends in exactly one outcome and exactly one RecordOutcomeActivity
// call; rejections are terminal results of the workflow, not workflow errors.
func PaperIngestWorkflow(ctx workflow.Context, input PaperIngestInput) (string, error) {
	status := IngestStatus{
		UploadID:    input.UploadID,
		Title:       input.Title,
		CurrentStep: "init",
		Status:      "processing",
		Steps:       map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetIngestStatus, func() (IngestStatus, error) {
		return status, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	// Extraction gets its own, longer deadline; vision models are slow on
	// dense scans.
	extractAO := ao
	extractAO.StartToCloseTimeout = durationOrDefault(input.ExtractTimeoutSeconds, 120)
	extractCtx := workflow.WithActivityOptions(ctx, extractAO)

	finish := func(outcome ledger.Outcome, reason string, rec activities.RecordOutcomeInput) (string, error) {
		rec.UserID = input.UserID
		rec.Outcome = string(outcome)
		rec.Title = input.Title
		rec.Reason = reason
		if err := workflow.ExecuteActivity(ctx, "RecordOutcomeActivity", rec).Get(ctx, nil); err != nil {
			return "", err
		}
		status.Outcome = string(outcome)
		if outcome == ledger.Accepted {
			status.Status = "approved"
		} else {
			status.Status = "rejected"
			status.FailReason = reason
		}
		_ = workflow.ExecuteActivity(ctx, "WriteIngestLogActivity", activities.WriteIngestLogInput{
			UploadID: input.UploadID,
			Log: map[string]any{
				"upload_id":   input.UploadID,
				"title":       input.Title,
				"filename":    input.Filename,
				"outcome":     string(outcome),
				"fail_reason": reason,
				"paper_id":    status.PaperID,
				"steps":       status.Steps,
				"finished_at": workflow.Now(ctx),
			},
		}).Get(ctx, nil)
		return string(outcome), nil
	}

	status.CurrentStep = "store_image"
	status.Steps[status.CurrentStep] = "processing"
	var stored activities.StoreImageOutput
	if err := workflow.ExecuteActivity(ctx, "StoreImageActivity", activities.StoreImageInput{
		UploadID:    input.UploadID,
		Filename:    input.Filename,
		ContentType: input.ContentType,
		Image:       input.Image,
	}).Get(ctx, &stored); err != nil {
		status.Steps[status.CurrentStep] = "failed"
		return finish(ledger.RejectedError, "failed to store the uploaded scan", activities.RecordOutcomeInput{})
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "extract"
	status.Steps[status.CurrentStep] = "processing"
	var extracted activities.ExtractPaperOutput
	if err := workflow.ExecuteActivity(extractCtx, "ExtractPaperActivity", activities.ExtractPaperInput{
		UploadID: input.UploadID,
		Image:    input.Image,
		MimeType: input.ContentType,
	}).Get(extractCtx, &extracted); err != nil {
		status.Steps[status.CurrentStep] = "failed"
		return finish(ledger.RejectedError, "extraction failed", activities.RecordOutcomeInput{})
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "parse"
	status.Steps[status.CurrentStep] = "processing"
	var parsed activities.ParseExtractionOutput
	if err := workflow.ExecuteActivity(ctx, "ParseExtractionActivity", activities.ParseExtractionInput{
		UploadID: input.UploadID,
		RawText:  extracted.RawText,
	}).Get(ctx, &parsed); err != nil {
		status.Steps[status.CurrentStep] = "failed"
		if isMalformedResponseError(err) {
			return finish(ledger.RejectedError, "could not parse the extraction response", activities.RecordOutcomeInput{})
		}
		return finish(ledger.RejectedError, "paper processing failed", activities.RecordOutcomeInput{})
	}
	if parsed.Paper.IsUnidentified() {
		status.Steps[status.CurrentStep] = "failed"
		return finish(ledger.RejectedInvalidDocument, "not a recognizable exam paper", activities.RecordOutcomeInput{})
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "resolve_course"
	status.Steps[status.CurrentStep] = "processing"
	var resolved activities.ResolveCourseOutput
	if err := workflow.ExecuteActivity(ctx, "ResolveCourseActivity", activities.ResolveCourseInput{
		Code: string(parsed.Paper.Course.Code),
		Name: parsed.Paper.Course.Name,
	}).Get(ctx, &resolved); err != nil {
		status.Steps[status.CurrentStep] = "failed"
		if isCourseNotFoundError(err) {
			return finish(ledger.RejectedCourseUnresolved, "no matching course in the catalog", activities.RecordOutcomeInput{})
		}
		return finish(ledger.RejectedError, "course lookup failed", activities.RecordOutcomeInput{})
	}
	status.CourseCode = resolved.Course.Code
	status.Steps[status.CurrentStep] = "done"

	session := string(parsed.Paper.Session)
	sessionYear := int(parsed.Paper.SessionYear)

	status.CurrentStep = "check_duplicate"
	status.Steps[status.CurrentStep] = "processing"
	var dup activities.CheckDuplicateOutput
	if err := workflow.ExecuteActivity(ctx, "CheckDuplicateActivity", activities.CheckDuplicateInput{
		CourseID:    resolved.Course.CourseID,
		Session:     session,
		SessionYear: sessionYear,
		ExamType:    parsed.Paper.ExamType,
	}).Get(ctx, &dup); err != nil {
		status.Steps[status.CurrentStep] = "failed"
		return finish(ledger.RejectedError, "duplicate check failed", activities.RecordOutcomeInput{})
	}
	if dup.Duplicate {
		status.Steps[status.CurrentStep] = "failed"
		status.PaperID = dup.ExistingPaperID
		return finish(ledger.RejectedDuplicate, "paper already archived", activities.RecordOutcomeInput{
			PaperID: optionalID(dup.ExistingPaperID),
		})
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "embed_questions"
	status.Steps[status.CurrentStep] = "processing"
	// Question and answer are embedded together so search matches on either.
	texts := make([]string, 0, len(parsed.Paper.Questions))
	for _, q := range parsed.Paper.Questions {
		texts = append(texts, strings.TrimSpace(q.Question+" "+q.Answer))
	}
	var embedded activities.EmbedQuestionsOutput
	if err := workflow.ExecuteActivity(ctx, "EmbedQuestionsActivity", activities.EmbedQuestionsInput{
		Questions: texts,
	}).Get(ctx, &embedded); err != nil {
		status.Steps[status.CurrentStep] = "failed"
		return finish(ledger.RejectedError, "question embedding failed", activities.RecordOutcomeInput{})
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "persist_paper"
	status.Steps[status.CurrentStep] = "processing"
	var persisted activities.PersistPaperOutput
	if err := workflow.ExecuteActivity(ctx, "PersistPaperActivity", activities.PersistPaperInput{
		Title:       input.Title,
		FileURL:     stored.URL,
		FileKey:     stored.Key,
		CourseID:    resolved.Course.CourseID,
		Session:     session,
		SessionYear: sessionYear,
		ExamType:    parsed.Paper.ExamType,
		Questions:   parsed.Paper.Questions,
		Vectors:     embedded.Vectors,
	}).Get(ctx, &persisted); err != nil {
		status.Steps[status.CurrentStep] = "failed"
		if isDuplicatePaperError(err) {
			return finish(ledger.RejectedDuplicate, "paper already archived", activities.RecordOutcomeInput{})
		}
		return finish(ledger.RejectedError, "failed to archive the paper", activities.RecordOutcomeInput{})
	}
	if persisted.Duplicate {
		// Lost the race against a concurrent run for the same exam key; the
		// notification links the paper that won.
		status.Steps[status.CurrentStep] = "failed"
		status.PaperID = persisted.ExistingPaperID
		return finish(ledger.RejectedDuplicate, "paper already archived", activities.RecordOutcomeInput{
			PaperID: optionalID(persisted.ExistingPaperID),
		})
	}
	status.PaperID = persisted.PaperID
	status.Steps[status.CurrentStep] = "done"

	return finish(ledger.Accepted, "", activities.RecordOutcomeInput{
		CourseCode: resolved.Course.Code,
		CourseName: resolved.Course.Name,
		ExamType:   parsed.Paper.ExamType,
		PaperID:    optionalID(persisted.PaperID),
	})
}

func isMalformedResponseError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "not valid json")
}

func isCourseNotFoundError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no course matches")
}

func isDuplicatePaperError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "already exists for this course")
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func durationOrDefault(seconds int, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
