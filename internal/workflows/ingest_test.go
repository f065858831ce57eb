package workflows

import (
	"context"
	"errors"
	"testing"

	"examvault/internal/activities"
	"examvault/internal/extract"
	"examvault/internal/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
)

const validRawResponse = `{"course":{"code":"CS101","name":"Operating Systems"},"session":"Fall","sessionYear":2021,"examType":"Final","questions":[{"question":"Define a deadlock.","answer":"Circular wait on resources.","tag":"concurrency"},{"question":"What is paging?","answer":"Fixed-size virtual memory mapping.","tag":"memory"}]}`

const unidentifiedRawResponse = `{"course":{"code":-1,"name":"-1"},"session":"-1","sessionYear":-1,"examType":"","questions":[]}`

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func courseFixture() models.Course {
	return models.Course{CourseID: "course-1", Code: "CS101", Name: "Operating Systems"}
}

func registerIngestStubs(env *testsuite.TestWorkflowEnvironment, record func(context.Context, activities.RecordOutcomeInput) error) {
	if record == nil {
		record = func(context.Context, activities.RecordOutcomeInput) error { return nil }
	}
	registerActivityName(env, "RecordOutcomeActivity", record)
	registerActivityName(env, "StoreImageActivity", func(context.Context, activities.StoreImageInput) (activities.StoreImageOutput, error) {
		return activities.StoreImageOutput{URL: "memory://stub", Key: "stub"}, nil
	})
	registerActivityName(env, "ExtractPaperActivity", func(context.Context, activities.ExtractPaperInput) (activities.ExtractPaperOutput, error) {
		return activities.ExtractPaperOutput{}, nil
	})
	registerActivityName(env, "ParseExtractionActivity", func(_ context.Context, in activities.ParseExtractionInput) (activities.ParseExtractionOutput, error) {
		p, err := extract.Parse(in.RawText)
		if err != nil {
			return activities.ParseExtractionOutput{}, err
		}
		return activities.ParseExtractionOutput{Paper: p}, nil
	})
	registerActivityName(env, "ResolveCourseActivity", func(context.Context, activities.ResolveCourseInput) (activities.ResolveCourseOutput, error) {
		return activities.ResolveCourseOutput{}, nil
	})
	registerActivityName(env, "CheckDuplicateActivity", func(context.Context, activities.CheckDuplicateInput) (activities.CheckDuplicateOutput, error) {
		return activities.CheckDuplicateOutput{}, nil
	})
	registerActivityName(env, "EmbedQuestionsActivity", func(_ context.Context, in activities.EmbedQuestionsInput) (activities.EmbedQuestionsOutput, error) {
		return activities.EmbedQuestionsOutput{Vectors: make([][]float32, len(in.Questions))}, nil
	})
	registerActivityName(env, "PersistPaperActivity", func(context.Context, activities.PersistPaperInput) (activities.PersistPaperOutput, error) {
		return activities.PersistPaperOutput{}, nil
	})
	registerActivityName(env, "WriteIngestLogActivity", func(context.Context, activities.WriteIngestLogInput) error { return nil })
}

func ingestInput() PaperIngestInput {
	return PaperIngestInput{
		UploadID:    "up-1",
		UserID:      "u1",
		Title:       "os-final",
		Filename:    "os-final.png",
		ContentType: "image/png",
		Image:       []byte("scan bytes"),
	}
}

func strPtr(s string) *string { return &s }

func TestPaperIngestWorkflowAccepted(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(PaperIngestWorkflow)
	registerIngestStubs(env, nil)

	env.OnActivity("StoreImageActivity", mock.Anything, mock.Anything).Return(activities.StoreImageOutput{URL: "memory://exam_papers/abc.png", Key: "exam_papers/abc.png"}, nil)
	env.OnActivity("ExtractPaperActivity", mock.Anything, mock.Anything).Return(activities.ExtractPaperOutput{RawText: validRawResponse}, nil)
	env.OnActivity("ResolveCourseActivity", mock.Anything, activities.ResolveCourseInput{Code: "CS101", Name: "Operating Systems"}).Return(activities.ResolveCourseOutput{Course: courseFixture()}, nil)
	env.OnActivity("CheckDuplicateActivity", mock.Anything, activities.CheckDuplicateInput{CourseID: "course-1", Session: "Fall", SessionYear: 2021, ExamType: "Final"}).Return(activities.CheckDuplicateOutput{}, nil)
	env.OnActivity("EmbedQuestionsActivity", mock.Anything, activities.EmbedQuestionsInput{Questions: []string{
		"Define a deadlock. Circular wait on resources.",
		"What is paging? Fixed-size virtual memory mapping.",
	}}).Return(activities.EmbedQuestionsOutput{Vectors: [][]float32{{0.1}, {0.2}}}, nil)
	env.OnActivity("PersistPaperActivity", mock.Anything, mock.Anything).Return(activities.PersistPaperOutput{PaperID: "paper-1"}, nil)
	env.OnActivity("RecordOutcomeActivity", mock.Anything, activities.RecordOutcomeInput{
		UserID:     "u1",
		Outcome:    "accepted",
		Title:      "os-final",
		CourseCode: "CS101",
		CourseName: "Operating Systems",
		ExamType:   "Final",
		PaperID:    strPtr("paper-1"),
	}).Return(nil).Once()

	env.ExecuteWorkflow(PaperIngestWorkflow, ingestInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "accepted", out)

	v, err := env.QueryWorkflow(QueryGetIngestStatus)
	require.NoError(t, err)
	var st IngestStatus
	require.NoError(t, v.Get(&st))
	require.Equal(t, "approved", st.Status)
	require.Equal(t, "paper-1", st.PaperID)
	require.Equal(t, "CS101", st.CourseCode)

	env.AssertExpectations(t)
}

func TestPaperIngestWorkflowUnidentifiedScan(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(PaperIngestWorkflow)
	registerIngestStubs(env, nil)

	env.OnActivity("ExtractPaperActivity", mock.Anything, mock.Anything).Return(activities.ExtractPaperOutput{RawText: unidentifiedRawResponse}, nil)
	env.OnActivity("RecordOutcomeActivity", mock.Anything, activities.RecordOutcomeInput{
		UserID:  "u1",
		Outcome: "rejected_invalid_document",
		Title:   "os-final",
		Reason:  "not a recognizable exam paper",
	}).Return(nil).Once()

	env.ExecuteWorkflow(PaperIngestWorkflow, ingestInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "rejected_invalid_document", out)

	env.AssertExpectations(t)
}

func TestPaperIngestWorkflowCourseUnresolved(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(PaperIngestWorkflow)
	registerIngestStubs(env, nil)

	env.OnActivity("ExtractPaperActivity", mock.Anything, mock.Anything).Return(activities.ExtractPaperOutput{RawText: validRawResponse}, nil)
	env.OnActivity("ResolveCourseActivity", mock.Anything, mock.Anything).Return(activities.ResolveCourseOutput{}, errors.New(`no course matches the extracted code or name: code="CS101" name="Operating Systems"`))
	env.OnActivity("RecordOutcomeActivity", mock.Anything, activities.RecordOutcomeInput{
		UserID:  "u1",
		Outcome: "rejected_course_unresolved",
		Title:   "os-final",
		Reason:  "no matching course in the catalog",
	}).Return(nil).Once()

	env.ExecuteWorkflow(PaperIngestWorkflow, ingestInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "rejected_course_unresolved", out)

	env.AssertExpectations(t)
}

func TestPaperIngestWorkflowDuplicate(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(PaperIngestWorkflow)
	registerIngestStubs(env, nil)

	env.OnActivity("ExtractPaperActivity", mock.Anything, mock.Anything).Return(activities.ExtractPaperOutput{RawText: validRawResponse}, nil)
	env.OnActivity("ResolveCourseActivity", mock.Anything, mock.Anything).Return(activities.ResolveCourseOutput{Course: courseFixture()}, nil)
	env.OnActivity("CheckDuplicateActivity", mock.Anything, mock.Anything).Return(activities.CheckDuplicateOutput{Duplicate: true, ExistingPaperID: "paper-9"}, nil)
	env.OnActivity("RecordOutcomeActivity", mock.Anything, activities.RecordOutcomeInput{
		UserID:  "u1",
		Outcome: "rejected_duplicate",
		Title:   "os-final",
		Reason:  "paper already archived",
		PaperID: strPtr("paper-9"),
	}).Return(nil).Once()

	env.ExecuteWorkflow(PaperIngestWorkflow, ingestInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "rejected_duplicate", out)

	v, err := env.QueryWorkflow(QueryGetIngestStatus)
	require.NoError(t, err)
	var st IngestStatus
	require.NoError(t, v.Get(&st))
	require.Equal(t, "rejected", st.Status)
	require.Equal(t, "paper-9", st.PaperID)

	env.AssertExpectations(t)
}

func TestPaperIngestWorkflowExtractionFailure(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(PaperIngestWorkflow)
	registerIngestStubs(env, nil)

	env.OnActivity("ExtractPaperActivity", mock.Anything, mock.Anything).Return(activities.ExtractPaperOutput{}, errors.New("gemini error 500: internal"))
	env.OnActivity("RecordOutcomeActivity", mock.Anything, activities.RecordOutcomeInput{
		UserID:  "u1",
		Outcome: "rejected_error",
		Title:   "os-final",
		Reason:  "extraction failed",
	}).Return(nil).Once()

	env.ExecuteWorkflow(PaperIngestWorkflow, ingestInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "rejected_error", out)

	env.AssertExpectations(t)
}

func TestPaperIngestWorkflowMalformedResponse(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(PaperIngestWorkflow)
	registerIngestStubs(env, nil)

	env.OnActivity("ExtractPaperActivity", mock.Anything, mock.Anything).Return(activities.ExtractPaperOutput{RawText: "Sure! Here is the paper you asked for."}, nil)
	env.OnActivity("RecordOutcomeActivity", mock.Anything, activities.RecordOutcomeInput{
		UserID:  "u1",
		Outcome: "rejected_error",
		Title:   "os-final",
		Reason:  "could not parse the extraction response",
	}).Return(nil).Once()

	env.ExecuteWorkflow(PaperIngestWorkflow, ingestInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "rejected_error", out)

	env.AssertExpectations(t)
}

// An infrastructure failure during course resolution is not a workflow
// error; the run still ends with an outcome and a notification.
func TestPaperIngestWorkflowResolveInfrastructureFailure(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(PaperIngestWorkflow)
	registerIngestStubs(env, nil)

	env.OnActivity("ExtractPaperActivity", mock.Anything, mock.Anything).Return(activities.ExtractPaperOutput{RawText: validRawResponse}, nil)
	env.OnActivity("ResolveCourseActivity", mock.Anything, mock.Anything).Return(activities.ResolveCourseOutput{}, errors.New("dial tcp 127.0.0.1:5432: connection refused"))
	env.OnActivity("RecordOutcomeActivity", mock.Anything, activities.RecordOutcomeInput{
		UserID:  "u1",
		Outcome: "rejected_error",
		Title:   "os-final",
		Reason:  "course lookup failed",
	}).Return(nil).Once()

	env.ExecuteWorkflow(PaperIngestWorkflow, ingestInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "rejected_error", out)

	env.AssertExpectations(t)
}

func TestPaperIngestWorkflowParseInfrastructureFailure(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(PaperIngestWorkflow)
	registerIngestStubs(env, nil)

	env.OnActivity("ExtractPaperActivity", mock.Anything, mock.Anything).Return(activities.ExtractPaperOutput{RawText: validRawResponse}, nil)
	env.OnActivity("ParseExtractionActivity", mock.Anything, mock.Anything).Return(activities.ParseExtractionOutput{}, errors.New("write /data/out/uploads: no space left on device"))
	env.OnActivity("RecordOutcomeActivity", mock.Anything, activities.RecordOutcomeInput{
		UserID:  "u1",
		Outcome: "rejected_error",
		Title:   "os-final",
		Reason:  "paper processing failed",
	}).Return(nil).Once()

	env.ExecuteWorkflow(PaperIngestWorkflow, ingestInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "rejected_error", out)

	env.AssertExpectations(t)
}

// A run that loses the unique-index race on insert is a duplicate, and its
// notification links the paper that won.
func TestPaperIngestWorkflowPersistRaceLinksWinner(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(PaperIngestWorkflow)
	registerIngestStubs(env, nil)

	env.OnActivity("ExtractPaperActivity", mock.Anything, mock.Anything).Return(activities.ExtractPaperOutput{RawText: validRawResponse}, nil)
	env.OnActivity("ResolveCourseActivity", mock.Anything, mock.Anything).Return(activities.ResolveCourseOutput{Course: courseFixture()}, nil)
	env.OnActivity("PersistPaperActivity", mock.Anything, mock.Anything).Return(activities.PersistPaperOutput{Duplicate: true, ExistingPaperID: "paper-7"}, nil)
	env.OnActivity("RecordOutcomeActivity", mock.Anything, activities.RecordOutcomeInput{
		UserID:  "u1",
		Outcome: "rejected_duplicate",
		Title:   "os-final",
		Reason:  "paper already archived",
		PaperID: strPtr("paper-7"),
	}).Return(nil).Once()

	env.ExecuteWorkflow(PaperIngestWorkflow, ingestInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "rejected_duplicate", out)

	v, err := env.QueryWorkflow(QueryGetIngestStatus)
	require.NoError(t, err)
	var st IngestStatus
	require.NoError(t, v.Get(&st))
	require.Equal(t, "paper-7", st.PaperID)

	env.AssertExpectations(t)
}

// Every terminal path must record exactly one outcome, whichever step the
// run dies on.
func TestPaperIngestWorkflowRecordsOutcomeExactlyOnce(t *testing.T) {
	cases := []struct {
		name  string
		setup func(env *testsuite.TestWorkflowEnvironment)
	}{
		{
			name: "store failure",
			setup: func(env *testsuite.TestWorkflowEnvironment) {
				env.OnActivity("StoreImageActivity", mock.Anything, mock.Anything).Return(activities.StoreImageOutput{}, errors.New("bucket unavailable"))
			},
		},
		{
			name: "embed failure",
			setup: func(env *testsuite.TestWorkflowEnvironment) {
				env.OnActivity("ExtractPaperActivity", mock.Anything, mock.Anything).Return(activities.ExtractPaperOutput{RawText: validRawResponse}, nil)
				env.OnActivity("ResolveCourseActivity", mock.Anything, mock.Anything).Return(activities.ResolveCourseOutput{Course: courseFixture()}, nil)
				env.OnActivity("EmbedQuestionsActivity", mock.Anything, mock.Anything).Return(activities.EmbedQuestionsOutput{}, errors.New("embedding provider down"))
			},
		},
		{
			name: "resolve infrastructure failure",
			setup: func(env *testsuite.TestWorkflowEnvironment) {
				env.OnActivity("ExtractPaperActivity", mock.Anything, mock.Anything).Return(activities.ExtractPaperOutput{RawText: validRawResponse}, nil)
				env.OnActivity("ResolveCourseActivity", mock.Anything, mock.Anything).Return(activities.ResolveCourseOutput{}, errors.New("dial tcp 127.0.0.1:5432: connection refused"))
			},
		},
		{
			name: "parse infrastructure failure",
			setup: func(env *testsuite.TestWorkflowEnvironment) {
				env.OnActivity("ExtractPaperActivity", mock.Anything, mock.Anything).Return(activities.ExtractPaperOutput{RawText: validRawResponse}, nil)
				env.OnActivity("ParseExtractionActivity", mock.Anything, mock.Anything).Return(activities.ParseExtractionOutput{}, errors.New("no space left on device"))
			},
		},
		{
			name: "persist loses duplicate race",
			setup: func(env *testsuite.TestWorkflowEnvironment) {
				env.OnActivity("ExtractPaperActivity", mock.Anything, mock.Anything).Return(activities.ExtractPaperOutput{RawText: validRawResponse}, nil)
				env.OnActivity("ResolveCourseActivity", mock.Anything, mock.Anything).Return(activities.ResolveCourseOutput{Course: courseFixture()}, nil)
				env.OnActivity("PersistPaperActivity", mock.Anything, mock.Anything).Return(activities.PersistPaperOutput{Duplicate: true, ExistingPaperID: "paper-7"}, nil)
			},
		},
		{
			name: "persist race winner lookup also fails",
			setup: func(env *testsuite.TestWorkflowEnvironment) {
				env.OnActivity("ExtractPaperActivity", mock.Anything, mock.Anything).Return(activities.ExtractPaperOutput{RawText: validRawResponse}, nil)
				env.OnActivity("ResolveCourseActivity", mock.Anything, mock.Anything).Return(activities.ResolveCourseOutput{Course: courseFixture()}, nil)
				env.OnActivity("PersistPaperActivity", mock.Anything, mock.Anything).Return(activities.PersistPaperOutput{}, errors.New("paper already exists for this course and exam: course-1 Fall 2021 Final"))
			},
		},
		{
			name: "success",
			setup: func(env *testsuite.TestWorkflowEnvironment) {
				env.OnActivity("ExtractPaperActivity", mock.Anything, mock.Anything).Return(activities.ExtractPaperOutput{RawText: validRawResponse}, nil)
				env.OnActivity("ResolveCourseActivity", mock.Anything, mock.Anything).Return(activities.ResolveCourseOutput{Course: courseFixture()}, nil)
				env.OnActivity("PersistPaperActivity", mock.Anything, mock.Anything).Return(activities.PersistPaperOutput{PaperID: "paper-1"}, nil)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ts testsuite.WorkflowTestSuite
			env := ts.NewTestWorkflowEnvironment()
			env.RegisterWorkflow(PaperIngestWorkflow)
			calls := 0
			registerIngestStubs(env, func(context.Context, activities.RecordOutcomeInput) error {
				calls++
				return nil
			})
			tc.setup(env)

			env.ExecuteWorkflow(PaperIngestWorkflow, ingestInput())
			require.True(t, env.IsWorkflowCompleted())
			require.NoError(t, env.GetWorkflowError())
			require.Equal(t, 1, calls)
		})
	}
}
