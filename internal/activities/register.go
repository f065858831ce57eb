package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.StoreImageActivity)
	w.RegisterActivity(a.ExtractPaperActivity)
	w.RegisterActivity(a.ParseExtractionActivity)
	w.RegisterActivity(a.ResolveCourseActivity)
	w.RegisterActivity(a.CheckDuplicateActivity)
	w.RegisterActivity(a.EmbedQuestionsActivity)
	w.RegisterActivity(a.PersistPaperActivity)
	w.RegisterActivity(a.RecordOutcomeActivity)
	w.RegisterActivity(a.WriteIngestLogActivity)
}
