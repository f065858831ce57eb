package activities

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"examvault/internal/catalog"
	"examvault/internal/config"
	"examvault/internal/extract"
	"examvault/internal/ledger"
	"examvault/internal/logger"
	"examvault/internal/models"
	"examvault/internal/objstore"
	"examvault/internal/providers"
	"examvault/internal/storage"
	"examvault/internal/util"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"
)

const embedBatchSize = 16

type Activities struct {
	cfg       config.Config
	log       *logger.Logger
	userRepo  *storage.UserRepo
	paperRepo *storage.PaperRepo
	resolver  *catalog.Resolver
	store     objstore.Store
	providers *providers.Manager
}

func New(cfg config.Config, log *logger.Logger, db *storage.DB, store objstore.Store) (*Activities, error) {
	pm, err := providers.NewManager(cfg)
	if err != nil {
		return nil, err
	}
	return &Activities{
		cfg:       cfg,
		log:       log,
		userRepo:  storage.NewUserRepo(db),
		paperRepo: storage.NewPaperRepo(db),
		resolver:  catalog.NewResolver(storage.NewCourseRepo(db)),
		store:     store,
		providers: pm,
	}, nil
}

// StoreImageActivity uploads the original scan. The key is content-addressed
// so retries of the same upload land on the same object.
func (a *Activities) StoreImageActivity(ctx context.Context, in StoreImageInput) (StoreImageOutput, error) {
	key := a.cfg.S3Prefix + "/" + util.SHA256Hex(in.Image)[:24] + extensionFor(in.ContentType)
	obj, err := a.store.Put(ctx, key, in.Image, in.ContentType)
	if err != nil {
		return StoreImageOutput{}, fmt.Errorf("store scan: %w", err)
	}
	return StoreImageOutput{URL: obj.URL, Key: obj.Key}, nil
}

func (a *Activities) ExtractPaperActivity(ctx context.Context, in ExtractPaperInput) (ExtractPaperOutput, error) {
	resp, info, err := a.providers.Extractor().Extract(ctx, providers.ExtractRequest{
		Image:        in.Image,
		MimeType:     in.MimeType,
		Instructions: providers.ExtractionInstructions,
	})
	if err != nil {
		a.log.Warn("extraction call failed", "upload_id", in.UploadID, "provider", info.Name, "error_type", providers.ClassifyError(err), "err", err)
		return ExtractPaperOutput{}, err
	}
	return ExtractPaperOutput{RawText: resp.RawText, Provider: info}, nil
}

// ParseExtractionActivity repairs and parses the raw model response. On a
// parse failure the raw text is kept on disk for diagnosis before the error
// propagates.
func (a *Activities) ParseExtractionActivity(ctx context.Context, in ParseExtractionInput) (ParseExtractionOutput, error) {
	_ = ctx
	p, err := extract.Parse(in.RawText)
	if err != nil {
		rawPath := filepath.Join(a.cfg.DataOutRoot, "uploads", in.UploadID, "raw_response.txt")
		if werr := util.WriteTextAtomic(rawPath, in.RawText); werr != nil {
			a.log.Warn("failed to save raw response", "upload_id", in.UploadID, "err", werr)
		}
		return ParseExtractionOutput{}, err
	}
	return ParseExtractionOutput{Paper: p}, nil
}

func (a *Activities) ResolveCourseActivity(ctx context.Context, in ResolveCourseInput) (ResolveCourseOutput, error) {
	c, err := a.resolver.Resolve(ctx, in.Code, in.Name)
	if err != nil {
		return ResolveCourseOutput{}, err
	}
	return ResolveCourseOutput{Course: c}, nil
}

func (a *Activities) CheckDuplicateActivity(ctx context.Context, in CheckDuplicateInput) (CheckDuplicateOutput, error) {
	existing, found, err := a.paperRepo.FindByExamKey(ctx, in.CourseID, in.Session, in.SessionYear, in.ExamType)
	if err != nil {
		return CheckDuplicateOutput{}, err
	}
	if !found {
		return CheckDuplicateOutput{}, nil
	}
	return CheckDuplicateOutput{Duplicate: true, ExistingPaperID: existing.PaperID}, nil
}

// EmbedQuestionsActivity embeds question texts in parallel batches, keeping
// vector order aligned with question order.
func (a *Activities) EmbedQuestionsActivity(ctx context.Context, in EmbedQuestionsInput) (EmbedQuestionsOutput, error) {
	if len(in.Questions) == 0 {
		return EmbedQuestionsOutput{Vectors: [][]float32{}}, nil
	}
	vectors := make([][]float32, len(in.Questions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for start := 0; start < len(in.Questions); start += embedBatchSize {
		start := start
		end := start + embedBatchSize
		if end > len(in.Questions) {
			end = len(in.Questions)
		}
		g.Go(func() error {
			vecs, _, err := a.providers.Embedder().Embed(gctx, providers.EmbedRequest{
				Inputs:    in.Questions[start:end],
				Dimension: a.cfg.EmbedDim,
			})
			if err != nil {
				return fmt.Errorf("embed questions %d-%d: %w", start, end, err)
			}
			if len(vecs) != end-start {
				return fmt.Errorf("embed questions %d-%d: got %d vectors", start, end, len(vecs))
			}
			copy(vectors[start:], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return EmbedQuestionsOutput{}, err
	}
	return EmbedQuestionsOutput{Vectors: vectors}, nil
}

// PersistPaperActivity inserts the paper and its questions. A unique-index
// violation means a concurrent run won the race for the same exam key; it is
// surfaced as a duplicate carrying the winner's id, not a storage failure.
func (a *Activities) PersistPaperActivity(ctx context.Context, in PersistPaperInput) (PersistPaperOutput, error) {
	p := models.Paper{
		PaperID:     uuid.NewString(),
		Title:       in.Title,
		FileURL:     in.FileURL,
		FileKey:     in.FileKey,
		CourseID:    in.CourseID,
		Session:     in.Session,
		SessionYear: in.SessionYear,
		ExamType:    in.ExamType,
	}
	for i, q := range in.Questions {
		mq := models.Question{
			QuestionID: uuid.NewString(),
			PaperID:    p.PaperID,
			Position:   i,
			Question:   q.Question,
			Answer:     q.Answer,
			Tag:        q.Tag,
		}
		if i < len(in.Vectors) {
			mq.Embedding = in.Vectors[i]
		}
		p.Questions = append(p.Questions, mq)
	}
	if err := a.paperRepo.CreatePaper(ctx, p); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			existing, found, lookupErr := a.paperRepo.FindByExamKey(ctx, in.CourseID, in.Session, in.SessionYear, in.ExamType)
			if lookupErr == nil && found {
				return PersistPaperOutput{Duplicate: true, ExistingPaperID: existing.PaperID}, nil
			}
			return PersistPaperOutput{}, fmt.Errorf("%w: %s %s %d %s", util.ErrDuplicatePaper, in.CourseID, in.Session, in.SessionYear, in.ExamType)
		}
		return PersistPaperOutput{}, err
	}
	return PersistPaperOutput{PaperID: p.PaperID}, nil
}

// RecordOutcomeActivity is the single side-effect sink of a run: one credit
// delta and one notification, applied atomically by the repo.
func (a *Activities) RecordOutcomeActivity(ctx context.Context, in RecordOutcomeInput) error {
	outcome := ledger.Outcome(in.Outcome)
	delta := ledger.CreditDelta(outcome, a.cfg.AcceptCredit, a.cfg.RejectPenalty)

	var message string
	switch outcome {
	case ledger.Accepted:
		message = ledger.AcceptedMessage(in.CourseCode, in.CourseName, in.ExamType)
	case ledger.RejectedInvalidDocument:
		message = ledger.InvalidDocumentMessage(in.Title)
	case ledger.RejectedCourseUnresolved:
		message = ledger.CourseUnresolvedMessage(in.Title)
	case ledger.RejectedDuplicate:
		message = ledger.DuplicateMessage(in.Title)
	case ledger.RejectedError:
		message = ledger.ErrorMessage(in.Title, in.Reason)
	default:
		return fmt.Errorf("unknown outcome %q", in.Outcome)
	}

	if err := a.userRepo.RecordOutcome(ctx, in.UserID, delta, message, in.PaperID); err != nil {
		return err
	}
	a.log.Info("recorded ingestion outcome", "user_id", in.UserID, "outcome", in.Outcome, "credit_delta", delta)
	return nil
}

func (a *Activities) WriteIngestLogActivity(ctx context.Context, in WriteIngestLogInput) error {
	_ = ctx
	path := filepath.Join(a.cfg.DataOutRoot, "uploads", in.UploadID, "ingest_log.json")
	return util.WriteJSONAtomic(path, in.Log)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	}
	return ""
}
