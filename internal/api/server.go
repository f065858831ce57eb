package api

import (
	"context"
	"time"

	"examvault/internal/config"
	"examvault/internal/logger"
	"examvault/internal/objstore"
	"examvault/internal/payments"
	"examvault/internal/providers"
	"examvault/internal/storage"
	"examvault/internal/vector"

	"github.com/gin-gonic/gin"
	tclient "go.temporal.io/sdk/client"
)

type Server struct {
	cfg        config.Config
	log        *logger.Logger
	db         *storage.DB
	userRepo   *storage.UserRepo
	courseRepo *storage.CourseRepo
	paperRepo  *storage.PaperRepo
	searcher   *vector.Searcher
	store      objstore.Store
	providers  *providers.Manager
	payments   *payments.Client
	temporal   tclient.Client
}

func NewServer(cfg config.Config, log *logger.Logger) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	store, err := objstore.New(cfg)
	if err != nil {
		return nil, err
	}
	pm, err := providers.NewManager(cfg)
	if err != nil {
		return nil, err
	}
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:        cfg,
		log:        log,
		db:         db,
		userRepo:   storage.NewUserRepo(db),
		courseRepo: storage.NewCourseRepo(db),
		paperRepo:  storage.NewPaperRepo(db),
		searcher:   vector.NewSearcher(db.Pool),
		store:      store,
		providers:  pm,
		payments:   payments.NewClient(cfg.RazorpayKeyID, cfg.RazorpaySecret),
		temporal:   tc,
	}, nil
}

func (s *Server) Close() {
	s.temporal.Close()
	s.db.Close()
}

func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealthz)
	r.POST("/auth/signup", s.handleSignup)
	r.POST("/auth/login", s.handleLogin)

	auth := r.Group("/", s.RequireAuth())
	auth.POST("/papers", s.handleUploadPaper)
	auth.GET("/papers", s.handleListPapers)
	auth.GET("/papers/:id", s.handleGetPaper)
	auth.GET("/uploads/:id", s.handleUploadStatus)
	auth.GET("/files/*key", s.handleGetFile)
	auth.GET("/dashboard", s.handleDashboard)
	auth.GET("/courses", s.handleListCourses)
	auth.POST("/courses/browsed", s.handleTouchBrowsedCourse)
	auth.POST("/courses/enroll", s.handleEnrollCourse)
	auth.GET("/notifications", s.handleListNotifications)
	auth.DELETE("/notifications", s.handleClearNotifications)
	auth.GET("/questions/search", s.handleSearchQuestions)
	auth.POST("/payments/order", s.handleCreateOrder)
	auth.POST("/payments/verify", s.handleVerifyPayment)

	return r
}
