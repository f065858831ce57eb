package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"examvault/internal/models"
	"examvault/internal/providers"
	"examvault/internal/util"
	"examvault/internal/workflows"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleSignup(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and a password of at least 8 characters are required"})
		return
	}
	if _, exists, err := s.userRepo.GetUserByEmail(c.Request.Context(), req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	} else if exists {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	user := models.User{
		UserID:       uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.userRepo.CreateUser(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	token, err := s.issueToken(user.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	user, found, err := s.userRepo.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found || !checkPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	token, err := s.issueToken(user.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// handleUploadPaper accepts a scan, validates it synchronously, and hands the
// rest of the pipeline to the ingestion workflow. The response is a 202 with
// the upload id; the outcome arrives later as a notification.
func (s *Server) handleUploadPaper(c *gin.Context) {
	userID := currentUserID(c)
	if _, found, err := s.userRepo.GetUserByID(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	} else if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxUploadBytes)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file: " + err.Error()})
		return
	}

	contentType, err := util.CheckUpload(data, header.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	title := strings.TrimSpace(c.Request.FormValue("title"))
	if title == "" {
		title = header.Filename
	}

	uploadID := uuid.NewString()
	we, err := s.temporal.ExecuteWorkflow(c.Request.Context(), tclient.StartWorkflowOptions{
		ID:        "ingest-" + uploadID,
		TaskQueue: s.cfg.TemporalTaskQueue,
	}, workflows.PaperIngestWorkflow, workflows.PaperIngestInput{
		UploadID:              uploadID,
		UserID:                userID,
		Title:                 title,
		Filename:              header.Filename,
		ContentType:           contentType,
		Image:                 data,
		ExtractTimeoutSeconds: s.cfg.ExtractTimeoutSecs,
	})
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	s.log.Info("paper submitted", "upload_id", uploadID, "user_id", userID, "title", title)
	c.JSON(http.StatusAccepted, gin.H{
		"upload_id":   uploadID,
		"workflow_id": we.GetID(),
		"run_id":      we.GetRunID(),
		"message":     "paper submitted for review",
	})
}

func (s *Server) handleListPapers(c *gin.Context) {
	papers, err := s.paperRepo.ListPapers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"papers": papers})
}

func (s *Server) handleGetPaper(c *gin.Context) {
	paper, err := s.paperRepo.GetPaperByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
		return
	}
	c.JSON(http.StatusOK, paper)
}

// handleUploadStatus reports where an in-flight upload is in the pipeline.
// While the workflow runs the live status comes from a workflow query; after
// it closes only the terminal workflow state remains.
func (s *Server) handleUploadStatus(c *gin.Context) {
	uploadID := c.Param("id")
	workflowID := "ingest-" + uploadID

	desc, err := s.temporal.DescribeWorkflowExecution(c.Request.Context(), workflowID, "")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})
		return
	}
	execStatus := desc.GetWorkflowExecutionInfo().GetStatus()
	resp := gin.H{
		"upload_id":       uploadID,
		"workflow_status": execStatus.String(),
	}
	if execStatus == enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING {
		var st workflows.IngestStatus
		if qr, qErr := s.temporal.QueryWorkflow(c.Request.Context(), workflowID, "", workflows.QueryGetIngestStatus); qErr == nil {
			if qr.Get(&st) == nil {
				resp["status"] = st
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}

// handleGetFile serves a stored scan back by its object key. With the S3
// store clients normally use the file_url directly; this path is what makes
// the in-memory store usable end to end.
func (s *Server) handleGetFile(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	data, err := s.store.Get(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}

// handleDashboard returns papers for the user's enrolled courses plus their
// most-browsed ones; a user with no history gets the most recent papers.
func (s *Server) handleDashboard(c *gin.Context) {
	userID := currentUserID(c)
	user, found, err := s.userRepo.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	enrolled, err := s.userRepo.ListEnrolledCourseIDs(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	browsed, err := s.userRepo.TopBrowsedCourseIDs(c.Request.Context(), userID, 3)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	seen := make(map[string]bool, len(enrolled)+len(browsed))
	courseIDs := make([]string, 0, len(enrolled)+len(browsed))
	for _, id := range append(enrolled, browsed...) {
		if !seen[id] {
			seen[id] = true
			courseIDs = append(courseIDs, id)
		}
	}

	var papers []models.Paper
	source := "personalized"
	if len(courseIDs) > 0 {
		papers, err = s.paperRepo.ListPapersByCourses(c.Request.Context(), courseIDs)
	} else {
		source = "recent"
		papers, err = s.paperRepo.ListRecentPapers(c.Request.Context(), 10)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "source": source, "papers": papers})
}

func (s *Server) handleListCourses(c *gin.Context) {
	courses, err := s.courseRepo.ListCourses(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func (s *Server) handleTouchBrowsedCourse(c *gin.Context) {
	var req struct {
		CourseID string `json:"course_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.CourseID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "course_id is required"})
		return
	}
	if err := s.userRepo.TouchBrowsedCourse(c.Request.Context(), currentUserID(c), req.CourseID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleEnrollCourse(c *gin.Context) {
	var req struct {
		CourseID string `json:"course_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.CourseID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "course_id is required"})
		return
	}
	if err := s.userRepo.EnrollCourse(c.Request.Context(), currentUserID(c), req.CourseID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleListNotifications(c *gin.Context) {
	notifications, err := s.userRepo.ListNotifications(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

func (s *Server) handleClearNotifications(c *gin.Context) {
	if err := s.userRepo.ClearNotifications(c.Request.Context(), currentUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleSearchQuestions(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	topK, _ := strconv.Atoi(c.Query("top_k"))

	vecs, _, err := s.providers.Embedder().Embed(c.Request.Context(), providers.EmbedRequest{
		Inputs:    []string{query},
		Dimension: s.cfg.EmbedDim,
	})
	if err != nil || len(vecs) == 0 {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to embed query"})
		return
	}
	results, err := s.searcher.SearchQuestions(c.Request.Context(), vecs[0], topK)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "results": results})
}

func (s *Server) handleCreateOrder(c *gin.Context) {
	var req struct {
		Amount int `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a positive amount is required"})
		return
	}
	receipt := "rcpt-" + uuid.NewString()[:8]
	order, err := s.payments.CreateOrder(c.Request.Context(), req.Amount, "INR", receipt)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order, "key_id": s.cfg.RazorpayKeyID})
}

func (s *Server) handleVerifyPayment(c *gin.Context) {
	var req struct {
		OrderID   string `json:"order_id"`
		PaymentID string `json:"payment_id"`
		Signature string `json:"signature"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_id, payment_id and signature are required"})
		return
	}
	if !s.payments.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment signature mismatch"})
		return
	}
	userID := currentUserID(c)
	credit, err := s.userRepo.AddCredit(c.Request.Context(), userID, s.cfg.PaymentCredit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.log.Info("payment verified", "user_id", userID, "order_id", req.OrderID, "credit", credit)
	c.JSON(http.StatusOK, gin.H{"ok": true, "credit": credit})
}
