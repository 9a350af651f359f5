// Package server exposes the vetting engine over HTTP: single text/script
// analysis, single file moderation, transcription, and bulk analysis with a
// live progress stream.
package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Craigmindset/prevetta/internal/model"
	"github.com/Craigmindset/prevetta/internal/pipeline"
	"github.com/Craigmindset/prevetta/internal/worker"
)

// Server wires the pipeline into HTTP handlers.
type Server struct {
	pipeline *pipeline.Pipeline
	config   *model.Config
	router   *gin.Engine
}

// New creates the server and registers routes.
func New(p *pipeline.Pipeline, cfg *model.Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		pipeline: p,
		config:   cfg,
		router:   gin.New(),
	}
	s.router.Use(gin.Recovery())

	api := s.router.Group("/api")
	api.POST("/analyze", s.handleAnalyze)
	api.POST("/moderate", s.handleModerate)
	api.POST("/transcribe", s.handleTranscribe)
	api.POST("/batch", s.handleBatch)

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

// Handler returns the HTTP handler (exposed for tests).
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until the listener fails.
func (s *Server) Run() error {
	return s.router.Run(s.config.Server.Addr)
}

type analyzeRequest struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

// handleAnalyze vets free-form script content (design/radio/tv copy).
func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No content provided", "code": model.CodeNoContent})
		return
	}

	result, err := s.pipeline.AnalyzeScript(c.Request.Context(), req.Content, model.ParseCampaignType(req.Type))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result.Verdict)
}

// moderateResponse flattens the verdict alongside the moderation echo and
// file info, matching the public moderation response shape.
type moderateResponse struct {
	model.ComplianceVerdict
	Moderation *model.ModerationReport `json:"moderation,omitempty"`
	FileInfo   *model.FileInfo         `json:"file_info"`
	Failed     map[string]string       `json:"failed_signals,omitempty"`
}

// handleModerate vets one uploaded file. The size ceiling and the
// audio/video transcription requirement are enforced before any classifier
// is invoked.
func (s *Server) handleModerate(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	if fileHeader.Size > s.config.Limits.MaxPayloadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "File too large (max 10MB)",
			"code":  model.CodePayloadTooLarge,
		})
		return
	}

	item, err := itemFromUpload(fileHeader, c.PostForm("type"), c.PostForm("transcription"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.pipeline.VetItem(c.Request.Context(), item)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, moderateResponse{
		ComplianceVerdict: result.Verdict,
		Moderation:        result.Moderation,
		FileInfo:          result.FileInfo,
		Failed:            result.FailedSignals,
	})
}

// handleTranscribe converts an uploaded audio file to text.
func (s *Server) handleTranscribe(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	if fileHeader.Size > s.config.Limits.MaxPayloadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "File too large (max 10MB)",
			"code":  model.CodePayloadTooLarge,
		})
		return
	}

	item, err := itemFromUpload(fileHeader, "generic", "")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transcription, err := s.pipeline.Transcribe(c.Request.Context(), item)
	if err != nil {
		s.writeTranscribeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transcription": transcription,
		"file_info": model.FileInfo{
			Name: item.Name,
			Size: item.Size,
			Type: item.ContentType,
		},
	})
}

// handleBatch vets N uploaded files, streaming progress events over SSE and
// finishing with the N ordered verdicts. A batch with zero files but
// non-empty script content is treated as one text-analysis request.
func (s *Server) handleBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	campaign := model.ParseCampaignType(firstValue(form.Value["type"]))
	script := firstValue(form.Value["script"])

	var items []model.Item
	for _, fh := range form.File["files"] {
		transcription := firstValue(form.Value["transcription:"+fh.Filename])
		item, uploadErr := itemFromUpload(fh, string(campaign), transcription)
		if uploadErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": uploadErr.Error()})
			return
		}
		items = append(items, item)
	}

	items = worker.ScriptFallback(items, script, campaign)
	if len(items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No content provided", "code": model.CodeNoContent})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	type progressEvent struct {
		Completed int     `json:"completed"`
		Total     int     `json:"total"`
		Percent   float64 `json:"percent"`
	}
	progressCh := make(chan progressEvent, len(items))

	orch := worker.NewOrchestrator(s.pipeline, s.config.Concurrency.Workers, func(completed, total int) {
		progressCh <- progressEvent{
			Completed: completed,
			Total:     total,
			Percent:   float64(completed) / float64(total) * 100,
		}
	})

	done := make(chan *model.BatchRun, 1)
	go func() {
		done <- orch.RunBatch(c.Request.Context(), items)
		close(progressCh)
	}()

	for ev := range progressCh {
		c.SSEvent("progress", ev)
		c.Writer.Flush()
	}

	run := <-done
	c.SSEvent("result", run)
	c.Writer.Flush()
}

// itemFromUpload reads one multipart file into an immutable item.
func itemFromUpload(fh *multipart.FileHeader, campaignType, transcription string) (model.Item, error) {
	f, err := fh.Open()
	if err != nil {
		return model.Item{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer func() { _ = f.Close() }()

	payload, err := io.ReadAll(f)
	if err != nil {
		return model.Item{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	item := model.NewItem(fh.Filename, contentType, payload, model.ParseCampaignType(campaignType))
	item.Transcription = transcription
	return item, nil
}

// writeError maps pipeline errors to HTTP status codes with structured
// error codes, never a generic failure.
func (s *Server) writeError(c *gin.Context, err error) {
	if ie, ok := model.AsInputError(err); ok {
		status := http.StatusBadRequest
		if ie.Code == model.CodePayloadTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": ie.Message, "code": ie.Code})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze content", "details": err.Error()})
}

// writeTranscribeError maps transcription failures so quota and auth
// problems stay distinguishable for the caller.
func (s *Server) writeTranscribeError(c *gin.Context, err error) {
	if ie, ok := model.AsInputError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": ie.Message, "code": ie.Code})
		return
	}
	var ce *model.ClassifierError
	if errors.As(err, &ce) {
		switch ce.Code {
		case model.CodeQuota:
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "quota_exceeded",
				"message": "Transcription quota exceeded. Please try again later or enter the content manually.",
			})
			return
		case model.CodeAuth:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "api_key_invalid",
				"message": "API configuration error. Please contact support.",
			})
			return
		}
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "transcription_failed",
		"message": "Failed to transcribe audio. Please try again or enter content manually.",
	})
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
