// Package api handles HTTP and WebSocket API endpoints
package api

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/thereceipt/receipt-templater/internal/command"
	"github.com/thereceipt/receipt-templater/internal/engine"
	"github.com/thereceipt/receipt-templater/internal/errors"
	"github.com/thereceipt/receipt-templater/internal/printer"
	"github.com/thereceipt/receipt-templater/internal/segment"
	"github.com/thereceipt/receipt-templater/internal/templatestore"
	"github.com/thereceipt/receipt-templater/internal/validation"
	"github.com/thereceipt/receipt-templater/pkg/receiptformat"
)

// Server is the API server
type Server struct {
	router   *gin.Engine
	engine   *engine.Engine
	jobs     command.Jobs
	executor *command.Executor
	hub      *Hub
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewServer creates a new API server
func NewServer(e *engine.Engine, jobs command.Jobs, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(corsMiddleware())

	server := &Server{
		router:   router,
		engine:   e,
		jobs:     jobs,
		executor: command.NewExecutor(e, jobs),
		hub:      NewHub(logger),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
		logger: logger,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/templates", s.handleListTemplates)
	s.router.GET("/templates/:name", s.handleGetTemplate)
	s.router.PUT("/templates/:name", s.handleSaveTemplate)
	s.router.DELETE("/templates/:name", s.handleDeleteTemplate)
	s.router.GET("/templates/:name/analysis", s.handleAnalyzeTemplate)

	s.router.POST("/preview", s.handlePreview)
	s.router.POST("/print", s.handlePrint)
	s.router.POST("/events/:event", s.handleEvent)

	s.router.GET("/jobs", s.handleGetJobs)
	s.router.GET("/job/:id", s.handleGetJob)
	s.router.POST("/jobs/clear", s.handleClearJobs)
	s.router.GET("/logs", s.handleGetLogs)

	s.router.POST("/command", s.handleCommand)

	s.router.GET("/ws", s.handleWebSocket)

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// renderRequest is the body of preview and print requests. The template
// is kept undecoded until it has passed structural validation.
type renderRequest struct {
	Template       interface{} `json:"template"`
	TemplateName   string      `json:"template_name"`
	Data           interface{} `json:"data"`
	RequiredFields []string    `json:"required_fields"`
	Format         string      `json:"format"`
}

func (r renderRequest) toEngine() (engine.Request, error) {
	req := engine.Request{
		TemplateName:   r.TemplateName,
		Data:           r.Data,
		RequiredFields: r.RequiredFields,
	}
	if r.Template != nil {
		if err := validation.ValidateTemplate(r.Template); err != nil {
			return req, err
		}
		t, err := receiptformat.Decode(r.Template)
		if err != nil {
			return req, errors.Wrap(err, errors.Structural, "invalid template")
		}
		req.Template = t
	}
	return req, nil
}

func (s *Server) handleListTemplates(c *gin.Context) {
	names, err := s.engine.Templates(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	respond(c, 200, gin.H{"templates": names})
}

func (s *Server) handleGetTemplate(c *gin.Context) {
	t, err := s.engine.Load(c.Request.Context(), c.Param("name"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	respond(c, 200, t)
}

func (s *Server) handleSaveTemplate(c *gin.Context) {
	var raw interface{}
	if err := bindBody(c, &raw); err != nil {
		s.writeError(c, errors.Wrap(err, errors.Structural, "invalid request body"))
		return
	}
	if err := validation.ValidateTemplate(raw); err != nil {
		s.writeError(c, err)
		return
	}
	t, err := receiptformat.Decode(raw)
	if err != nil {
		s.writeError(c, errors.Wrap(err, errors.Structural, "invalid template"))
		return
	}

	name := c.Param("name")
	if err := s.engine.SaveTemplate(c.Request.Context(), name, t); err != nil {
		s.writeError(c, err)
		return
	}
	respond(c, 200, gin.H{"success": true, "name": name})
}

func (s *Server) handleDeleteTemplate(c *gin.Context) {
	if err := s.engine.DeleteTemplate(c.Request.Context(), c.Param("name")); err != nil {
		s.writeError(c, err)
		return
	}
	respond(c, 200, gin.H{"success": true})
}

func (s *Server) handleAnalyzeTemplate(c *gin.Context) {
	a, err := s.engine.Analyze(c.Request.Context(), c.Param("name"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if c.Query("format") == "markdown" {
		c.Data(200, "text/markdown; charset=utf-8", []byte(a.Markdown()))
		return
	}
	respond(c, 200, a)
}

// handlePreview renders a template as text, or as PNG with format=png.
func (s *Server) handlePreview(c *gin.Context) {
	var body renderRequest
	if err := bindBody(c, &body); err != nil {
		s.writeError(c, errors.Wrap(err, errors.Structural, "invalid request body"))
		return
	}
	req, err := body.toEngine()
	if err != nil {
		s.writeError(c, err)
		return
	}

	if body.Format == "png" || c.Query("format") == "png" {
		png, _, err := s.engine.PreviewPNG(c.Request.Context(), req)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.Data(200, "image/png", png)
		return
	}

	text, doc, err := s.engine.Preview(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	respond(c, 200, gin.H{
		"success":     doc.Outcome.Success,
		"previewText": text,
		"outcome":     doc.Outcome,
	})
}

// handlePrint handles a print request
func (s *Server) handlePrint(c *gin.Context) {
	var body renderRequest
	if err := bindBody(c, &body); err != nil {
		s.writeError(c, errors.Wrap(err, errors.Structural, "invalid request body"))
		return
	}
	req, err := body.toEngine()
	if err != nil {
		s.writeError(c, err)
		return
	}

	jobID, doc, err := s.engine.Print(c.Request.Context(), "", req)
	if err != nil {
		s.writeOutcomeError(c, err, doc)
		return
	}
	respond(c, 200, gin.H{
		"success": true,
		"job_id":  jobID,
		"outcome": doc.Outcome,
	})
}

// handleEvent prints the template bound to the event with the body as data.
func (s *Server) handleEvent(c *gin.Context) {
	var data interface{}
	if err := bindBody(c, &data); err != nil {
		s.writeError(c, errors.Wrap(err, errors.Data, "invalid request body"))
		return
	}

	jobID, doc, err := s.engine.HandleEvent(c.Request.Context(), c.Param("event"), data)
	if err != nil {
		s.writeOutcomeError(c, err, doc)
		return
	}
	respond(c, 200, gin.H{
		"success": true,
		"job_id":  jobID,
		"outcome": doc.Outcome,
	})
}

// handleGetJobs returns all print jobs
func (s *Server) handleGetJobs(c *gin.Context) {
	respond(c, 200, gin.H{"jobs": s.jobs.GetAllJobs()})
}

// handleGetJob returns a specific print job
func (s *Server) handleGetJob(c *gin.Context) {
	job, ok := s.jobs.GetJob(c.Param("id"))
	if !ok {
		respond(c, 404, gin.H{"success": false, "error": "job not found"})
		return
	}
	respond(c, 200, job)
}

func (s *Server) handleClearJobs(c *gin.Context) {
	s.jobs.ClearCompleted()
	respond(c, 200, gin.H{"success": true})
}

func (s *Server) handleGetLogs(c *gin.Context) {
	respond(c, 200, gin.H{"logs": s.jobs.Logs()})
}

// handleCommand handles command execution requests
func (s *Server) handleCommand(c *gin.Context) {
	var req struct {
		Command string `json:"command" binding:"required"`
	}

	if err := bindBody(c, &req); err != nil || req.Command == "" {
		respond(c, 400, gin.H{"success": false, "error": "command is required"})
		return
	}

	result := s.executor.Execute(c.Request.Context(), req.Command)
	if !result.Success {
		respond(c, 400, result)
		return
	}
	respond(c, 200, result)
}

// BroadcastJobStatus sends a job's state to every WebSocket client.
func (s *Server) BroadcastJobStatus(job printer.PrintJob) {
	s.hub.Broadcast(WSMessage{
		Event: EventJobStatus,
		Data: map[string]interface{}{
			"id":           job.ID,
			"eventType":    job.EventType,
			"templateName": job.TemplateName,
			"status":       job.Status,
			"attempts":     job.Attempts,
			"error":        job.Error,
			"errorType":    job.ErrorType,
		},
	})
}

// statusFor maps an error category to an HTTP status.
func statusFor(err error) int {
	if stderrors.Is(err, templatestore.ErrNotFound) {
		return http.StatusNotFound
	}
	if stderrors.Is(err, templatestore.ErrInvalidName) {
		return http.StatusBadRequest
	}
	switch errors.CategoryOf(err) {
	case errors.Structural, errors.Data:
		return http.StatusBadRequest
	case errors.Timeout:
		return http.StatusGatewayTimeout
	case errors.Transport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	s.writeOutcomeError(c, err, nil)
}

// writeOutcomeError reports err, with the render outcome when there is one.
func (s *Server) writeOutcomeError(c *gin.Context, err error, doc *segment.Document) {
	status := statusFor(err)
	body := gin.H{
		"success":     false,
		"error":       errorBody(err),
		"userMessage": errors.UserMessage(err),
	}
	if doc != nil && doc.Outcome != nil {
		body["outcome"] = doc.Outcome
	}
	if status >= 500 {
		s.logger.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	} else {
		s.logger.Debug().Err(err).Str("path", c.FullPath()).Msg("Request rejected")
	}
	respond(c, status, body)
}

func errorBody(err error) interface{} {
	var e *errors.Error
	if errors.As(err, &e) {
		return e
	}
	return gin.H{"message": err.Error()}
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
