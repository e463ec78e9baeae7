package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roach88/exgen/internal/ir"
	"github.com/roach88/exgen/internal/service"
)

// Exercises is the part of service.Service the handlers call.
type Exercises interface {
	ListTemplates() []service.Summary
	TemplatesForLesson(lessonID string) []service.Summary
	Template(id string) (*ir.Template, error)
	Generate(ctx context.Context, id string, seed *int64) (*ir.ExerciseInstance, error)
	Regenerate(ctx context.Context, id string) (*ir.ExerciseInstance, error)
}

// TemplateHandler serves template queries and generation.
type TemplateHandler struct {
	log *slog.Logger
	svc Exercises
}

// NewTemplateHandler creates a TemplateHandler.
func NewTemplateHandler(log *slog.Logger, svc Exercises) *TemplateHandler {
	return &TemplateHandler{
		log: log.With("handler", "TemplateHandler"),
		svc: svc,
	}
}

// GenerateRequest is the optional body of a generate call.
type GenerateRequest struct {
	Seed *int64 `json:"seed"`
}

// HealthCheck answers liveness probes.
func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /api/templates
// List every template.
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	RespondOK(c, gin.H{"templates": h.svc.ListTemplates()})
}

// GET /api/lessons/:id/templates
// List the templates of one lesson. An unknown lesson has none.
func (h *TemplateHandler) LessonTemplates(c *gin.Context) {
	RespondOK(c, gin.H{"templates": h.svc.TemplatesForLesson(c.Param("id"))})
}

// GET /api/templates/:id
// Full template definition.
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	t, err := h.svc.Template(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, t)
}

// POST /api/templates/:id/generate
// Generate an instance, from the body's seed when one is given.
func (h *TemplateHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
		return
	}

	inst, err := h.svc.Generate(c.Request.Context(), c.Param("id"), req.Seed)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, inst)
}

// POST /api/templates/:id/regenerate
// Generate an instance from a fresh seed.
func (h *TemplateHandler) Regenerate(c *gin.Context) {
	inst, err := h.svc.Regenerate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, inst)
}

func (h *TemplateHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, service.ErrTemplateNotFound) {
		RespondError(c, http.StatusNotFound, CodeTemplateNotFound, err)
		return
	}
	h.log.Error("generation failed", "template", c.Param("id"), "error", err)
	RespondError(c, http.StatusInternalServerError, CodeGenerationFailed, err)
}
