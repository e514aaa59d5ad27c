// Package handlers implements the docket server's HTTP endpoints.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/courtwright/docket/internal/models"
	"github.com/courtwright/docket/internal/store"
)

// CaseStore defines the interface for case persistence operations.
type CaseStore interface {
	CreateCase(ctx context.Context, in models.CaseInput) (*models.Case, error)
	ListActive(ctx context.Context) ([]*models.Case, error)
	ListArchive(ctx context.Context) ([]*models.ArchivedCase, error)
	DeleteCase(ctx context.Context, id string) error
	ArchiveCase(ctx context.Context, id string, out models.Outcome) (*models.ArchivedCase, error)
	InitSchema(ctx context.Context) error
}

// CasesHandler handles the scheduling and archive endpoints.
type CasesHandler struct {
	store  CaseStore
	logger zerolog.Logger
}

// NewCasesHandler creates a new CasesHandler.
func NewCasesHandler(store CaseStore, logger zerolog.Logger) *CasesHandler {
	return &CasesHandler{
		store:  store,
		logger: logger.With().Str("component", "cases_handler").Logger(),
	}
}

// RegisterRoutes registers the case routes. The paths are fixed; the front
// end consumes them verbatim.
func (h *CasesHandler) RegisterRoutes(r *gin.Engine) {
	r.POST("/api/add_schedule", h.Add)
	r.GET("/schedule.json", h.ListActive)
	r.POST("/api/delete_schedule", h.Delete)
	r.POST("/api/archive_case", h.Archive)
	r.GET("/archive.json", h.ListArchive)
	r.GET("/init-db", h.InitDB)
}

// DeleteCaseRequest is the request body for deleting a case.
type DeleteCaseRequest struct {
	ID string `json:"id"`
}

// ArchiveCaseRequest is the request body for archiving a case. The outcome
// fields are all optional.
type ArchiveCaseRequest struct {
	ID       string `json:"id"`
	Result   string `json:"result"`
	Verdict  string `json:"verdict"`
	Document string `json:"document"`
}

// Add creates a new case on the active docket with a freshly assigned
// identifier. All fields are optional free-form text.
// POST /api/add_schedule
func (h *CasesHandler) Add(c *gin.Context) {
	var req models.CaseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "info": "invalid request body"})
		return
	}

	created, err := h.store.CreateCase(c.Request.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create case")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "info": "failed to create case"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "added": created})
}

// ListActive returns the active docket sorted by (date, time).
// GET /schedule.json
func (h *CasesHandler) ListActive(c *gin.Context) {
	cases, err := h.store.ListActive(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list active cases")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "info": "failed to list cases"})
		return
	}
	if cases == nil {
		cases = []*models.Case{}
	}
	c.JSON(http.StatusOK, cases)
}

// ListArchive returns the archive sorted by (date, time).
// GET /archive.json
func (h *CasesHandler) ListArchive(c *gin.Context) {
	cases, err := h.store.ListArchive(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list archived cases")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "info": "failed to list cases"})
		return
	}
	if cases == nil {
		cases = []*models.ArchivedCase{}
	}
	c.JSON(http.StatusOK, cases)
}

// Delete removes a case from the active docket. The archive is never touched.
// POST /api/delete_schedule
func (h *CasesHandler) Delete(c *gin.Context) {
	var req DeleteCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "info": "missing id"})
		return
	}

	err := h.store.DeleteCase(c.Request.Context(), req.ID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"status": "not_found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("case_id", req.ID).Msg("failed to delete case")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "info": "failed to delete case"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Archive moves a case from the active docket to the archive, attaching the
// optional outcome fields.
// POST /api/archive_case
func (h *CasesHandler) Archive(c *gin.Context) {
	var req ArchiveCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "info": "missing id"})
		return
	}

	out := models.Outcome{
		Result:   req.Result,
		Verdict:  req.Verdict,
		Document: req.Document,
	}
	_, err := h.store.ArchiveCase(c.Request.Context(), req.ID, out)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"status": "not_found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("case_id", req.ID).Msg("failed to archive case")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "info": "failed to archive case"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "archived"})
}

// InitDB re-runs the idempotent schema bootstrap.
// GET /init-db
func (h *CasesHandler) InitDB(c *gin.Context) {
	if err := h.store.InitSchema(c.Request.Context()); err != nil {
		h.logger.Error().Err(err).Msg("schema bootstrap failed")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Database initialized"})
}
