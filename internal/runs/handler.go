package runs

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bda-pipeline/internal/shared/server/middleware"
	"bda-pipeline/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the runs service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches run routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/runs", h.startRun)
	rg.GET("/runs", h.listRuns)
	rg.GET("/runs/:id", h.getRun)
}

func (h *Handler) startRun(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	run, err := h.Svc.Create(ctx, in)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrEnqueue):
			respond.Error(c, http.StatusServiceUnavailable, "enqueue_failed", "failed to queue run", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start run", nil)
		}
		return
	}
	c.Set("runId", run.ID)
	c.Set("statusTransition", "none->"+run.Status)

	respond.Accepted(c, gin.H{
		"runId":  run.ID,
		"status": run.Status,
	})
}

func (h *Handler) getRun(c *gin.Context) {
	runID := c.Param("id")
	if runID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "run id is required", nil)
		return
	}
	c.Set("runId", runID)

	run, err := h.Svc.Get(c.Request.Context(), runID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "run not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch run", nil)
		}
		return
	}

	respond.OK(c, run)
}

func (h *Handler) listRuns(c *gin.Context) {
	limit := 20
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	items, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list runs", nil)
		return
	}

	resp := make([]gin.H, 0, len(items))
	for _, r := range items {
		item := gin.H{
			"runId":       r.ID,
			"status":      r.Status,
			"projectName": r.ProjectName,
			"inputUri":    r.InputURI,
			"createdAt":   r.CreatedAt,
		}
		if r.Status == StatusCompleted {
			item["resultUri"] = r.ResultURI
			item["rowCount"] = r.RowCount
		}
		if r.ErrorCode != "" {
			item["errorCode"] = r.ErrorCode
		}
		resp = append(resp, item)
	}

	respond.JSON(c, http.StatusOK, resp)
}
