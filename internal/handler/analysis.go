package handler

import (
	"context"
	"errors"
	"net/http"

	"entrywatch/internal/scheduler"

	"github.com/gin-gonic/gin"
)

// StartAnalysis kicks off a full sequential analysis run. The run
// outlives the request, so it is detached from the request context.
func (h *Handler) StartAnalysis(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.start-analysis")
	defer span.End()

	err := h.scheduler.StartRun(context.Background(), h.OnRunComplete)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"status": "started"})
	case errors.Is(err, scheduler.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "an analysis run is already in progress"})
	case errors.Is(err, scheduler.ErrCoolingDown):
		c.JSON(http.StatusConflict, gin.H{"error": "cooldown in effect, try again shortly"})
	case errors.Is(err, scheduler.ErrLockHeld):
		c.JSON(http.StatusConflict, gin.H{"error": "another intensive operation is running"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) CancelAnalysis(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.cancel-analysis")
	defer span.End()

	if !h.scheduler.Cancel() {
		c.JSON(http.StatusConflict, gin.H{"error": "no analysis run is active"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelling"})
}

func (h *Handler) AnalysisStatus(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.analysis-status")
	defer span.End()

	c.JSON(http.StatusOK, h.scheduler.Status())
}
