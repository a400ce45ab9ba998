package apihandlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"recops/internal/models"
	"recops/internal/store"
)

// WaitAPI is the part of *services.WaitService the HTTP API uses.
type WaitAPI interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Wait, error)
	List(ctx context.Context, limit, offset int) ([]*models.Wait, error)
	Enqueue(ctx context.Context, ref models.ResourceRef, target models.Target, interval, timeout time.Duration) (*models.Wait, error)
	Kinds() []models.ResourceKind
}

// Pinger checks a backing dependency for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type APIHandler struct {
	Waits WaitAPI
	Store Pinger
}

func NewAPIHandler(waits WaitAPI, pinger Pinger) *APIHandler {
	return &APIHandler{Waits: waits, Store: pinger}
}

// createWaitRequest is the body of POST /api/v1/waits. Durations use Go
// syntax ("30s", "2h").
type createWaitRequest struct {
	Kind     string `json:"kind" binding:"required"`
	ID       string `json:"id" binding:"required"`
	Target   string `json:"target"`
	Interval string `json:"interval"`
	Timeout  string `json:"timeout"`
}

func (h *APIHandler) CreateWaitHandler(c *gin.Context) {
	var req createWaitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	kind, err := models.ParseKind(req.Kind)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	target, err := models.ParseTarget(req.Target)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	interval, err := parseOptionalDuration(req.Interval)
	if err != nil {
		BadRequest(c, "Invalid interval: "+err.Error())
		return
	}
	timeout, err := parseOptionalDuration(req.Timeout)
	if err != nil {
		BadRequest(c, "Invalid timeout: "+err.Error())
		return
	}

	ref := models.ResourceRef{Kind: kind, ID: req.ID}
	w, err := h.Waits.Enqueue(c.Request.Context(), ref, target, interval, timeout)
	if err != nil {
		if errors.Is(err, models.ErrValidation) || errors.Is(err, models.ErrUnsupportedKind) {
			BadRequest(c, err.Error())
			return
		}
		if errors.Is(err, store.ErrDuplicate) {
			Conflict(c, err.Error())
			return
		}
		Internal(c, fmt.Sprintf("CreateWaitHandler: failed to enqueue wait: %v", err))
		return
	}

	log.WithFields(log.Fields{"wait_id": w.ID, "resource": ref.String(), "task_id": w.TaskID}).Info("API wait enqueued")
	c.JSON(http.StatusAccepted, gin.H{"data": w})
}

func (h *APIHandler) ListWaitsHandler(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		BadRequest(c, "Invalid limit parameter")
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		BadRequest(c, "Invalid offset parameter")
		return
	}

	waits, err := h.Waits.List(c.Request.Context(), limit, offset)
	if err != nil {
		Internal(c, fmt.Sprintf("ListWaitsHandler: %v", err))
		return
	}
	if waits == nil {
		waits = []*models.Wait{}
	}
	c.JSON(http.StatusOK, gin.H{"data": waits, "limit": limit, "offset": offset})
}

func (h *APIHandler) GetWaitHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		BadRequest(c, "Invalid wait ID")
		return
	}

	w, err := h.Waits.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			NotFound(c, fmt.Sprintf("Wait %s not found", id))
			return
		}
		Internal(c, fmt.Sprintf("GetWaitHandler: %v", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": w})
}

func (h *APIHandler) ListKindsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.Waits.Kinds()})
}

func (h *APIHandler) HealthHandler(c *gin.Context) {
	if h.Store != nil {
		if err := h.Store.Ping(c.Request.Context()); err != nil {
			JSONError(c, http.StatusServiceUnavailable, "unavailable", "database: "+err.Error())
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseOptionalDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, errors.New("must not be negative")
	}
	return d, nil
}
