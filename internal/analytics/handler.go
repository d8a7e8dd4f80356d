package analytics

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentpro/portal/internal/backend"
	"github.com/rentpro/portal/internal/session"
	"github.com/rentpro/portal/pkg/response"
)

// Handler handles analytics HTTP requests
type Handler struct {
	service *Service
	client  *backend.Client
}

// NewHandler creates a new analytics handler
func NewHandler(service *Service, client *backend.Client) *Handler {
	return &Handler{service: service, client: client}
}

// GenerateRequest is the body for requesting a new prediction
type GenerateRequest struct {
	PredictionType string `json:"predictionType" binding:"omitempty,oneof=LATE_PAYMENT MAINTENANCE_RISK"`
}

// Predictions lists the owner's predictions
// GET /analytics/predictions?risk=LOW|MEDIUM|HIGH (owner only)
func (h *Handler) Predictions(c *gin.Context) {
	risk := c.DefaultQuery("risk", FilterAll)

	predictions, err := h.service.Predictions(c.Request.Context(), h.clientFor(c), risk)
	if err != nil {
		response.ErrorWithCause(c, err, backend.ToAppError(err))
		return
	}

	filter := FilterAll
	if level, ok := ParseFilter(risk); ok {
		filter = string(level)
	}

	response.Success(c, http.StatusOK, gin.H{
		"risk":        filter,
		"predictions": predictions,
	})
}

// HighRisk lists predictions flagged as high risk
// GET /analytics/predictions/high-risk (owner only)
func (h *Handler) HighRisk(c *gin.Context) {
	predictions, err := h.service.HighRisk(c.Request.Context(), h.clientFor(c))
	if err != nil {
		response.ErrorWithCause(c, err, backend.ToAppError(err))
		return
	}

	response.Success(c, http.StatusOK, predictions)
}

// ForLease lists one lease's predictions
// GET /analytics/leases/:leaseId/predictions (owner only)
func (h *Handler) ForLease(c *gin.Context) {
	predictions, err := h.service.ForLease(c.Request.Context(), h.clientFor(c), c.Param("leaseId"))
	if err != nil {
		response.ErrorWithCause(c, err, backend.ToAppError(err))
		return
	}

	response.Success(c, http.StatusOK, predictions)
}

// Generate requests a new prediction for a lease
// POST /analytics/leases/:leaseId/predictions (owner only)
func (h *Handler) Generate(c *gin.Context) {
	var req GenerateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ValidationError(c, err.Error())
			return
		}
	}

	prediction, err := h.service.Generate(c.Request.Context(), h.clientFor(c), c.Param("leaseId"), req.PredictionType)
	if err != nil {
		response.ErrorWithCause(c, err, backend.ToAppError(err))
		return
	}

	response.Success(c, http.StatusCreated, prediction)
}

func (h *Handler) clientFor(c *gin.Context) *backend.Client {
	return h.client.WithToken(c.GetString(session.ContextTokenKey))
}
