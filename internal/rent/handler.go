package rent

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentpro/portal/internal/backend"
	"github.com/rentpro/portal/internal/payment"
	"github.com/rentpro/portal/internal/session"
	"github.com/rentpro/portal/pkg/response"
)

// Handler handles rent tracking HTTP requests
type Handler struct {
	service *Service
	client  *backend.Client
}

// NewHandler creates a new rent handler
func NewHandler(service *Service, client *backend.Client) *Handler {
	return &Handler{service: service, client: client}
}

// Records lists rent records with their summary
// GET /rent/records (owner only)
func (h *Handler) Records(c *gin.Context) {
	records, err := h.service.Records(c.Request.Context(), h.clientFor(c))
	if err != nil {
		response.ErrorWithCause(c, err, backend.ToAppError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"records": records,
		"summary": payment.Summarize(records),
	})
}

// RecordPayment records a rent payment
// POST /rent/payments (owner only)
func (h *Handler) RecordPayment(c *gin.Context) {
	var req payment.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	created, err := h.service.RecordPayment(c.Request.Context(), h.clientFor(c), req)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidRequest) {
			response.ValidationError(c, err.Error())
			return
		}
		response.ErrorWithCause(c, err, backend.ToAppError(err))
		return
	}

	response.Success(c, http.StatusCreated, created)
}

func (h *Handler) clientFor(c *gin.Context) *backend.Client {
	return h.client.WithToken(c.GetString(session.ContextTokenKey))
}
