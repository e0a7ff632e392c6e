package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/now-lms/lms-api/internal/service"
	appErrors "github.com/now-lms/lms-api/pkg/errors"
	"github.com/now-lms/lms-api/pkg/response"
)

// ProgressHandler exposes learner progress and evaluation endpoints.
type ProgressHandler struct {
	service *service.ProgressService
}

// NewProgressHandler creates a new progress handler.
func NewProgressHandler(svc *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{service: svc}
}

// CompleteResource godoc
// @Summary Mark resource completed
// @Description Record the caller completed a course resource and recompute course progress
// @Tags Progress
// @Produce json
// @Param id path string true "Course ID"
// @Param resourceId path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/resources/{resourceId}/complete [post]
func (h *ProgressHandler) CompleteResource(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	progress, err := h.service.MarkResourceCompleted(c.Request.Context(), claims.UserID, c.Param("id"), c.Param("resourceId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, progress, nil)
}

// SubmitAttempt godoc
// @Summary Submit evaluation attempt
// @Description Grade an evaluation attempt for the caller and recompute course progress
// @Tags Progress
// @Accept json
// @Produce json
// @Param payload body service.SubmitAttemptRequest true "Attempt payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /evaluations/attempts [post]
func (h *ProgressHandler) SubmitAttempt(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attempt payload"))
		return
	}

	attempt, progress, err := h.service.SubmitAttempt(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusCreated, gin.H{"attempt": attempt, "progress": progress}, nil)
}

// Summary godoc
// @Summary Course progress summary
// @Description Return the caller's course progress and per-resource completion
// @Tags Progress
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/progress [get]
func (h *ProgressHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	progress, resources, err := h.service.Summary(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"progress": progress, "resources": resources}, nil)
}
