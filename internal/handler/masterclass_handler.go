package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/now-lms/lms-api/internal/service"
	appErrors "github.com/now-lms/lms-api/pkg/errors"
	"github.com/now-lms/lms-api/pkg/response"
)

// MasterClassHandler exposes master class endpoints.
type MasterClassHandler struct {
	service *service.MasterClassService
}

// NewMasterClassHandler creates a new master class handler.
func NewMasterClassHandler(svc *service.MasterClassService) *MasterClassHandler {
	return &MasterClassHandler{service: svc}
}

// List godoc
// @Summary List upcoming master classes
// @Description List master classes that have not ended yet
// @Tags MasterClasses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /masterclasses [get]
func (h *MasterClassHandler) List(c *gin.Context) {
	publicOnly := claimsFromContext(c) == nil

	classes, err := h.service.ListUpcoming(c.Request.Context(), publicOnly)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, classes, nil)
}

// Get godoc
// @Summary Get master class
// @Tags MasterClasses
// @Produce json
// @Param slug path string true "Master class slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /masterclasses/{slug} [get]
func (h *MasterClassHandler) Get(c *gin.Context) {
	class, err := h.service.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, class, nil)
}

// Create godoc
// @Summary Create master class
// @Tags MasterClasses
// @Accept json
// @Produce json
// @Param payload body service.CreateMasterClassRequest true "Master class payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /masterclasses [post]
func (h *MasterClassHandler) Create(c *gin.Context) {
	var req service.CreateMasterClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid master class payload"))
		return
	}

	class, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, class)
}

// Enroll godoc
// @Summary Enroll in master class
// @Description Enroll the caller, free immediately or with a pending payment for paid sessions
// @Tags MasterClasses
// @Produce json
// @Param slug path string true "Master class slug"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /masterclasses/{slug}/enroll [post]
func (h *MasterClassHandler) Enroll(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	enrollment, payment, err := h.service.Enroll(c.Request.Context(), claims.UserID, c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"enrollment": enrollment, "payment": payment})
}

// Confirm godoc
// @Summary Confirm master class payment
// @Description Gateway callback activating a paid master class seat. Callers must present either an admin token or a valid X-Payment-Signature header.
// @Tags MasterClasses
// @Accept json
// @Produce json
// @Param id path string true "Master class enrollment ID"
// @Param X-Payment-Signature header string false "Gateway callback signature"
// @Param payload body map[string]string true "External payment reference"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /masterclass-enrollments/{id}/confirm [post]
func (h *MasterClassHandler) Confirm(c *gin.Context) {
	var payload struct {
		ExternalRef string `json:"external_ref"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid confirmation payload"))
		return
	}

	enrollmentID := c.Param("id")
	if !confirmAuthorized(c, enrollmentID, payload.ExternalRef, h.service.VerifyGatewaySignature) {
		return
	}

	enrollment, err := h.service.ConfirmPayment(c.Request.Context(), enrollmentID, payload.ExternalRef)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enrollment, nil)
}
