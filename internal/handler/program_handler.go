package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/now-lms/lms-api/internal/service"
	appErrors "github.com/now-lms/lms-api/pkg/errors"
	"github.com/now-lms/lms-api/pkg/response"
)

// ProgramHandler exposes program endpoints.
type ProgramHandler struct {
	service *service.ProgramService
}

// NewProgramHandler creates a new program handler.
func NewProgramHandler(svc *service.ProgramService) *ProgramHandler {
	return &ProgramHandler{service: svc}
}

// List godoc
// @Summary List programs
// @Description List course programs, restricted to public ones for anonymous callers
// @Tags Programs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /programs [get]
func (h *ProgramHandler) List(c *gin.Context) {
	publicOnly := claimsFromContext(c) == nil

	programs, err := h.service.List(c.Request.Context(), publicOnly)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, programs, nil)
}

// Get godoc
// @Summary Get program
// @Description Get a program and its course list
// @Tags Programs
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id} [get]
func (h *ProgramHandler) Get(c *gin.Context) {
	program, courses, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"program": program, "courses": courses}, nil)
}

// Create godoc
// @Summary Create program
// @Tags Programs
// @Accept json
// @Produce json
// @Param payload body service.CreateProgramRequest true "Program payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /programs [post]
func (h *ProgramHandler) Create(c *gin.Context) {
	var req service.CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid program payload"))
		return
	}

	program, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, program)
}

// AddCourse godoc
// @Summary Add course to program
// @Tags Programs
// @Accept json
// @Produce json
// @Param id path string true "Program ID"
// @Param payload body map[string]interface{} true "Course ID and position"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id}/courses [post]
func (h *ProgramHandler) AddCourse(c *gin.Context) {
	var payload struct {
		CourseID string `json:"course_id" binding:"required"`
		Position int    `json:"position"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "course_id required"))
		return
	}

	if err := h.service.AddCourse(c.Request.Context(), c.Param("id"), payload.CourseID, payload.Position); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Enroll godoc
// @Summary Enroll in program
// @Description Enroll the caller in a free program
// @Tags Programs
// @Produce json
// @Param id path string true "Program ID"
// @Success 201 {object} response.Envelope
// @Failure 402 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /programs/{id}/enroll [post]
func (h *ProgramHandler) Enroll(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	enrollment, err := h.service.Enroll(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, enrollment)
}
