package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/now-lms/lms-api/internal/models"
	"github.com/now-lms/lms-api/internal/service"
	appErrors "github.com/now-lms/lms-api/pkg/errors"
	"github.com/now-lms/lms-api/pkg/response"
)

// EnrollmentHandler exposes enrollment and payment endpoints.
type EnrollmentHandler struct {
	service *service.EnrollmentService
}

// NewEnrollmentHandler creates a new enrollment handler.
func NewEnrollmentHandler(svc *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// Preview godoc
// @Summary Preview enrollment pricing
// @Description Compute the final price for a course with an optional coupon, without enrolling
// @Tags Enrollments
// @Produce json
// @Param id path string true "Course ID"
// @Param coupon query string false "Coupon code"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses/{id}/enrollment/preview [get]
func (h *EnrollmentHandler) Preview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	quote, err := h.service.PreviewPricing(c.Request.Context(), claims.UserID, c.Param("id"), c.Query("coupon"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, quote, nil)
}

// Enroll godoc
// @Summary Enroll in a course
// @Description Enroll the caller in a course, free immediately or pending payment
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}

	result, err := h.service.Enroll(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// Confirm godoc
// @Summary Confirm pending payment
// @Description Gateway callback confirming a pending enrollment payment. Callers must present either an admin token or a valid X-Payment-Signature header.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param X-Payment-Signature header string false "Gateway callback signature"
// @Param payload body map[string]string true "External payment reference"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{id}/confirm [post]
func (h *EnrollmentHandler) Confirm(c *gin.Context) {
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

// Cancel godoc
// @Summary Cancel pending payment
// @Description Abandon a pending enrollment payment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{id}/cancel [post]
func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.CancelPayment(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// List godoc
// @Summary List enrollments
// @Description List enrollments with student and course detail
// @Tags Enrollments
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param course_id query string false "Course filter"
// @Param user_id query string false "User filter"
// @Param mode query string false "Mode filter"
// @Param active query bool false "Active filter"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	var filter models.EnrollmentFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	filter.CourseID = c.Query("course_id")
	filter.UserID = c.Query("user_id")
	filter.Mode = models.EnrollmentMode(c.Query("mode"))
	if active := c.Query("active"); active != "" {
		if val, err := strconv.ParseBool(active); err == nil {
			filter.Active = &val
		}
	}
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	enrollments, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Export godoc
// @Summary Export enrollments
// @Description Download the filtered enrollment list as CSV
// @Tags Enrollments
// @Produce text/csv
// @Param course_id query string false "Course filter"
// @Param mode query string false "Mode filter"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /enrollments/export [get]
func (h *EnrollmentHandler) Export(c *gin.Context) {
	filter := models.EnrollmentFilter{
		CourseID: c.Query("course_id"),
		UserID:   c.Query("user_id"),
		Mode:     models.EnrollmentMode(c.Query("mode")),
	}

	data, err := h.service.ExportCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=enrollments.csv")
	c.Data(http.StatusOK, "text/csv", data)
}

// Mine godoc
// @Summary List my enrollments
// @Description List the caller's enrollments
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /enrollments/me [get]
func (h *EnrollmentHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.EnrollmentFilter{UserID: claims.UserID, Page: 1, PageSize: 100}
	enrollments, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Unenroll godoc
// @Summary Unenroll
// @Description Deactivate an enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	if err := h.service.Unenroll(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
