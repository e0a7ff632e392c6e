package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/now-lms/lms-api/internal/service"
	appErrors "github.com/now-lms/lms-api/pkg/errors"
	"github.com/now-lms/lms-api/pkg/response"
)

// CouponHandler exposes course coupon management endpoints.
type CouponHandler struct {
	service *service.CouponService
}

// NewCouponHandler creates a new coupon handler.
func NewCouponHandler(svc *service.CouponService) *CouponHandler {
	return &CouponHandler{service: svc}
}

// List godoc
// @Summary List course coupons
// @Tags Coupons
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses/{id}/coupons [get]
func (h *CouponHandler) List(c *gin.Context) {
	coupons, err := h.service.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, coupons, nil)
}

// Create godoc
// @Summary Create coupon
// @Description Create a discount coupon for a paid course
// @Tags Coupons
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.CreateCouponRequest true "Coupon payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses/{id}/coupons [post]
func (h *CouponHandler) Create(c *gin.Context) {
	var req service.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid coupon payload"))
		return
	}

	coupon, err := h.service.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, coupon)
}

// Delete godoc
// @Summary Delete coupon
// @Tags Coupons
// @Produce json
// @Param id path string true "Course ID"
// @Param couponId path string true "Coupon ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/coupons/{couponId} [delete]
func (h *CouponHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("couponId")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
