package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/now-lms/lms-api/internal/middleware"
	"github.com/now-lms/lms-api/internal/models"
	appErrors "github.com/now-lms/lms-api/pkg/errors"
	"github.com/now-lms/lms-api/pkg/response"
)

// PaymentSignatureHeader carries the HMAC the payment gateway attaches to
// its confirmation callbacks.
const PaymentSignatureHeader = "X-Payment-Signature"

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// confirmAuthorized gates payment confirmation endpoints. The gateway proves
// itself with a signed header over the enrollment id and external reference,
// admins may confirm manually. On failure the error response is already
// written and false is returned.
func confirmAuthorized(c *gin.Context, enrollmentID, externalRef string, verify func(enrollmentID, externalRef, signature string) bool) bool {
	if signature := c.GetHeader(PaymentSignatureHeader); signature != "" {
		if verify(enrollmentID, externalRef, signature) {
			return true
		}
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "invalid payment signature"))
		return false
	}

	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "payment confirmation requires the gateway signature or an admin token"))
		return false
	}
	if claims.Role != models.RoleAdmin {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "only administrators may confirm payments manually"))
		return false
	}
	return true
}
