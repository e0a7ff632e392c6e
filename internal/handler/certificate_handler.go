package handler

import (
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/now-lms/lms-api/internal/service"
	appErrors "github.com/now-lms/lms-api/pkg/errors"
	"github.com/now-lms/lms-api/pkg/response"
)

// CertificateHandler exposes issued certificate endpoints.
type CertificateHandler struct {
	service *service.CertificateService
}

// NewCertificateHandler creates a new certificate handler.
func NewCertificateHandler(svc *service.CertificateService) *CertificateHandler {
	return &CertificateHandler{service: svc}
}

// Validate godoc
// @Summary Validate certificate
// @Description Public lookup of an issued certificate by its serial
// @Tags Certificates
// @Produce json
// @Param serial path string true "Certificate serial"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /certificates/{serial}/validate [get]
func (h *CertificateHandler) Validate(c *gin.Context) {
	cert, err := h.service.Validate(c.Request.Context(), c.Param("serial"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, cert, nil)
}

// Mine godoc
// @Summary List my certificates
// @Description List certificates issued to the caller
// @Tags Certificates
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /certificates/me [get]
func (h *CertificateHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	certs, err := h.service.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, certs, nil)
}

// DownloadToken godoc
// @Summary Issue download token
// @Description Issue a short-lived signed token for downloading a rendered certificate
// @Tags Certificates
// @Produce json
// @Param serial path string true "Certificate serial"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /certificates/{serial}/download-token [get]
func (h *CertificateHandler) DownloadToken(c *gin.Context) {
	token, expiresAt, err := h.service.DownloadToken(c.Request.Context(), c.Param("serial"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"token": token, "expires_at": expiresAt}, nil)
}

// Download godoc
// @Summary Download certificate PDF
// @Description Stream the rendered certificate referenced by a signed token
// @Tags Certificates
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /certificates/download [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "download token required"))
		return
	}

	file, name, err := h.service.OpenDownload(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", "attachment; filename="+filepath.Base(name))
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
