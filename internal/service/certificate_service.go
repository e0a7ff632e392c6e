package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/now-lms/lms-api/internal/models"
	appErrors "github.com/now-lms/lms-api/pkg/errors"
	"github.com/now-lms/lms-api/pkg/export"
	"github.com/now-lms/lms-api/pkg/jobs"
	"github.com/now-lms/lms-api/pkg/storage"
)

type certificateRepository interface {
	FindBySerial(ctx context.Context, serial string) (*models.IssuedCertificateDetail, error)
	ListByUser(ctx context.Context, userID string) ([]models.IssuedCertificateDetail, error)
	UpdateFilePath(ctx context.Context, id, filePath string) error
}

type certificateStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

// CertificateService renders issued certificates to PDF in the background and
// serves validation and download lookups.
type CertificateService struct {
	repo     certificateRepository
	renderer *export.CertificatePDF
	store    certificateStore
	signer   *storage.DownloadSigner
	queue    *jobs.Queue[models.IssuedCertificate]
	logger   *zap.Logger
}

// NewCertificateService constructs CertificateService and its render queue.
// workers controls the queue's pool size.
func NewCertificateService(repo certificateRepository, store certificateStore, signer *storage.DownloadSigner, workers, retries int, logger *zap.Logger) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CertificateService{
		repo:     repo,
		renderer: export.NewCertificatePDF(),
		store:    store,
		signer:   signer,
		logger:   logger,
	}
	s.queue = jobs.New("certificate-render", s.handleRender, jobs.Config{
		Workers:    workers,
		MaxRetries: retries,
		RetryDelay: 2 * time.Second,
		Logger:     logger,
	})
	return s
}

// Start launches the render workers.
func (s *CertificateService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the render workers.
func (s *CertificateService) Stop() {
	s.queue.Stop()
}

// EnqueueRender schedules PDF rendering for a freshly issued certificate. It
// satisfies the renderer hook of the progress engine and never blocks the
// issuing request beyond a channel send.
func (s *CertificateService) EnqueueRender(cert models.IssuedCertificate) {
	err := s.queue.Enqueue(jobs.Task[models.IssuedCertificate]{
		ID:      cert.Serial,
		Payload: cert,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue certificate render", zap.String("serial", cert.Serial), zap.Error(err))
	}
}

func (s *CertificateService) handleRender(ctx context.Context, task jobs.Task[models.IssuedCertificate]) error {
	cert := task.Payload
	detail, err := s.repo.FindBySerial(ctx, cert.Serial)
	if err != nil {
		return fmt.Errorf("load certificate %s: %w", cert.Serial, err)
	}
	data := export.CertificateData{
		StudentName: detail.StudentName,
		CourseTitle: detail.CourseTitle,
		Template:    detail.Template,
		Serial:      detail.Serial,
		IssuedAt:    detail.IssuedAt,
	}
	pdf, err := s.renderer.Render(data)
	if err != nil {
		return fmt.Errorf("render certificate %s: %w", cert.Serial, err)
	}
	relPath := fmt.Sprintf("certificates/%s.pdf", detail.Serial)
	if _, err := s.store.Save(relPath, pdf); err != nil {
		return fmt.Errorf("store certificate %s: %w", cert.Serial, err)
	}
	if err := s.repo.UpdateFilePath(ctx, detail.ID, relPath); err != nil {
		return fmt.Errorf("record certificate path %s: %w", cert.Serial, err)
	}
	s.logger.Info("certificate rendered", zap.String("serial", detail.Serial), zap.String("path", relPath))
	return nil
}

// Validate resolves a certificate by serial for public verification.
func (s *CertificateService) Validate(ctx context.Context, serial string) (*models.IssuedCertificateDetail, error) {
	detail, err := s.repo.FindBySerial(ctx, serial)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	return detail, nil
}

// ListByUser returns a user's certificates.
func (s *CertificateService) ListByUser(ctx context.Context, userID string) ([]models.IssuedCertificateDetail, error) {
	certs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list certificates")
	}
	return certs, nil
}

// DownloadToken issues a signed, expiring token for a rendered certificate.
func (s *CertificateService) DownloadToken(ctx context.Context, serial string) (string, time.Time, error) {
	detail, err := s.Validate(ctx, serial)
	if err != nil {
		return "", time.Time{}, err
	}
	if detail.FilePath == "" {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "certificate not rendered yet")
	}
	token, expiresAt, err := s.signer.Generate(detail.Serial, detail.FilePath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return token, expiresAt, nil
}

// OpenDownload validates a token and opens the stored PDF for streaming.
func (s *CertificateService) OpenDownload(token string) (*os.File, string, error) {
	serial, relPath, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "certificate file not found")
	}
	return file, serial, nil
}
