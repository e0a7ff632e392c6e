package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/now-lms/lms-api/internal/models"
)

// CertificateRepository persists issued certificates.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs the repository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// Exists reports whether a certificate has already been issued for the
// (user, course) pair. The progress engine checks this before creating.
func (r *CertificateRepository) Exists(ctx context.Context, userID, courseID string) (bool, error) {
	const query = `SELECT 1 FROM issued_certificates WHERE user_id = $1 AND course_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, userID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check certificate exists: %w", err)
	}
	return true, nil
}

// Create inserts an issued certificate.
func (r *CertificateRepository) Create(ctx context.Context, cert *models.IssuedCertificate) error {
	if cert.ID == "" {
		cert.ID = uuid.NewString()
	}
	if cert.Serial == "" {
		cert.Serial = uuid.NewString()
	}
	if cert.IssuedAt.IsZero() {
		cert.IssuedAt = time.Now().UTC()
	}
	const query = `INSERT INTO issued_certificates (id, serial, user_id, course_id, template, file_path, issued_at)
        VALUES (:id, :serial, :user_id, :course_id, :template, :file_path, :issued_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cert); err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	return nil
}

// FindBySerial resolves a certificate for public validation.
func (r *CertificateRepository) FindBySerial(ctx context.Context, serial string) (*models.IssuedCertificateDetail, error) {
	const query = `SELECT c.id, c.serial, c.user_id, c.course_id, c.template, c.file_path, c.issued_at,
        u.full_name AS student_name, co.title AS course_title
        FROM issued_certificates c
        JOIN users u ON u.id = c.user_id
        JOIN courses co ON co.id = c.course_id
        WHERE c.serial = $1`
	var detail models.IssuedCertificateDetail
	if err := r.db.GetContext(ctx, &detail, query, serial); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByUser returns a user's certificates, newest first.
func (r *CertificateRepository) ListByUser(ctx context.Context, userID string) ([]models.IssuedCertificateDetail, error) {
	const query = `SELECT c.id, c.serial, c.user_id, c.course_id, c.template, c.file_path, c.issued_at,
        u.full_name AS student_name, co.title AS course_title
        FROM issued_certificates c
        JOIN users u ON u.id = c.user_id
        JOIN courses co ON co.id = c.course_id
        WHERE c.user_id = $1 ORDER BY c.issued_at DESC`
	var certs []models.IssuedCertificateDetail
	if err := r.db.SelectContext(ctx, &certs, query, userID); err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return certs, nil
}

// UpdateFilePath records where the rendered PDF was stored.
func (r *CertificateRepository) UpdateFilePath(ctx context.Context, id, filePath string) error {
	const query = `UPDATE issued_certificates SET file_path = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, filePath); err != nil {
		return fmt.Errorf("update certificate file path: %w", err)
	}
	return nil
}
