// Package storage keeps rendered certificate PDFs on local disk and signs
// the expiring tokens that gate their download.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CertificateArchive persists rendered certificates under a base directory.
// All paths are relative; anything escaping the base directory is rejected.
type CertificateArchive struct {
	baseDir string
}

// NewCertificateArchive ensures the base directory exists and returns a
// handle. The directory is private to the service user.
func NewCertificateArchive(baseDir string) (*CertificateArchive, error) {
	if baseDir == "" {
		baseDir = "./certificates"
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create certificate directory: %w", err)
	}
	return &CertificateArchive{baseDir: baseDir}, nil
}

// Save writes a rendered PDF to the given relative path.
func (a *CertificateArchive) Save(relPath string, data []byte) (string, error) {
	path, err := a.resolve(relPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("prepare certificate directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write certificate: %w", err)
	}
	return relPath, nil
}

// Open returns a read-only handle for a stored certificate.
func (a *CertificateArchive) Open(relPath string) (*os.File, error) {
	path, err := a.resolve(relPath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open certificate: %w", err)
	}
	return file, nil
}

// resolve joins the relative path under the base directory, rejecting
// absolute paths and traversal outside the archive.
func (a *CertificateArchive) resolve(relPath string) (string, error) {
	if relPath == "" || filepath.IsAbs(relPath) {
		return "", fmt.Errorf("invalid certificate path %q", relPath)
	}
	clean := filepath.Clean(relPath)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("certificate path %q escapes the archive", relPath)
	}
	return filepath.Join(a.baseDir, clean), nil
}
