package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateData carries everything printed on an issued certificate.
type CertificateData struct {
	StudentName string
	CourseTitle string
	Template    string
	Serial      string
	IssuedAt    time.Time
}

// CertificatePDF renders issued certificates as landscape A4 documents.
type CertificatePDF struct{}

// NewCertificatePDF builds a certificate renderer.
func NewCertificatePDF() *CertificatePDF {
	return &CertificatePDF{}
}

// Render produces the PDF bytes for an issued certificate.
func (e *CertificatePDF) Render(data CertificateData) ([]byte, error) {
	if data.StudentName == "" || data.CourseTitle == "" {
		return nil, fmt.Errorf("certificate requires student and course")
	}
	if data.Serial == "" {
		return nil, fmt.Errorf("certificate requires a serial")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 25, 20)
	pdf.AddPage()

	pdf.SetDrawColor(70, 70, 70)
	pdf.SetLineWidth(1.2)
	pdf.Rect(10, 10, 277, 190, "D")

	pdf.SetFont("Times", "B", 30)
	pdf.CellFormat(0, 18, "CERTIFICATE OF COMPLETION", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Times", "", 14)
	pdf.CellFormat(0, 8, "This certifies that", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Times", "B", 24)
	pdf.CellFormat(0, 12, data.StudentName, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Times", "", 14)
	pdf.CellFormat(0, 8, "has successfully completed the course", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Times", "B", 20)
	pdf.CellFormat(0, 10, data.CourseTitle, "", 1, "C", false, 0, "")
	pdf.Ln(12)

	issued := data.IssuedAt
	if issued.IsZero() {
		issued = time.Now()
	}
	pdf.SetFont("Times", "", 12)
	pdf.CellFormat(0, 7, fmt.Sprintf("Issued on %s", issued.Format("January 2, 2006")), "", 1, "C", false, 0, "")

	pdf.SetY(-35)
	pdf.SetFont("Courier", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Serial: %s", data.Serial), "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
