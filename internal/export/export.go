// Package export renders a patient snapshot as a CSV medication log or as a
// PDF report. Renderers never modify the record they are given.
package export

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/patientkeeper/internal/common"
	"github.com/dmitrijs2005/patientkeeper/internal/models"
)

type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// Formats lists the supported formats in menu order.
var Formats = []Format{FormatCSV, FormatPDF}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", common.ErrValidation, s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

var nameReplacer = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "\x00", "_")

// FileName returns "<patient>_medication_report.<ext>".
func FileName(patient string, f Format) string {
	return nameReplacer.Replace(patient) + "_medication_report." + string(f)
}

// Render dispatches to ToCSV or ToDocument.
func Render(rec models.PatientRecord, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ToCSV(rec)
	case FormatPDF:
		return ToDocument(rec)
	}
	return nil, fmt.Errorf("%w: unknown export format %q", common.ErrValidation, f)
}
