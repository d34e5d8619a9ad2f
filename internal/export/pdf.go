package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/patientkeeper/internal/models"
	"github.com/go-pdf/fpdf"
)

const (
	pdfFont       = "Helvetica"
	pdfLineHeight = 7.0
)

// ToDocument renders an A4 report: the patient name as title, the vitals
// block, then the medication log as a table. Long logs continue on
// following pages with the table header repeated.
func ToDocument(rec models.PatientRecord) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(rec.Name+" medication report", true)
	pdf.SetCreator("patientkeeper", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	colWidths := []float64{70, 40, 70}
	tableHeader := func() {
		pdf.SetFont(pdfFont, "B", 11)
		for i, h := range csvHeader {
			pdf.CellFormat(colWidths[i], pdfLineHeight, h, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(pdfFont, "", 11)
	}

	pdf.AddPage()

	pdf.SetFont(pdfFont, "B", 16)
	pdf.CellFormat(0, 10, tr("Patient: "+rec.Name), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(pdfFont, "B", 13)
	pdf.CellFormat(0, 8, "Patient Details", "", 1, "L", false, 0, "")
	pdf.SetFont(pdfFont, "", 11)
	for _, line := range vitalsLines(rec) {
		pdf.CellFormat(0, pdfLineHeight, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont(pdfFont, "B", 13)
	pdf.CellFormat(0, 8, "Medication Logs", "", 1, "L", false, 0, "")

	if len(rec.Medications) == 0 {
		pdf.SetFont(pdfFont, "I", 11)
		pdf.CellFormat(0, pdfLineHeight, "No medications logged yet.", "", 1, "L", false, 0, "")
	} else {
		tableHeader()
		_, pageHeight := pdf.GetPageSize()
		_, _, _, bottom := pdf.GetMargins()
		for _, e := range rec.Medications {
			if pdf.GetY()+pdfLineHeight > pageHeight-bottom {
				pdf.AddPage()
				tableHeader()
			}
			for i, cell := range []string{e.Medication, e.Dosage, e.Timestamp} {
				pdf.CellFormat(colWidths[i], pdfLineHeight, tr(cell), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func vitalsLines(rec models.PatientRecord) []string {
	return []string{
		"Age: " + strconv.Itoa(rec.Age),
		"Weight: " + strconv.FormatFloat(rec.Weight, 'f', -1, 64) + " kg",
		"Gender: " + string(rec.Gender),
		"Height: " + strconv.FormatFloat(rec.Height, 'f', -1, 64) + " cm",
		"Social Insurance Number: " + rec.SocialInsuranceNumber,
	}
}
