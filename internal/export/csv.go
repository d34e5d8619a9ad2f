package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/dmitrijs2005/patientkeeper/internal/models"
)

var csvHeader = []string{"Medication", "Dosage", "Timestamp"}

// ToCSV writes the medication log with a header row, one row per entry in
// stored order.
func ToCSV(rec models.PatientRecord) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	if err := cw.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("export csv: write header: %w", err)
	}
	for _, e := range rec.Medications {
		if err := cw.Write([]string{e.Medication, e.Dosage, e.Timestamp}); err != nil {
			return nil, fmt.Errorf("export csv: write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("export csv: flush: %w", err)
	}
	return buf.Bytes(), nil
}
