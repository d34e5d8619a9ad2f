// Package sqlite is the transactional store backend. All identities share
// one SQLite database; rows are keyed by identity, and Save replaces an
// identity's rows inside a single transaction, so a failed write leaves the
// previous content intact.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/patientkeeper/internal/common"
	"github.com/dmitrijs2005/patientkeeper/internal/dbx"
	"github.com/dmitrijs2005/patientkeeper/internal/filex"
	"github.com/dmitrijs2005/patientkeeper/internal/logging"
	"github.com/dmitrijs2005/patientkeeper/internal/models"
	"github.com/dmitrijs2005/patientkeeper/internal/storage"

	_ "modernc.org/sqlite"
)

// FileName is the database file created by OpenDir.
const FileName = "patients_data.db"

type Persister struct {
	db    *sql.DB
	locks storage.KeyedMutex
}

var _ storage.Persister = (*Persister)(nil)

// Open opens (or creates) the database at dsn and applies migrations.
func Open(ctx context.Context, dsn string, log logging.Logger) (*Persister, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", common.ErrIO, dsn, err)
	}
	// one connection: SQLite serializes writers anyway, and ":memory:" is per connection
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrate: %w", common.ErrIO, err)
	}
	return &Persister{db: db}, nil
}

// OpenDir opens FileName inside dir, creating dir if needed.
func OpenDir(ctx context.Context, dir string, log logging.Logger) (*Persister, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrIO, err)
	}
	return Open(ctx, filepath.Join(abs, FileName), log)
}

func (p *Persister) Close() error {
	return p.db.Close()
}

func (p *Persister) Load(ctx context.Context, identity string) (models.Patients, error) {
	unlock := p.locks.Lock(identity)
	defer unlock()

	patients := models.Patients{}

	err := dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := loadPatients(ctx, tx, identity, patients); err != nil {
			return err
		}
		return loadMedications(ctx, tx, identity, patients)
	})
	if err == nil {
		err = validateAll(patients)
	}
	switch {
	case err == nil:
	case errors.Is(err, common.ErrCorruptStore), errors.Is(err, common.ErrIO):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: load patients of %q: %w", common.ErrIO, identity, err)
	}
	return patients, nil
}

func loadPatients(ctx context.Context, tx dbx.DBTX, identity string, out models.Patients) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT name, age, weight, gender, height, sv_number FROM patients WHERE identity = ?`, identity)
	if err != nil {
		return fmt.Errorf("%w: select patients: %w", common.ErrIO, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.PatientRecord
		var gender string
		if err := rows.Scan(&rec.Name, &rec.Age, &rec.Weight, &gender, &rec.Height, &rec.SocialInsuranceNumber); err != nil {
			return fmt.Errorf("%w: scan patient: %w", common.ErrCorruptStore, err)
		}
		rec.Gender = models.Gender(gender)
		rec.Medications = []models.MedicationEntry{}
		out[rec.Name] = rec
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: iterate patients: %w", common.ErrIO, err)
	}
	return nil
}

// validateAll rejects rows the add path would have refused.
func validateAll(patients models.Patients) error {
	for _, name := range patients.Names() {
		if err := patients[name].Validate(); err != nil {
			return fmt.Errorf("%w: patient %q: %w", common.ErrCorruptStore, name, err)
		}
	}
	return nil
}

func loadMedications(ctx context.Context, tx dbx.DBTX, identity string, out models.Patients) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT patient, medication, dosage, taken_at FROM medications WHERE identity = ? ORDER BY patient, seq`, identity)
	if err != nil {
		return fmt.Errorf("%w: select medications: %w", common.ErrIO, err)
	}
	defer rows.Close()

	for rows.Next() {
		var patient string
		var e models.MedicationEntry
		if err := rows.Scan(&patient, &e.Medication, &e.Dosage, &e.Timestamp); err != nil {
			return fmt.Errorf("%w: scan medication: %w", common.ErrCorruptStore, err)
		}
		rec, ok := out[patient]
		if !ok {
			return fmt.Errorf("%w: medication for missing patient %q", common.ErrCorruptStore, patient)
		}
		rec.Medications = append(rec.Medications, e)
		out[patient] = rec
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: iterate medications: %w", common.ErrIO, err)
	}
	return nil
}

func (p *Persister) Save(ctx context.Context, identity string, patients models.Patients) error {
	unlock := p.locks.Lock(identity)
	defer unlock()

	err := dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM medications WHERE identity = ?`, identity); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM patients WHERE identity = ?`, identity); err != nil {
			return err
		}

		for _, name := range patients.Names() {
			rec := patients[name]
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO patients (identity, name, age, weight, gender, height, sv_number)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				identity, name, rec.Age, rec.Weight, string(rec.Gender), rec.Height, rec.SocialInsuranceNumber); err != nil {
				return err
			}
			for seq, e := range rec.Medications {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO medications (identity, patient, seq, medication, dosage, taken_at)
					VALUES (?, ?, ?, ?, ?, ?)`,
					identity, name, seq, e.Medication, e.Dosage, e.Timestamp); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: save patients of %q: %w", common.ErrIO, identity, err)
	}
	return nil
}
