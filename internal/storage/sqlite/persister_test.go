package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/patientkeeper/internal/common"
	"github.com/dmitrijs2005/patientkeeper/internal/logging"
	"github.com/dmitrijs2005/patientkeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPersister(t *testing.T) *Persister {
	t.Helper()
	p, err := OpenDir(context.Background(), filepath.Join(t.TempDir(), "data"), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func samplePatients() models.Patients {
	return models.Patients{
		"Jane": {
			Name: "Jane", Age: 30, Weight: 65.5, Gender: models.GenderFemale, Height: 170, SocialInsuranceNumber: "SV123",
			Medications: []models.MedicationEntry{
				{Medication: "Medication A", Dosage: "500mg", Timestamp: "2026-10-17 09:00:00"},
				{Medication: "Medication B", Dosage: "100mg", Timestamp: "2026-10-17 10:00:00"},
				{Medication: "Medication A", Dosage: "1000mg", Timestamp: "2026-10-17 08:00:00"},
			},
		},
		"John": {
			Name: "John", Age: 61, Weight: 80, Gender: models.GenderMale, Height: 181.5, SocialInsuranceNumber: "SV456",
			Medications: []models.MedicationEntry{},
		},
	}
}

func TestOpen_CreatesGooseVersionTable(t *testing.T) {
	p := newPersister(t)

	var n int
	require.NoError(t, p.db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('goose_db_version', 'patients', 'medications')`).Scan(&n))
	assert.Equal(t, 3, n)
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	p := newPersister(t)
	require.NoError(t, RunMigrations(context.Background(), p.db, logging.Nop()))
}

func TestLoad_UnknownIdentityIsEmpty(t *testing.T) {
	p := newPersister(t)

	got, err := p.Load(context.Background(), "admin")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSaveLoad_RoundTripKeepsMedicationOrder(t *testing.T) {
	p := newPersister(t)
	ctx := context.Background()

	require.NoError(t, p.Save(ctx, "admin", samplePatients()))

	got, err := p.Load(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, samplePatients(), got)
}

func TestSave_OverwritesIdentityOnly(t *testing.T) {
	p := newPersister(t)
	ctx := context.Background()

	require.NoError(t, p.Save(ctx, "alice", samplePatients()))
	require.NoError(t, p.Save(ctx, "bob", samplePatients()))

	only := models.Patients{"Solo": {Name: "Solo", Age: 1, Gender: models.GenderOther, Medications: []models.MedicationEntry{}}}
	require.NoError(t, p.Save(ctx, "alice", only))

	alice, err := p.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, only, alice)

	bob, err := p.Load(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, samplePatients(), bob)
}

func TestLoad_CorruptRows(t *testing.T) {
	t.Run("bad age type", func(t *testing.T) {
		p := newPersister(t)
		_, err := p.db.Exec(`INSERT INTO patients (identity, name, age, weight, gender, height, sv_number)
			VALUES ('admin', 'Jane', 'thirty', 1, 'Female', 2, 'SV')`)
		require.NoError(t, err)

		_, err = p.Load(context.Background(), "admin")
		require.ErrorIs(t, err, common.ErrCorruptStore)
	})

	t.Run("age out of range", func(t *testing.T) {
		p := newPersister(t)
		_, err := p.db.Exec(`INSERT INTO patients (identity, name, age, weight, gender, height, sv_number)
			VALUES ('admin', 'Jane', 500, 1, 'Female', 2, 'SV')`)
		require.NoError(t, err)

		_, err = p.Load(context.Background(), "admin")
		require.ErrorIs(t, err, common.ErrCorruptStore)
	})

	t.Run("unknown gender", func(t *testing.T) {
		p := newPersister(t)
		_, err := p.db.Exec(`INSERT INTO patients (identity, name, age, weight, gender, height, sv_number)
			VALUES ('admin', 'Jane', 30, 1, 'Bogus', 2, 'SV')`)
		require.NoError(t, err)

		_, err = p.Load(context.Background(), "admin")
		require.ErrorIs(t, err, common.ErrCorruptStore)
	})

	t.Run("orphan medication", func(t *testing.T) {
		p := newPersister(t)
		_, err := p.db.Exec(`INSERT INTO medications (identity, patient, seq, medication, dosage, taken_at)
			VALUES ('admin', 'Ghost', 0, 'Medication A', '100mg', '2026-01-01 00:00:00')`)
		require.NoError(t, err)

		_, err = p.Load(context.Background(), "admin")
		require.ErrorIs(t, err, common.ErrCorruptStore)
	})
}

func TestClosedDatabaseIsIO(t *testing.T) {
	p := newPersister(t)
	require.NoError(t, p.Close())

	_, err := p.Load(context.Background(), "admin")
	require.ErrorIs(t, err, common.ErrIO)

	err = p.Save(context.Background(), "admin", samplePatients())
	require.ErrorIs(t, err, common.ErrIO)
}
