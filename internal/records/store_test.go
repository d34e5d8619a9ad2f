package records

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/patientkeeper/internal/common"
	"github.com/dmitrijs2005/patientkeeper/internal/logging"
	"github.com/dmitrijs2005/patientkeeper/internal/models"
	"github.com/dmitrijs2005/patientkeeper/internal/storage/jsonfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePersister struct {
	mu      sync.Mutex
	data    map[string]models.Patients
	saves   int
	saveErr error
	loadErr error
}

func newFakePersister() *fakePersister {
	return &fakePersister{data: map[string]models.Patients{}}
}

func (f *fakePersister) Load(_ context.Context, identity string) (models.Patients, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if ps, ok := f.data[identity]; ok {
		return ps.Clone(), nil
	}
	return models.Patients{}, nil
}

func (f *fakePersister) Save(_ context.Context, identity string, ps models.Patients) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.data[identity] = ps.Clone()
	return nil
}

func jane() models.PatientRecord {
	return models.PatientRecord{
		Name: "Jane", Age: 30, Weight: 65.5, Gender: models.GenderFemale, Height: 170.0, SocialInsuranceNumber: "SV123",
	}
}

func withClock(t *testing.T, times ...time.Time) {
	t.Helper()
	old := nowFn
	i := 0
	nowFn = func() time.Time {
		tm := times[i%len(times)]
		i++
		return tm
	}
	t.Cleanup(func() { nowFn = old })
}

func newFileStore(t *testing.T, dir, identity string) *Store {
	t.Helper()
	p, err := jsonfile.New(dir)
	require.NoError(t, err)
	s, err := Load(context.Background(), p, identity, logging.Nop())
	require.NoError(t, err)
	return s
}

func TestLoad_EmptyWhenNothingStored(t *testing.T) {
	s := newFileStore(t, t.TempDir(), "admin")

	assert.Equal(t, "admin", s.Identity())
	assert.Empty(t, s.Names())
	assert.False(t, s.Has("Jane"))
}

func TestLoad_PropagatesCorruptStore(t *testing.T) {
	dir := t.TempDir()
	p, err := jsonfile.New(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p.Path("admin"), []byte("{not json"), 0o600))

	s, err := Load(context.Background(), p, "admin", nil)
	require.ErrorIs(t, err, common.ErrCorruptStore)
	assert.Nil(t, s)
}

func TestAddPatient_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := newFileStore(t, dir, "admin")
	require.NoError(t, s.AddPatient(context.Background(), jane()))

	reloaded := newFileStore(t, dir, "admin")
	got, err := reloaded.Patient("Jane")
	require.NoError(t, err)

	want := jane()
	want.Medications = []models.MedicationEntry{}
	assert.Equal(t, want, got)
}

func TestAddPatient_RejectsDuplicateWithoutMutation(t *testing.T) {
	fp := newFakePersister()
	s, err := Load(context.Background(), fp, "admin", logging.Nop())
	require.NoError(t, err)

	require.NoError(t, s.AddPatient(context.Background(), jane()))

	other := jane()
	other.Age = 99
	err = s.AddPatient(context.Background(), other)
	require.ErrorIs(t, err, common.ErrDuplicatePatient)

	assert.Equal(t, []string{"Jane"}, s.Names())
	got, err := s.Patient("Jane")
	require.NoError(t, err)
	assert.Equal(t, 30, got.Age)
	assert.Equal(t, 1, fp.saves, "duplicate must not persist")
}

func TestAddPatient_Validation(t *testing.T) {
	fp := newFakePersister()
	s, err := Load(context.Background(), fp, "admin", logging.Nop())
	require.NoError(t, err)

	bad := jane()
	bad.Age = 121
	require.ErrorIs(t, s.AddPatient(context.Background(), bad), common.ErrValidation)

	bad = jane()
	bad.Name = "  "
	require.ErrorIs(t, s.AddPatient(context.Background(), bad), common.ErrValidation)

	for _, v := range []float64{math.Inf(1), math.Inf(-1)} {
		bad = jane()
		bad.Weight = v
		require.ErrorIs(t, s.AddPatient(context.Background(), bad), common.ErrValidation)

		bad = jane()
		bad.Height = v
		require.ErrorIs(t, s.AddPatient(context.Background(), bad), common.ErrValidation)
	}

	assert.Empty(t, s.Names())
	assert.Zero(t, fp.saves)
}

func TestAppendMedication_PreservesOrder(t *testing.T) {
	t1 := time.Date(2026, 10, 17, 9, 0, 0, 0, time.Local)
	t2 := t1.Add(-time.Hour)
	t3 := t1.Add(time.Minute)
	withClock(t, t1, t2, t3)

	dir := t.TempDir()
	s := newFileStore(t, dir, "admin")
	ctx := context.Background()
	require.NoError(t, s.AddPatient(ctx, jane()))

	e1 := NewEntry("Medication A", "500mg")
	e2 := NewEntry("Medication B", "100mg")
	e3 := NewEntry("Medication C", "1000mg")
	for _, e := range []models.MedicationEntry{e1, e2, e3} {
		require.NoError(t, s.AppendMedication(ctx, "Jane", e))
	}

	assert.Equal(t, "2026-10-17 09:00:00", e1.Timestamp)
	assert.Equal(t, "2026-10-17 08:00:00", e2.Timestamp)

	reloaded := newFileStore(t, dir, "admin")
	got, err := reloaded.Patient("Jane")
	require.NoError(t, err)
	assert.Equal(t, []models.MedicationEntry{e1, e2, e3}, got.Medications)
}

func TestAppendMedication_AcceptsFreeText(t *testing.T) {
	s, err := Load(context.Background(), newFakePersister(), "admin", logging.Nop())
	require.NoError(t, err)
	require.NoError(t, s.AddPatient(context.Background(), jane()))

	e := models.MedicationEntry{Medication: "Aspirin", Dosage: "2 tablets", Timestamp: "2026-01-01 00:00:00"}
	require.NoError(t, s.AppendMedication(context.Background(), "Jane", e))

	got, err := s.Patient("Jane")
	require.NoError(t, err)
	assert.Equal(t, []models.MedicationEntry{e}, got.Medications)
}

func TestUnknownPatient(t *testing.T) {
	s, err := Load(context.Background(), newFakePersister(), "admin", logging.Nop())
	require.NoError(t, err)

	require.ErrorIs(t, s.RemovePatient(context.Background(), "Ghost"), common.ErrUnknownPatient)
	require.ErrorIs(t, s.AppendMedication(context.Background(), "Ghost", NewEntry("Medication A", "100mg")), common.ErrUnknownPatient)
	_, err = s.Patient("Ghost")
	require.ErrorIs(t, err, common.ErrUnknownPatient)
}

func TestRemovePatient(t *testing.T) {
	dir := t.TempDir()
	s := newFileStore(t, dir, "admin")
	ctx := context.Background()

	require.NoError(t, s.AddPatient(ctx, jane()))
	john := jane()
	john.Name = "John"
	require.NoError(t, s.AddPatient(ctx, john))

	require.NoError(t, s.RemovePatient(ctx, "Jane"))
	assert.Equal(t, []string{"John"}, s.Names())

	reloaded := newFileStore(t, dir, "admin")
	assert.Equal(t, []string{"John"}, reloaded.Names())
}

func TestPersistFailure_RollsBack(t *testing.T) {
	ctx := context.Background()
	fp := newFakePersister()
	s, err := Load(ctx, fp, "admin", logging.Nop())
	require.NoError(t, err)
	require.NoError(t, s.AddPatient(ctx, jane()))

	fp.saveErr = common.ErrIO
	before := s.Snapshot()

	john := jane()
	john.Name = "John"
	require.ErrorIs(t, s.AddPatient(ctx, john), common.ErrIO)
	require.ErrorIs(t, s.AppendMedication(ctx, "Jane", NewEntry("Medication A", "100mg")), common.ErrIO)
	require.ErrorIs(t, s.RemovePatient(ctx, "Jane"), common.ErrIO)

	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, before, fp.data["admin"])
}

func TestIdentitiesAreDisjoint(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	alice := newFileStore(t, dir, "alice")
	bob := newFileStore(t, dir, "bob")

	require.NoError(t, alice.AddPatient(ctx, jane()))
	john := jane()
	john.Name = "John"
	require.NoError(t, bob.AddPatient(ctx, john))

	assert.Equal(t, []string{"Jane"}, newFileStore(t, dir, "alice").Names())
	assert.Equal(t, []string{"John"}, newFileStore(t, dir, "bob").Names())

	_, err := os.Stat(filepath.Join(dir, "alice_patients_data.json"))
	require.NoError(t, err)
}

func TestSnapshotIsIndependent(t *testing.T) {
	s, err := Load(context.Background(), newFakePersister(), "admin", logging.Nop())
	require.NoError(t, err)
	require.NoError(t, s.AddPatient(context.Background(), jane()))

	snap := s.Snapshot()
	rec := snap["Jane"]
	rec.Medications = append(rec.Medications, NewEntry("Medication A", "100mg"))
	snap["Jane"] = rec
	delete(snap, "Jane")

	got, err := s.Patient("Jane")
	require.NoError(t, err)
	assert.Empty(t, got.Medications)
}

func TestLoad_ErrorIsWrapped(t *testing.T) {
	fp := newFakePersister()
	fp.loadErr = errors.Join(common.ErrIO, os.ErrPermission)

	_, err := Load(context.Background(), fp, "admin", logging.Nop())
	require.ErrorIs(t, err, common.ErrIO)
	require.ErrorIs(t, err, os.ErrPermission)
}
