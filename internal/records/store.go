// Package records implements the record store: the patient mapping of one
// authenticated identity, mirrored to a storage.Persister after every
// mutation.
//
// The in-memory mapping is the source of truth between loads. When a save
// fails the mutation is rolled back, so memory never runs ahead of what was
// durably written.
package records

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/patientkeeper/internal/common"
	"github.com/dmitrijs2005/patientkeeper/internal/logging"
	"github.com/dmitrijs2005/patientkeeper/internal/models"
	"github.com/dmitrijs2005/patientkeeper/internal/storage"
)

// nowFn is the wall clock used to stamp medication entries.
var nowFn = time.Now

// NewEntry stamps a medication entry with the current local time.
func NewEntry(medication, dosage string) models.MedicationEntry {
	return models.NewMedicationEntry(medication, dosage, nowFn())
}

type Store struct {
	mu        sync.Mutex
	identity  string
	patients  models.Patients
	persister storage.Persister
	log       logging.Logger
}

// Load reads the store of identity. A missing backing resource yields an
// empty store; corrupt data is returned as an error and no store is built.
func Load(ctx context.Context, p storage.Persister, identity string, log logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.Nop()
	}
	log = log.With("identity", identity)

	patients, err := p.Load(ctx, identity)
	if err != nil {
		log.Error(ctx, "load store failed", "error", err)
		return nil, fmt.Errorf("load store: %w", err)
	}
	if patients == nil {
		patients = models.Patients{}
	}

	log.Debug(ctx, "store loaded", "patients", len(patients))
	return &Store{
		identity:  identity,
		patients:  patients.Clone(),
		persister: p,
		log:       log,
	}, nil
}

func (s *Store) Identity() string {
	return s.identity
}

// AddPatient validates rec and inserts it under rec.Name.
func (s *Store) AddPatient(ctx context.Context, rec models.PatientRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.patients[rec.Name]; ok {
		return fmt.Errorf("add %q: %w", rec.Name, common.ErrDuplicatePatient)
	}

	s.patients[rec.Name] = rec.Clone()
	if err := s.persistLocked(ctx); err != nil {
		delete(s.patients, rec.Name)
		s.log.Error(ctx, "add patient failed", "patient", rec.Name, "error", err)
		return err
	}

	s.log.Info(ctx, "patient added", "patient", rec.Name)
	return nil
}

func (s *Store) RemovePatient(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.patients[name]
	if !ok {
		return fmt.Errorf("remove %q: %w", name, common.ErrUnknownPatient)
	}

	delete(s.patients, name)
	if err := s.persistLocked(ctx); err != nil {
		s.patients[name] = prev
		s.log.Error(ctx, "remove patient failed", "patient", name, "error", err)
		return err
	}

	s.log.Info(ctx, "patient removed", "patient", name)
	return nil
}

// AppendMedication adds e at the end of the patient's medication log.
// Medication and Dosage are not checked against any choice list.
func (s *Store) AppendMedication(ctx context.Context, name string, e models.MedicationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.patients[name]
	if !ok {
		return fmt.Errorf("append medication to %q: %w", name, common.ErrUnknownPatient)
	}

	next := prev.Clone()
	next.Medications = append(next.Medications, e)
	s.patients[name] = next

	if err := s.persistLocked(ctx); err != nil {
		s.patients[name] = prev
		s.log.Error(ctx, "append medication failed", "patient", name, "error", err)
		return err
	}

	s.log.Info(ctx, "medication appended", "patient", name, "entries", len(next.Medications))
	return nil
}

// Persist overwrites the backing resource with the current mapping.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	return s.persister.Save(ctx, s.identity, s.patients.Clone())
}

// Patient returns a copy of the named record.
func (s *Store) Patient(name string) (models.PatientRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.patients[name]
	if !ok {
		return models.PatientRecord{}, fmt.Errorf("%q: %w", name, common.ErrUnknownPatient)
	}
	out := rec.Clone()
	out.Name = name
	return out, nil
}

func (s *Store) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.patients[name]
	return ok
}

// Names returns the patient names in ascending order.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patients.Names()
}

// Snapshot returns a deep copy of the whole mapping.
func (s *Store) Snapshot() models.Patients {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patients.Clone()
}
