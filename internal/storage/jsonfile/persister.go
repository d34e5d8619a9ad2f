// Package jsonfile stores each identity's patients as one JSON document,
// "<data dir>/<identity>_patients_data.json". Saves go through a temporary
// file and a rename, and are serialized per identity.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/patientkeeper/internal/common"
	"github.com/dmitrijs2005/patientkeeper/internal/filex"
	"github.com/dmitrijs2005/patientkeeper/internal/models"
	"github.com/dmitrijs2005/patientkeeper/internal/storage"
)

const ext = "json"

type Persister struct {
	dir   string
	locks storage.KeyedMutex
}

var _ storage.Persister = (*Persister)(nil)

// New returns a Persister rooted at dir, creating the directory if needed.
func New(dir string) (*Persister, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrIO, err)
	}
	return &Persister{dir: abs}, nil
}

// Path returns the backing file of identity.
func (p *Persister) Path(identity string) string {
	return filepath.Join(p.dir, storage.ResourceName(identity, ext))
}

func (p *Persister) Load(ctx context.Context, identity string) (models.Patients, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := p.locks.Lock(identity)
	defer unlock()

	path := p.Path(identity)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.Patients{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", common.ErrIO, path, err)
	}

	patients, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrCorruptStore, path, err)
	}
	return patients, nil
}

func (p *Persister) Save(ctx context.Context, identity string, patients models.Patients) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(patients, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode patients: %w", common.ErrIO, err)
	}

	unlock := p.locks.Lock(identity)
	defer unlock()

	path := p.Path(identity)
	if err := filex.WriteFileAtomic(path, data, 0o600); err != nil {
		return fmt.Errorf("%w: write %s: %w", common.ErrIO, path, err)
	}
	return nil
}

var errNotObject = errors.New("top level value must be an object")

func decode(data []byte) (models.Patients, error) {
	var patients models.Patients

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patients); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after patients object")
	}
	if patients == nil {
		return nil, errNotObject
	}

	out := patients.Clone()
	for _, name := range out.Names() {
		if err := out[name].Validate(); err != nil {
			return nil, fmt.Errorf("patient %q: %w", name, err)
		}
	}
	return out, nil
}
