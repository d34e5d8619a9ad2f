// Package storage defines the persistence seam of the record store.
//
// A Persister reads and fully overwrites the patient mapping of one identity.
// There is no partial or delta write: every Save replaces what was stored
// for that identity. Backends live in subpackages (jsonfile, sqlite).
package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/patientkeeper/internal/models"
)

// Persister loads and saves the patient mapping of one identity.
//
// Load returns an empty, non-nil mapping when nothing was stored yet.
// Malformed stored data is reported as common.ErrCorruptStore, read/write
// failures as common.ErrIO.
type Persister interface {
	Load(ctx context.Context, identity string) (models.Patients, error)
	Save(ctx context.Context, identity string, patients models.Patients) error
}

// ResourceName derives the backing resource name for identity, e.g.
// "admin_patients_data.json". Path separators, ':', NUL and '%' are
// percent-escaped, so distinct identities never share a name and the name
// always stays inside the data directory. The empty identity maps to "%".
func ResourceName(identity, ext string) string {
	return escapeIdentity(identity) + "_patients_data." + ext
}

func escapeIdentity(identity string) string {
	switch identity {
	case "":
		return "%"
	case ".", "..":
		return strings.Repeat("%2E", len(identity))
	}

	var b strings.Builder
	for i := 0; i < len(identity); i++ {
		c := identity[i]
		switch c {
		case '/', '\\', ':', '%', 0:
			fmt.Fprintf(&b, "%%%02X", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// KeyedMutex serializes work per key. The zero value is ready to use.
type KeyedMutex struct {
	locks sync.Map
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *KeyedMutex) Lock(key string) func() {
	v, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
