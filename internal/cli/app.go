package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/patientkeeper/internal/auth"
	"github.com/dmitrijs2005/patientkeeper/internal/config"
	"github.com/dmitrijs2005/patientkeeper/internal/export/sink"
	"github.com/dmitrijs2005/patientkeeper/internal/logging"
	"github.com/dmitrijs2005/patientkeeper/internal/records"
	"github.com/dmitrijs2005/patientkeeper/internal/session"
	"github.com/dmitrijs2005/patientkeeper/internal/storage"
	"github.com/dmitrijs2005/patientkeeper/internal/storage/jsonfile"
	"github.com/dmitrijs2005/patientkeeper/internal/storage/sqlite"
)

// Choice lists offered by the medication form. The store itself accepts
// any text.
var (
	Medications = []string{"Medication A", "Medication B", "Medication C"}
	Dosages     = []string{"100mg", "500mg", "1000mg"}
)

type App struct {
	config    *config.Config
	log       logging.Logger
	gate      *auth.Gate
	persister storage.Persister
	sinks     []sink.Sink
	session   *session.Session
	store     *records.Store
	reader    *bufio.Reader
	out       io.Writer
}

// NewApp opens the configured store backend and export sinks.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	p, err := openPersister(ctx, c, log)
	if err != nil {
		log.Error(ctx, "error opening patient store", "backend", c.Backend, "error", err)
		return nil, err
	}

	sinks, err := openSinks(c)
	if err != nil {
		closePersister(p)
		return nil, err
	}

	return &App{
		config:    c,
		log:       log,
		gate:      auth.NewGate(auth.NewSource(c.Credentials, c.CredentialsHashed)),
		persister: p,
		sinks:     sinks,
		session:   session.New(),
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
	}, nil
}

func openPersister(ctx context.Context, c *config.Config, log logging.Logger) (storage.Persister, error) {
	switch c.Backend {
	case config.BackendSQLite:
		return sqlite.OpenDir(ctx, c.DataDir, log)
	case config.BackendFile, "":
		return jsonfile.New(c.DataDir)
	}
	return nil, fmt.Errorf("unknown backend %q", c.Backend)
}

func openSinks(c *config.Config) ([]sink.Sink, error) {
	local, err := sink.NewLocalSink(c.ExportDir)
	if err != nil {
		return nil, err
	}
	sinks := []sink.Sink{local}
	if c.S3Enabled() {
		sinks = append(sinks, sink.NewS3Sink(c))
	}
	return sinks, nil
}

func closePersister(p storage.Persister) {
	if c, ok := p.(io.Closer); ok {
		_ = c.Close()
	}
}

// Run starts the REPL and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	defer closePersister(a.persister)

	fmt.Fprintln(a.out, "Welcome to patientkeeper (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.session.State() != session.Unauthenticated
}

func (a *App) hasSelection() bool {
	return a.session.State() == session.PatientSelected
}

// getStatus renders "identity" or "identity/patient" for the prompt.
func (a *App) getStatus() string {
	id, ok := a.session.Identity()
	if !ok {
		return ""
	}
	if name, ok := a.session.Selected(); ok {
		return fmt.Sprintf("(%s/%s)", id, name)
	}
	return fmt.Sprintf("(%s)", id)
}
