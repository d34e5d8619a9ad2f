package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/patientkeeper/internal/common"
	"github.com/dmitrijs2005/patientkeeper/internal/records"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials, checks them against the gate and loads the
// identity's patient store. The session is only switched once the store has
// loaded; a failed login keeps the current one. The password is wiped before
// returning.
func (a *App) Login(ctx context.Context) error {
	identity, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.gate.Check(identity, password); err != nil {
		a.log.Warn(ctx, "login unsuccessful", "identity", identity)
		return err
	}

	store, err := records.Load(ctx, a.persister, identity, a.log)
	if err != nil {
		return err
	}

	if a.isLoggedIn() {
		_ = a.Logout(ctx)
	}
	a.store = store
	a.session.Authenticate(identity)
	a.log.Info(ctx, "login successful", "identity", identity)
	fmt.Fprintf(a.out, "Logged in as %s. %d patient(s) on record.\n", identity, len(store.Names()))
	return nil
}

// Logout drops the session and the in-memory store. Stored data stays on
// disk.
func (a *App) Logout(ctx context.Context) error {
	if id, ok := a.session.Identity(); ok {
		a.log.Info(ctx, "logout", "identity", id)
	}
	a.session.Logout()
	a.store = nil
	return nil
}
