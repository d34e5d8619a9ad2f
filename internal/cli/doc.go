// Package cli provides the interactive patientkeeper command-line client.
//
// It wires configuration, the credential gate, the patient store backend
// and the export sinks behind a line-oriented REPL. Typical flow: log in,
// add or select a patient, log medications, export a report, go back,
// log out.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits
// or input ends. See App and runREPL for details.
package cli
