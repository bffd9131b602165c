// Package cli provides the interactive daybook command-line client.
//
// NewApp wires configuration, the local SQLite store, the per-kind
// repositories and ledgers, the gRPC client, the connectivity monitor and one
// sync worker per kind. App.Run starts the background loops and a REPL that
// keeps working while the server is unreachable; every edit is applied locally
// at once and queued for the next sync pass.
//
// Commands (type "help" in the REPL):
//
//	addtask, tasks, done, edittask, deltask
//	addentry, editentry, journal, template, templates, delentry
//	sync, pending, failed, retry, status
//	exit | quit
package cli
