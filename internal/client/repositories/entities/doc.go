// Package entities owns the local collection of one entity kind and applies
// user mutations optimistically.
//
// # Overview
//
// Repository is generic over the payload type of the kind (models.Task,
// models.JournalEntry). Every mutation is written to the durable store at
// once and, unless the entity is a template, recorded in the pending change
// ledger for the sync worker. Reads never touch the network.
//
// # Identity
//
// New entities get a local id from the wall clock in milliseconds, bumped
// past the largest id already used so ids stay unique and increasing. Once the
// sync worker confirms the creation it attaches the server id; both ids keep
// resolving to the entity afterwards.
//
// # Concurrency
//
// Update and Delete take the entity's lock in the lock table and fail with
// common.ErrLocked instead of waiting. A short mutex around the collection
// read-modify-write keeps the store key consistent; it is never held across
// network calls.
//
// Typical Usage
//
//	repo := entities.New[models.Task](common.KindTasks, st, ldg, lt, log)
//	task, _ := repo.Create(ctx, models.Task{Title: "water plants", ...})
//	_, _ = repo.Update(ctx, task.Ref(), map[string]any{"status": "done"})
//	list, _ := repo.List(ctx, entities.Query[models.Task]{})
package entities
