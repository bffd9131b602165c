// Package syncer drains the pending change ledger of one entity kind against
// the remote API and folds the remote state back into the local collection.
//
// # Pass
//
// A sync pass does nothing while offline. Otherwise it walks the ledger in
// ascending timestamp order and sends each due change:
//
//   - create: remote create, then the server id is attached to the entity.
//     A create whose entity was deleted locally is dropped unsent.
//   - update: sent by server id. An update whose entity is not confirmed yet
//     stays pending; one whose entity is gone is dropped.
//   - delete: sent by server id; "not found" counts as success.
//
// Rejections are parked as permanent failures, transient failures back off
// (see ledger.RetryPolicy). Once a change of an entity fails or is deferred,
// later changes of the same entity wait for the next pass so the remote side
// never sees them out of order. After the ledger walk the pass pulls the
// remote list and merges it (see entities.Repository.MergeRemote).
//
// # Triggers
//
// Run serves passes from one goroutine. Passes are triggered by the network
// monitor going online, by a periodic ticker, by Notify (debounced, called by
// the repository after local mutations) and by SyncNow. The trigger channel
// has one slot, so a burst of triggers during a pass yields exactly one more
// pass after it. SyncNow runs a pass on the caller's goroutine and waits for
// any pass in progress first.
package syncer
