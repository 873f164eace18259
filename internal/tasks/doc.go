// Package tasks runs mutations and bulk exports against the admin API.
//
// # Mutations
//
// A [Coordinator] serialises mutations per record: [Coordinator.Run] marks the record key in flight, performs the
// action, clears the mark, and on success reloads the owning collection. A second Run for a key that is still in
// flight fails with [shared.ErrMutationInFlight] without calling the action, so a double-pressed toggle sends one
// request. Failures are returned unchanged and never retried; the collection is left as it was.
//
// Every run can be journaled through a [Journal] (repositories.MutationRepository) to build the local history shown
// by `reeladmin history`.
//
// # Progress Reporting
//
// Both mutations and exports report through an optional `chan<- Update`. Sends never block: an update is dropped when
// the channel is full.
//
// # Exports
//
// [BulkExport] fetches several resource collections with a worker pool, throttled by a rate limiter, and writes one
// file per resource plus a manifest.
package tasks
