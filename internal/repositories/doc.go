// Package repositories implements SQLite persistence for local client state.
//
// Nothing here caches backend records; movies, users, payments and messages are always fetched fresh.
//
// Key Implementations:
//   - [SessionRepository] : the single-row session table (profile blob + access token), implements session.Store
//   - [CredentialRepository] : identity provider credentials, implements auth.CredentialStore
//   - [MutationRepository] : history of mutations sent to the backend, used as the tasks.Journal
//
// Sequence numbers give mutation history a stable, human-readable ordering (e.g. mutation #42). They come from a
// single-row "<table>_sequence" counter advanced in the same transaction as the insert.
package repositories
