// Package state owns the ping triage state document.
//
// A working directory holds exactly one document at
// <base>/.pings-triage/config.json. It carries the user settings, the
// per-platform fetch cursors, every ping and thread seen so far, and the
// synced-URL set used to skip already-linked permalinks cheaply.
//
// Key components:
//   - PingID / ThreadID: deterministic identities
//   - Document: the typed aggregate, with tolerant loading and backfill
//   - JSONStore: whole-document load/save using temp file + rename
//   - Migrator: one-time import of the legacy state.json layout
//   - Repository: lifecycle operations (new -> analyzed -> synced) and queries
//   - Store: Open wires lock, migration, load, repository and journal together
//
// Concurrency: one logical writer per directory is assumed. Two processes
// writing the same directory race and the last writer wins. Options.Lock
// takes an advisory lock to turn that race into a fast failure.
package state
