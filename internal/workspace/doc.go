// Package workspace manages per-run session directories.
//
// A session directory is named after the local time the first file was
// requested (for example 2024-05-01_0930) and every file from one triage run
// goes into the same directory. The timestamp is fixed per SessionManager,
// so two managers started in the same minute share a directory.
package workspace
