// Package logging provides opt-in file-based logging with rotation for
// LocalFinderX. When the --debug flag is set, comprehensive logs are written
// to the app-data logs directory for troubleshooting. A separate append-only
// JSONL sink records per-file indexing failures at logs/indexing_errors.log.
//
// By default (without --debug), logging is minimal and goes to stderr only.
package logging
