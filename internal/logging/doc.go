// Package logging provides opt-in file-based logging with rotation for semindex.
// When the --debug flag is set, comprehensive logs are written to
// ~/.semindex/logs/ for debugging and troubleshooting.
//
// By default (without --debug), logging is minimal and goes to stderr only.
package logging
