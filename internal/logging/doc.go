// Package logging builds the slog loggers used across reelpipe.
//
// Two formats exist: a one-line console format for terminals and cron mail,
// and JSON for log shippers. Every logger built by New reads the run id,
// stage and video id from the record's context, so stage code only needs to
// pass ctx to the *Context logging methods. NewNop returns a logger for tests
// and optional collaborators.
package logging
