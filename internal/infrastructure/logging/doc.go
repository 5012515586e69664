// Package logging provides structured logging for the controller.
//
// It wraps the standard library's log/slog with the configuration
// plumbing the rest of the program expects: level parsing from config,
// JSON or text output, and service/version default fields on every line.
//
// Components receive a *Logger (or a narrower interface they define
// themselves) via dependency injection; nothing logs through a global.
package logging
