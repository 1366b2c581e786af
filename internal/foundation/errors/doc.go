// Package errors provides the classified error primitives used across pingtriage.
//
// A ClassifiedError carries a category (what kind of failure), a severity
// (how much it matters), a retry strategy and structured context. Errors are
// built with a fluent builder:
//
//	err := errors.NotFoundError("ping").
//		WithContext("ping_id", id).
//		Build()
//
// Recoverable conditions such as a failed document save are reported with
// SeverityWarning so callers can log and continue.
package errors
